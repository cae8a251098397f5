package mockserver

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server adalah tiruan backend produksi untuk demo lokal dan test
// end-to-end. Permukaan API-nya mengikuti tabel endpoint client.
type Server struct {
	DB     *gorm.DB
	Engine *gin.Engine
}

func New(db *gorm.DB) (*Server, error) {
	if err := db.AutoMigrate(
		&Restaurant{}, &Table{}, &GuestSession{},
		&MenuCategory{}, &MenuItem{},
		&Order{}, &OrderItem{}, &WaiterUser{},
	); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	sessionCtrl := NewSessionController(db)
	menuCtrl := NewMenuController(db)
	orderCtrl := NewOrderController(db)
	hostCtrl := NewHostController(db)
	waiterCtrl := NewWaiterController(db)

	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/qr/validate/:restaurant_id/:table_id/:qr_token", sessionCtrl.ValidateQR)
		apiGroup.POST("/qr/session/start/:restaurant_id/:table_id/:qr_token", sessionCtrl.StartSession)
		apiGroup.POST("/qr/session/leave", sessionCtrl.LeaveSession)

		apiGroup.GET("/menu/:restaurant_id/:table_id/:qr_token", menuCtrl.GetMenu)

		apiGroup.GET("/orders/session/:session_token", orderCtrl.SessionOrders)
		apiGroup.POST("/orders", orderCtrl.PlaceOrder)

		apiGroup.GET("/table/:table_id/pending-requests", hostCtrl.PendingRequests)
		apiGroup.POST("/session/:id/respond", hostCtrl.Respond)

		apiGroup.POST("/waiter/login", waiterCtrl.Login)

		staff := apiGroup.Group("/waiter", WaiterAuth())
		{
			staff.GET("/orders/ready", waiterCtrl.ReadyOrders)
			staff.POST("/orders/:order_id/serve", waiterCtrl.Serve)
		}
	}

	return &Server{DB: db, Engine: engine}, nil
}
