package mockserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

type OrderController struct {
	DB *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

// PlaceOrder -> POST /orders
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	type reqItem struct {
		MenuItemID uint   `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"required,gt=0"`
		Notes      string `json:"notes"`
	}
	type reqBody struct {
		RestaurantID string    `json:"restaurant_id"`
		TableID      string    `json:"table_id"`
		SessionToken string    `json:"session_token" binding:"required"`
		Notes        string    `json:"notes"`
		Items        []reqItem `json:"items" binding:"required,min=1"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "invalid order payload")
		return
	}

	var sess GuestSession
	err := oc.DB.Where("token = ? AND has_left = ?", req.SessionToken, false).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusUnauthorized, "unknown session")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !sess.Granted() {
		respondError(c, http.StatusForbidden, "session is not allowed to order")
		return
	}

	var total float64
	orderItems := make([]OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		var menuItem MenuItem
		if err := oc.DB.First(&menuItem, it.MenuItemID).Error; err != nil {
			respondError(c, http.StatusUnprocessableEntity,
				fmt.Sprintf("menu item %d not found", it.MenuItemID))
			return
		}
		total += menuItem.Price * float64(it.Quantity)
		orderItems = append(orderItems, OrderItem{
			MenuItemID: menuItem.ID,
			ItemName:   menuItem.Name,
			Quantity:   it.Quantity,
			UnitPrice:  menuItem.Price,
			Notes:      it.Notes,
		})
	}

	order := Order{
		TableID:     sess.TableID,
		SessionID:   sess.ID,
		Status:      "preparing",
		TotalAmount: total,
		Notes:       req.Notes,
	}

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		return tx.Create(&orderItems).Error
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.InfoLogger.Printf("order %d placed by %q (total=%.2f)",
		order.ID, sess.CustomerName, total)

	c.JSON(http.StatusCreated, orderJSON(oc.DB, order))
}

// SessionOrders -> GET /orders/session/:session_token
func (oc *OrderController) SessionOrders(c *gin.Context) {
	token := c.Param("session_token")

	var sess GuestSession
	err := oc.DB.Where("token = ?", token).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "unknown session")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var orders []Order
	if err := oc.DB.Where("session_id = ?", sess.ID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	payload := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		payload = append(payload, orderJSON(oc.DB, o))
	}
	c.JSON(http.StatusOK, payload)
}

// orderJSON menyerialkan order ke bentuk wire yang dipakai client.
func orderJSON(db *gorm.DB, o Order) gin.H {
	var items []OrderItem
	db.Where("order_id = ?", o.ID).Order("id ASC").Find(&items)

	itemPayload := make([]gin.H, 0, len(items))
	for _, it := range items {
		itemPayload = append(itemPayload, gin.H{
			"item_name":  it.ItemName,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice,
			"notes":      it.Notes,
		})
	}

	var sess GuestSession
	db.First(&sess, o.SessionID)

	return gin.H{
		"id":            o.ID,
		"status":        o.Status,
		"customer_name": sess.CustomerName,
		"table_number":  fmt.Sprintf("%d", o.TableID),
		"items":         itemPayload,
		"total_amount":  o.TotalAmount,
		"notes":         o.Notes,
		"created_at":    o.CreatedAt,
	}
}
