package mockserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type WaiterController struct {
	DB *gorm.DB
}

func NewWaiterController(db *gorm.DB) *WaiterController {
	return &WaiterController{DB: db}
}

// Login -> POST /waiter/login, mengembalikan {token, user}.
func (wc *WaiterController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	var user WaiterUser
	err := wc.DB.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := utils.GenerateWaiterToken(user.ID, user.Name)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.InfoLogger.Printf("waiter logged in: %s", user.Email)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// ReadyOrders -> GET /waiter/orders/ready (bearer auth)
func (wc *WaiterController) ReadyOrders(c *gin.Context) {
	var orders []Order
	if err := wc.DB.Where("status = ?", "ready").
		Order("created_at ASC").Find(&orders).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	payload := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		payload = append(payload, orderJSON(wc.DB, o))
	}
	c.JSON(http.StatusOK, payload)
}

// Serve -> POST /waiter/orders/:order_id/serve (bearer auth)
func (wc *WaiterController) Serve(c *gin.Context) {
	orderID, _ := strconv.Atoi(c.Param("order_id"))

	var order Order
	err := wc.DB.First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if order.Status != "ready" {
		respondError(c, http.StatusConflict, "order is not ready for pickup")
		return
	}

	order.Status = "completed"
	if err := wc.DB.Save(&order).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.InfoLogger.Printf("order %d served", order.ID)

	c.JSON(http.StatusOK, gin.H{"message": "order served"})
}
