package mockserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetMenu -> GET /menu/:restaurant_id/:table_id/:qr_token?session_token=...
//
// Endpoint ini sekaligus memvalidasi sesi: 200 hanya untuk sesi granted,
// 403 membawa join_status pending/rejected, token tak dikenal 401.
func (mc *MenuController) GetMenu(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	tableID, _ := strconv.Atoi(c.Param("table_id"))
	qrToken := c.Param("qr_token")

	var table Table
	err := mc.DB.Where("id = ? AND restaurant_id = ? AND qr_token = ?",
		tableID, restaurantID, qrToken).First(&table).Error
	if err != nil {
		respondError(c, http.StatusNotFound, "invalid QR code")
		return
	}

	token := c.Query("session_token")
	var sess GuestSession
	err = mc.DB.Where("token = ? AND table_id = ? AND has_left = ?", token, table.ID, false).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusUnauthorized, "unknown session")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	switch sess.JoinStatus {
	case "rejected":
		respondJoinBlocked(c, "rejected", "the host declined your request")
		return
	case "pending":
		respondJoinBlocked(c, "pending", "waiting for host approval")
		return
	}

	var restaurant Restaurant
	if err := mc.DB.First(&restaurant, table.RestaurantID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var categories []MenuCategory
	if err := mc.DB.Where("restaurant_id = ?", restaurant.ID).
		Order("id ASC").Find(&categories).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	categoryPayload := make([]gin.H, 0, len(categories))
	for _, cat := range categories {
		var items []MenuItem
		if err := mc.DB.Where("category_id = ?", cat.ID).
			Order("id ASC").Find(&items).Error; err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}

		itemPayload := make([]gin.H, 0, len(items))
		for _, item := range items {
			itemPayload = append(itemPayload, gin.H{
				"id":          item.ID,
				"name":        item.Name,
				"description": item.Description,
				"price":       item.Price,
				"image":       item.Image,
			})
		}
		categoryPayload = append(categoryPayload, gin.H{
			"id":    cat.ID,
			"name":  cat.Name,
			"items": itemPayload,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": gin.H{"name": restaurant.Name, "logo": restaurant.Logo},
		"categories": categoryPayload,
		"session": gin.H{
			"customer_name": sess.CustomerName,
			"is_primary":    sess.IsPrimary,
			"join_status":   sess.JoinStatus,
		},
	})
}
