package mockserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

type HostController struct {
	DB *gorm.DB
}

func NewHostController(db *gorm.DB) *HostController {
	return &HostController{DB: db}
}

// PendingRequests -> GET /table/:table_id/pending-requests
func (hc *HostController) PendingRequests(c *gin.Context) {
	tableID, _ := strconv.Atoi(c.Param("table_id"))

	var pending []GuestSession
	if err := hc.DB.Where("table_id = ? AND join_status = ? AND has_left = ?",
		tableID, "pending", false).Order("id ASC").Find(&pending).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var guests []GuestSession
	if err := hc.DB.Where("table_id = ? AND join_status = ? AND has_left = ?",
		tableID, "approved", false).Order("id ASC").Find(&guests).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	pendingPayload := make([]gin.H, 0, len(pending))
	for _, p := range pending {
		pendingPayload = append(pendingPayload, gin.H{
			"id":            p.ID,
			"customer_name": p.CustomerName,
		})
	}
	guestPayload := make([]gin.H, 0, len(guests))
	for _, g := range guests {
		guestPayload = append(guestPayload, gin.H{
			"id":            g.ID,
			"customer_name": g.CustomerName,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"pending": pendingPayload,
		"guests":  guestPayload,
	})
}

// Respond -> POST /session/:id/respond, body {action: approve|reject}
func (hc *HostController) Respond(c *gin.Context) {
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var req struct {
		Action string `json:"action" binding:"required,oneof=approve reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "action must be approve or reject")
		return
	}

	var sess GuestSession
	err := hc.DB.First(&sess, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "join request not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if sess.JoinStatus != "pending" {
		respondError(c, http.StatusConflict, "join request already resolved")
		return
	}

	if req.Action == "approve" {
		sess.JoinStatus = "approved"
	} else {
		sess.JoinStatus = "rejected"
	}
	if err := hc.DB.Save(&sess).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.InfoLogger.Printf("join request %d: %s (%s)", sess.ID, req.Action, sess.CustomerName)

	c.JSON(http.StatusOK, gin.H{"message": "request " + req.Action + "d"})
}
