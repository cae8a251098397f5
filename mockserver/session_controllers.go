package mockserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

type SessionController struct {
	DB *gorm.DB
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db}
}

// lookupTable memvalidasi triple restaurant/table/qr_token dari URL.
func (sc *SessionController) lookupTable(c *gin.Context) (*Table, bool) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	tableID, _ := strconv.Atoi(c.Param("table_id"))
	qrToken := c.Param("qr_token")

	var table Table
	err := sc.DB.Where("id = ? AND restaurant_id = ? AND qr_token = ?",
		tableID, restaurantID, qrToken).First(&table).Error
	if err != nil {
		respondError(c, http.StatusNotFound, "invalid QR code")
		return nil, false
	}
	return &table, true
}

// hostSession mengembalikan sesi host aktif meja, nil bila tidak ada.
func (sc *SessionController) hostSession(tableID uint) (*GuestSession, error) {
	var host GuestSession
	err := sc.DB.Where("table_id = ? AND is_primary = ? AND has_left = ?", tableID, true, false).
		First(&host).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &host, nil
}

// ValidateQR -> GET /qr/validate/:restaurant_id/:table_id/:qr_token
func (sc *SessionController) ValidateQR(c *gin.Context) {
	table, ok := sc.lookupTable(c)
	if !ok {
		return
	}

	host, err := sc.hostSession(table.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := gin.H{"has_active_host": host != nil}
	if host != nil {
		resp["host_name"] = host.CustomerName
	}
	c.JSON(http.StatusOK, resp)
}

// StartSession -> POST /qr/session/start/:restaurant_id/:table_id/:qr_token
//
// Tanpa host -> sesi primary. Dengan host: mode "join" menunggu approval,
// mode lain membuat separate bill yang langsung aktif.
func (sc *SessionController) StartSession(c *gin.Context) {
	type reqBody struct {
		CustomerName string `json:"customer_name" binding:"required"`
		Mode         string `json:"mode"`
	}

	table, ok := sc.lookupTable(c)
	if !ok {
		return
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "customer_name is required")
		return
	}

	host, err := sc.hostSession(table.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	sess := GuestSession{
		TableID:      table.ID,
		Token:        uuid.NewString(),
		CustomerName: req.CustomerName,
	}
	switch {
	case host == nil:
		sess.IsPrimary = true
		sess.JoinStatus = "active"
	case req.Mode == "join":
		sess.JoinStatus = "pending"
	default:
		// Separate bill di meja yang sama, tidak butuh approval
		sess.JoinStatus = "active"
	}

	if err := sc.DB.Create(&sess).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.InfoLogger.Printf("session started for %q at table %d (primary=%v, join_status=%s)",
		sess.CustomerName, table.ID, sess.IsPrimary, sess.JoinStatus)

	c.JSON(http.StatusOK, gin.H{
		"session_token": sess.Token,
		"customer_name": sess.CustomerName,
		"is_primary":    sess.IsPrimary,
		"join_status":   sess.JoinStatus,
	})
}

// LeaveSession -> POST /qr/session/leave. Advisory dari client,
// token tidak dikenal pun dijawab 200.
func (sc *SessionController) LeaveSession(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionToken == "" {
		respondError(c, http.StatusBadRequest, "session_token is required")
		return
	}

	sc.DB.Model(&GuestSession{}).
		Where("token = ?", req.SessionToken).
		Update("has_left", true)

	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}
