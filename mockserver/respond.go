package mockserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Backend produksi tidak memakai amplop {status, data}; error cukup
// {message} dan blokade sesi membawa join_status di level atas.

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

func respondJoinBlocked(c *gin.Context, joinStatus, message string) {
	c.JSON(http.StatusForbidden, gin.H{
		"join_status": joinStatus,
		"message":     message,
	})
}
