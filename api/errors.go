package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yeremiapane/tableside/models"
)

// StatusError adalah response non-2xx dari server. Backend menyandikan
// hasil approval lewat kombinasi status code dan field join_status,
// jadi keduanya dibawa di sini dan dipetakan oleh pemanggil.
type StatusError struct {
	Code       int
	Message    string
	JoinStatus models.JoinStatus
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Code)
}

// IsStatus melaporkan apakah err adalah StatusError dengan code tersebut.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// IsAuthFailure -> 401 atau 403, dua-duanya berarti sesi/token tidak
// lagi diterima server.
func IsAuthFailure(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}
