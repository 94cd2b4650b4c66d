// Package controllers adapts HTTP requests to the booking services.
package controllers

import (
	"net/http"
	"strconv"

	"doc-booking/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	Users        *services.UserService
	Doctors      *services.DoctorService
	Bookings     *services.BookingService
	Appointments *services.AppointmentService
	Payments     *services.PaymentService
	Reviews      *services.ReviewService
	Receipts     *services.ReceiptService
	SigningKey   []byte
	Log          zerolog.Logger
}

var kindStatus = map[services.Kind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindConflict:     http.StatusConflict,
	services.KindPolicy:       http.StatusForbidden,
	services.KindNotFound:     http.StatusNotFound,
	services.KindExternal:     http.StatusBadGateway,
	services.KindUnauthorized: http.StatusUnauthorized,
}

// statusOf maps a service error to its HTTP status; anything unknown is a 500.
func statusOf(err error) int {
	if code, ok := kindStatus[services.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
