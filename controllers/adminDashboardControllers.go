package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetBookingStatusCounts reports how many bookings are in each status
func (h *Handler) GetBookingStatusCounts(c *gin.Context) {
	stats, err := h.Doctors.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Booking details fetched successfully", stats)
}

// GetDoctorWiseBookings reports paid bookings and revenue per doctor
func (h *Handler) GetDoctorWiseBookings(c *gin.Context) {
	rows, err := h.Doctors.DoctorWise(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Doctor-wise bookings fetched successfully", rows)
}
