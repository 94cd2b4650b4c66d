package controllers

import (
	"net/http"

	"doc-booking/authentication"
	"doc-booking/services"

	"github.com/gin-gonic/gin"
)

type bookingRequest struct {
	PatientName string `json:"patient_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Notes       string `json:"notes"`
	PayOnline   bool   `json:"pay_online"`
}

// BookAppointment books a slot with a doctor
func (h *Handler) BookAppointment(c *gin.Context) {
	doctorID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	appt, err := h.Bookings.Book(c.Request.Context(), services.BookingRequest{
		UserID:      authentication.CurrentUserID(c),
		DoctorID:    doctorID,
		PatientName: req.PatientName,
		Date:        req.Date,
		Time:        req.Time,
		Notes:       req.Notes,
		PayOnline:   req.PayOnline,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, "Appointment booked successfully", appt)
}

// ListAppointments lists the caller's appointments with their counters
func (h *Handler) ListAppointments(c *gin.Context) {
	summary, err := h.Appointments.ListForUser(c.Request.Context(), authentication.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Appointments fetched successfully", summary)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.Appointments.Get(c.Request.Context(), authentication.CurrentUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Appointment fetched successfully", view)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	appt, err := h.Appointments.Cancel(c.Request.Context(), authentication.CurrentUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Appointment cancelled successfully", appt)
}
