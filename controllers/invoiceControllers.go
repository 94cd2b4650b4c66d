package controllers

import (
	"net/http"

	"doc-booking/authentication"
	"doc-booking/services"

	"github.com/gin-gonic/gin"
)

type verifyRequest struct {
	AppointmentID     uint   `json:"appointment_id" form:"appointment_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id" form:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature" form:"razorpay_signature"`
}

// CreatePaymentOrder opens a gateway order for an appointment
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Payments.CreatePaymentOrder(c.Request.Context(), authentication.CurrentUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Payment order ready", order)
}

// VerifyPayment handles the checkout callback, sent as JSON or as a form post
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	appt, err := h.Payments.VerifyPayment(c.Request.Context(), services.PaymentCallback{
		AppointmentID: req.AppointmentID,
		PaymentID:     req.RazorpayPaymentID,
		OrderID:       req.RazorpayOrderID,
		Signature:     req.RazorpaySignature,
	})
	if err != nil {
		code := statusOf(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			h.Log.Error().Err(err).Uint("appointment_id", req.AppointmentID).Msg("payment verification failed")
			msg = "internal server error"
		}
		c.JSON(code, gin.H{"success": false, "error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"appointment_id": appt.ID,
		"status":         appt.Status,
	})
}

// DownloadReceipt sends the appointment receipt as a PDF attachment
func (h *Handler) DownloadReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rec, err := h.Receipts.Download(c.Request.Context(), authentication.CurrentUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+rec.Filename+`"`)
	c.Data(http.StatusOK, rec.ContentType, rec.Body)
}
