package controllers

import (
	"net/http"

	"doc-booking/services"

	"github.com/gin-gonic/gin"
)

// AddDoctor creates a doctor record
func (h *Handler) AddDoctor(c *gin.Context) {
	var in services.DoctorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doctor, err := h.Doctors.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, "Doctor added successfully", doctor)
}

// UpdateDoctor replaces a doctor's editable details
func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.DoctorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doctor, err := h.Doctors.Update(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Doctor updated successfully", doctor)
}
