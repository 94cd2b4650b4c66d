package controllers

import (
	"net/http"

	"doc-booking/authentication"
	"doc-booking/models"
	"doc-booking/services"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type specializationInfo struct {
	Value models.Specialization `json:"value"`
	Name  string                `json:"name"`
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Doctors.List(c.Request.Context(), c.Query("specialization"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Doctors fetched successfully", doctors)
}

// FeaturedDoctors personalises the pick when the caller is signed in
func (h *Handler) FeaturedDoctors(c *gin.Context) {
	doctors, err := h.Doctors.Featured(c.Request.Context(), authentication.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Featured doctors fetched successfully", doctors)
}

func (h *Handler) SearchDoctors(c *gin.Context) {
	doctors, err := h.Doctors.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Search results", doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Doctors.Detail(c.Request.Context(), id, authentication.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Doctor fetched successfully", detail)
}

func (h *Handler) DoctorReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, err := h.Reviews.ForDoctor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Reviews fetched successfully", page)
}

func (h *Handler) ListSpecializations(c *gin.Context) {
	specs := models.Specializations()
	out := make([]specializationInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, specializationInfo{Value: s, Name: s.DisplayName()})
	}
	success(c, http.StatusOK, "Specializations fetched successfully", out)
}

// SubmitReview creates or replaces the caller's review of a doctor
func (h *Handler) SubmitReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	review, created, err := h.Reviews.Submit(c.Request.Context(), authentication.CurrentUserID(c), id,
		services.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if created {
		success(c, http.StatusCreated, "Review submitted successfully", review)
		return
	}
	success(c, http.StatusOK, "Review updated successfully", review)
}

func (h *Handler) MyReviews(c *gin.Context) {
	reviews, err := h.Reviews.ForUser(c.Request.Context(), authentication.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, "Reviews fetched successfully", reviews)
}
