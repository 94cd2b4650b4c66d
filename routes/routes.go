package routes

import (
	"time"

	"doc-booking/authentication"
	"doc-booking/controllers"
	"doc-booking/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// UserRoutes builds the engine with every public, user and admin route.
func UserRoutes(h *controllers.Handler, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(h.Log), middleware.RequestID(), middleware.Logger(h.Log), cors.New(corsConfig(corsOrigins)))

	r.GET("/healthz", h.Health)

	//user routers
	r.POST("/users/signup", h.Signup)
	r.POST("/users/login", h.Login)
	r.POST("/payments/verify", h.VerifyPayment)
	r.GET("/specializations", h.ListSpecializations)

	doctors := r.Group("/doctors")
	doctors.Use(authentication.OptionalUserMiddleware(h.SigningKey))
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/featured", h.FeaturedDoctors)
		doctors.GET("/search", h.SearchDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.GET("/:id/reviews", h.DoctorReviews)
	}

	user := r.Group("/user")
	user.Use(authentication.UserAuthMiddleware(h.SigningKey))
	{
		user.POST("/doctors/:id/appointments", h.BookAppointment)
		user.POST("/doctors/:id/reviews", h.SubmitReview)
		user.GET("/appointments", h.ListAppointments)
		user.GET("/appointments/:id", h.GetAppointment)
		user.POST("/appointments/:id/cancel", h.CancelAppointment)
		user.POST("/appointments/:id/payment-order", h.CreatePaymentOrder)
		user.GET("/appointments/:id/receipt", h.DownloadReceipt)
		user.GET("/reviews", h.MyReviews)
		user.GET("/profile", h.GetProfile)
		user.PATCH("/profile", h.UpdateProfile)
	}

	//Admin routes
	r.POST("/admin/login", h.AdminLogin)

	admin := r.Group("/admin")
	admin.Use(authentication.AdminAuthMiddleware(h.SigningKey))
	{
		admin.POST("/doctors", h.AddDoctor)
		admin.PATCH("/doctors/:id", h.UpdateDoctor)
		admin.GET("/bookings/stats", h.GetBookingStatusCounts)
		admin.GET("/bookings/doctor-wise", h.GetDoctorWiseBookings)
	}

	return r
}
