package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentacar/internal/infra/config"
	"rentacar/internal/infra/obs"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
	UpdateProfile(c *gin.Context)
}

type CarsHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
	Calendar(c *gin.Context)
	Availability(c *gin.Context)
	Quote(c *gin.Context)
}

type BookingsHTTP interface {
	Validate(c *gin.Context)
	Submit(c *gin.Context)
	Mine(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
}

type ReviewsHTTP interface {
	Submit(c *gin.Context)
	ListByCar(c *gin.Context)
}

type AdminHTTP interface {
	Bookings(c *gin.Context)
	ConfirmBooking(c *gin.Context)
	CancelBooking(c *gin.Context)
	CreateCar(c *gin.Context)
	UpdateCar(c *gin.Context)
	DeleteCar(c *gin.Context)
	SetCarAvailability(c *gin.Context)
	UploadCarPhoto(c *gin.Context)
	PaintDay(c *gin.Context)
	Reviews(c *gin.Context)
	ApproveReview(c *gin.Context)
	RejectReview(c *gin.Context)
	ReplyReview(c *gin.Context)
	DeleteReview(c *gin.Context)
	ReviewStream(c *gin.Context)
}

type Handlers struct {
	Auth     AuthHTTP
	Cars     CarsHTTP
	Bookings BookingsHTTP
	Reviews  ReviewsHTTP
	Admin    AdminHTTP
	Session  gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter mounts every route under /api/v1 plus the probes.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.Session != nil {
		router.Use(h.Session)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
		api.PUT("/auth/me", h.Auth.UpdateProfile)
	}
	if h.Cars != nil {
		api.GET("/cars", h.Cars.Catalog)
		api.GET("/cars/:id", h.Cars.Get)
		api.GET("/cars/:id/calendar", h.Cars.Calendar)
		api.GET("/cars/:id/availability", h.Cars.Availability)
		api.POST("/cars/:id/quote", h.Cars.Quote)
	}
	if h.Reviews != nil {
		api.GET("/cars/:id/reviews", h.Reviews.ListByCar)
		api.POST("/bookings/:id/reviews", h.Reviews.Submit)
	}
	if h.Bookings != nil {
		api.POST("/bookings/validate", h.Bookings.Validate)
		api.POST("/bookings", h.Bookings.Submit)
		api.GET("/bookings/:id", h.Bookings.Get)
		api.POST("/bookings/:id/cancel", h.Bookings.Cancel)
		api.GET("/me/bookings", h.Bookings.Mine)
	}
	if h.Admin != nil {
		admin := api.Group("/admin")
		admin.GET("/bookings", h.Admin.Bookings)
		admin.POST("/bookings/:id/confirm", h.Admin.ConfirmBooking)
		admin.POST("/bookings/:id/cancel", h.Admin.CancelBooking)
		admin.POST("/cars", h.Admin.CreateCar)
		admin.PUT("/cars/:id", h.Admin.UpdateCar)
		admin.DELETE("/cars/:id", h.Admin.DeleteCar)
		admin.POST("/cars/:id/availability", h.Admin.SetCarAvailability)
		admin.POST("/cars/:id/photo", h.Admin.UploadCarPhoto)
		admin.PUT("/cars/:id/calendar/:date", h.Admin.PaintDay)
		admin.GET("/reviews", h.Admin.Reviews)
		admin.GET("/reviews/stream", h.Admin.ReviewStream)
		admin.POST("/reviews/:id/approve", h.Admin.ApproveReview)
		admin.POST("/reviews/:id/reject", h.Admin.RejectReview)
		admin.POST("/reviews/:id/reply", h.Admin.ReplyReview)
		admin.DELETE("/reviews/:id", h.Admin.DeleteReview)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
