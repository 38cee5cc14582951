package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"gettogether/config"
	"gettogether/internal/gateway"
	"gettogether/internal/handlers"
	"gettogether/internal/notify"
	"gettogether/internal/services"
	_ "gettogether/migrations"
	"gettogether/monitoring"
	"gettogether/security"
	"gettogether/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payment gateway
	razorpay := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	// Initialize services
	notifier := notify.New(app, pn, cfg.AdminEmail)
	bookingService := services.NewBookingService(app, razorpay, redisClient, cfg)
	paymentService := services.NewPaymentService(app, redisClient, notifier, cfg.RazorpayKeySecret)
	lifecycleService := services.NewLifecycleService(app, notifier)
	expiryService := services.NewExpiryService(app)
	payoutService := services.NewPayoutService(app, cfg.CommissionRate)
	otpService := services.NewOTPService(redisClient, notifier, cfg.OTPLength, cfg.OTPTTL, cfg.OTPMailAttempts)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(app, bookingService, paymentService, lifecycleService, expiryService)
	adminHandler := handlers.NewAdminHandler(app, payoutService, otpService)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Monitoring
	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		go serveMetrics(cfg.MetricsPort)
	}

	// Scheduled whole-system expiry sweep
	app.Cron().MustAdd("expirySweep", cfg.SweepCron, func() {
		updated, err := expiryService.SweepAll(ctx)
		if err != nil {
			slog.Error("cron: expiry sweep failed", "error", err)
			return
		}
		if updated > 0 {
			slog.Info("cron: expiry sweep finished", "updated", updated)
		}
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		g := e.Router.Group("/api/gettogether")
		g.BindFunc(rateLimiter.AntiBotMiddleware())

		// Booking endpoints
		g.POST("/bookings", bookingHandler.CreateBooking).BindFunc(rateLimiter.BookingRateLimit(10))
		g.POST("/bookings/verify-payment", bookingHandler.VerifyPayment)
		g.GET("/bookings/my-bookings", bookingHandler.GetMyBookings)
		g.GET("/bookings/check-expired", bookingHandler.CheckExpired)
		g.GET("/bookings/ticket-status", bookingHandler.GetTicketStatus)
		g.GET("/bookings/organizer/all-bookings", bookingHandler.GetOrganizerBookings)
		g.GET("/bookings/event/{eventId}", bookingHandler.GetEventBookings)
		g.POST("/bookings/verify-ticket", bookingHandler.VerifyTicket)
		g.POST("/bookings/cancel-ticket", bookingHandler.CancelTicket)
		g.POST("/bookings/cancel-user-ticket", bookingHandler.CancelUserTicket)
		g.GET("/bookings/{id}", bookingHandler.GetBooking)
		g.DELETE("/bookings/{id}", bookingHandler.DeleteBooking)

		// Admin endpoints
		g.GET("/admin/payouts", adminHandler.ListPayouts)
		g.POST("/admin/payouts/run", adminHandler.RunPayouts)
		g.POST("/admin/request-otp", adminHandler.RequestOTP)
		g.POST("/admin/verify-otp", adminHandler.VerifyOTP)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
