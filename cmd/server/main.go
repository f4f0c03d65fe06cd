package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hostel-buddy/internal/assets"
	"github.com/iliyamo/hostel-buddy/internal/config" // Internal config loader
	"github.com/iliyamo/hostel-buddy/internal/database"
	"github.com/iliyamo/hostel-buddy/internal/handler"
	"github.com/iliyamo/hostel-buddy/internal/middleware"
	"github.com/iliyamo/hostel-buddy/internal/notify"
	"github.com/iliyamo/hostel-buddy/internal/queue"
	"github.com/iliyamo/hostel-buddy/internal/repository"
	"github.com/iliyamo/hostel-buddy/internal/router" // Internal router setup
	"github.com/iliyamo/hostel-buddy/internal/service"
	"github.com/iliyamo/hostel-buddy/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := database.Migrate(mctx, db); err != nil {
		log.Fatalf("database: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	// Outgoing mail: SMTP when configured, the log otherwise.  With a broker
	// the request path only enqueues and a background consumer delivers;
	// without one, delivery runs on a background goroutine.
	var mailer notify.Sender = notify.LogSender{}
	if cfg.Mail.Enabled() {
		mailer = notify.NewSMTPSender(cfg.Mail)
	}
	direct := notify.NewAsync(mailer)
	var sender notify.Sender = direct
	if cfg.RabbitURL != "" {
		sender = notify.Fallback{Primary: queue.NewPublisher(cfg.RabbitURL), Secondary: direct}
		go func() {
			if err := queue.StartEmailConsumer(ctx, cfg.RabbitURL, mailer); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("email-consumer: stopped: %v", err)
			}
		}()
	}
	notifier := notify.NewNotifier(sender, cfg.Mail.AppName)

	images, err := assets.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("assets: %v", err)
	}

	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.AccessTTLMin)*time.Minute)
	users := repository.NewUserRepo(db)
	complaints := repository.NewComplaintRepo(db)

	guard := service.NewGuard(tokens, users)
	authSvc := service.NewAuthService(users, tokens, cfg.BcryptCost)
	otpSvc := service.NewOTPService(users, notifier, cfg.OTPTTL, cfg.BcryptCost)
	complaintSvc := service.NewComplaintService(complaints, users, notifier)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(echomw.BodyLimit("6M"))

	router.RegisterRoutes(e, db, cfg.UploadDir) // Register application routes
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, otpSvc, images), guard, router.Limits{
		Auth: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		OTP:  middleware.NewTokenBucket(config.LoadOTPRateLimitConfig(), rdb),
	})
	complaintHandler := handler.NewComplaintHandler(complaintSvc, images)
	router.RegisterStudent(e, complaintHandler, guard)
	router.RegisterWarden(e, complaintHandler, guard)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := direct.Wait(sctx); err != nil {
		log.Printf("shutdown: pending mail: %v", err)
	}
}
