package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/controller"
	"github.com/vibast-solutions/ms-go-reservations/app/queue"
	"github.com/vibast-solutions/ms-go-reservations/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the reservations service.",
	Run:   runServe,
}

// init registers the serve command.
func init() {
	rootCmd.AddCommand(serveCmd)
}

type controllers struct {
	courses   *controller.CourseController
	tickets   *controller.TicketController
	envelopes *controller.EnvelopeController
	claims    *controller.ClaimController
}

// runServe wires dependencies and starts the HTTP server.
func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build dependencies")
	}
	defer deps.Close()

	go deps.purgeExpiredLeases(ctx, cfg.LeasePurgeInterval)

	e := setupHTTPServer(controllers{
		courses:   controller.NewCourseController(deps.enrollments),
		tickets:   controller.NewTicketController(deps.tickets),
		envelopes: controller.NewEnvelopeController(deps.envelopes),
		claims:    controller.NewClaimController(deps.claims, queue.NewClaimProducer(deps.rdb)),
	})

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	cancel()

	logrus.Info("Server stopped")
}

// setupHTTPServer configures the Echo HTTP server and routes.
func setupHTTPServer(c controllers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	courses := e.Group("/courses/:course_id")
	courses.POST("/seats", c.courses.OpenSeats)
	courses.GET("/seats", c.courses.Seats)
	courses.POST("/enroll", c.courses.Enroll)
	courses.POST("/withdraw", c.courses.Withdraw)

	tickets := e.Group("/tickets/:event")
	tickets.PUT("", c.tickets.SetQuantity)
	tickets.GET("", c.tickets.Remaining)
	tickets.POST("/grab", c.tickets.Grab)

	envelopes := e.Group("/envelopes/:pool")
	envelopes.POST("", c.envelopes.Install)
	envelopes.GET("", c.envelopes.Remaining)
	envelopes.POST("/grab", c.envelopes.Grab)

	e.POST("/claims", c.claims.Submit)
	e.GET("/claims/:request_id", c.claims.Result)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}
