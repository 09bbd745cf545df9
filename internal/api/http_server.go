package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/export"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the business operations exposed over HTTP.
type Services struct {
	Users    domain.UserService
	Items    domain.ItemService
	Bookings domain.BookingService
	Requests domain.RequestService
}

// HTTPServer serves the ShareIt REST API.
type HTTPServer struct {
	server   *http.Server
	engine   *gin.Engine
	svc      Services
	db       Pinger
	clock    domain.Clock
	exporter *export.BookingExporter
	log      *zerolog.Logger
}

func NewHTTPServer(
	cfg config.ServerConfig,
	svc Services,
	db Pinger,
	clock domain.Clock,
	exporter *export.BookingExporter,
	logger *zerolog.Logger,
) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if exporter == nil {
		exporter = export.NewBookingExporter("")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(RequestID(), Recovery(logger), AccessLog("server", logger))

	srv := &HTTPServer{
		engine:   engine,
		svc:      svc,
		db:       db,
		clock:    clock,
		exporter: exporter,
		log:      logger,
	}
	srv.routes()

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) routes() {
	s.engine.GET("/healthz", Healthz)
	s.engine.GET("/readyz", Readyz(s.db, s.log))

	users := s.engine.Group("/users")
	users.GET("", s.listUsers)
	users.POST("", s.createUser)
	users.GET("/:id", s.getUser)
	users.PATCH("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)

	items := s.engine.Group("/items", s.requireSharer)
	items.POST("", s.createItem)
	items.GET("", s.ownerItems)
	items.GET("/search", s.searchItems)
	items.GET("/:id", s.getItem)
	items.PATCH("/:id", s.updateItem)
	items.POST("/:id/comment", s.addComment)

	requests := s.engine.Group("/requests", s.requireSharer)
	requests.POST("", s.createRequest)
	requests.GET("", s.ownRequests)
	requests.GET("/all", s.otherRequests)
	requests.GET("/:id", s.getRequest)

	bookings := s.engine.Group("/bookings", s.requireSharer)
	bookings.POST("", s.createBooking)
	bookings.GET("", s.bookerBookings)
	bookings.GET("/owner", s.ownerBookings)
	bookings.GET("/owner/export", s.exportOwnerBookings)
	bookings.GET("/:id", s.getBooking)
	bookings.PATCH("/:id", s.setApproval)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

const ctxSharerID = "sharer_id"

// requireSharer rejects requests without a valid X-Sharer-User-Id header.
func (s *HTTPServer) requireSharer(c *gin.Context) {
	id, err := UserIDFromHeader(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.Set(ctxSharerID, id)
	c.Next()
}

func sharerID(c *gin.Context) int64 {
	return c.GetInt64(ctxSharerID)
}
