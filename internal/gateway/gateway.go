package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/dto"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of the gateway; Limiter, Cache and Health may
// be nil.
type Deps struct {
	Upstream *ServerClient
	Limiter  domain.RateLimitStore
	Cache    *repository.ResponseCache
	Health   api.Pinger
}

// Gateway validates requests and relays them to the server.
type Gateway struct {
	cfg    config.GatewayConfig
	deps   Deps
	clock  domain.Clock
	engine *gin.Engine
	server *http.Server
	log    *zerolog.Logger
}

func New(cfg config.GatewayConfig, deps Deps, clock domain.Clock, logger *zerolog.Logger) *Gateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(api.RequestID(), api.Recovery(logger), api.AccessLog("gateway", logger))

	g := &Gateway{
		cfg:    cfg,
		deps:   deps,
		clock:  clock,
		engine: engine,
		log:    logger,
	}

	engine.GET("/healthz", api.Healthz)
	engine.GET("/readyz", api.Readyz(deps.Health, logger))

	engine.Use(g.rateLimit())
	g.routes()

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return g
}

func (g *Gateway) routes() {
	users := g.engine.Group("/users")
	users.GET("", g.relay())
	users.POST("", g.relay(body(newCreateUser)))
	users.GET("/:id", g.relay(pathID))
	users.PATCH("/:id", g.relay(pathID, body(newUpdateUser)))
	users.DELETE("/:id", g.relay(pathID))

	items := g.engine.Group("/items", g.requireSharer)
	items.POST("", g.relay(body(newCreateItem)))
	items.GET("", g.relay(page))
	items.GET("/search", g.cached(page))
	items.GET("/:id", g.cached(pathID))
	items.PATCH("/:id", g.relay(pathID, body(newUpdateItem)))
	items.POST("/:id/comment", g.relay(pathID, body(newCreateComment)))

	requests := g.engine.Group("/requests", g.requireSharer)
	requests.POST("", g.relay(body(newCreateItemRequest)))
	requests.GET("", g.relay())
	requests.GET("/all", g.relay(page))
	requests.GET("/:id", g.relay(pathID))

	bookings := g.engine.Group("/bookings", g.requireSharer)
	bookings.POST("", g.relay(body(newCreateBooking)))
	bookings.GET("", g.relay(state, page))
	bookings.GET("/owner", g.relay(state, page))
	bookings.GET("/owner/export", g.relay(state))
	bookings.GET("/:id", g.relay(pathID))
	bookings.PATCH("/:id", g.relay(pathID, approved))
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

func (g *Gateway) Start() error {
	g.log.Info().Str("addr", g.server.Addr).Str("upstream", g.cfg.ServerURL).Msg("Gateway listening")
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// requireSharer accepts only a positive integer X-Sharer-User-Id.
func (g *Gateway) requireSharer(c *gin.Context) {
	id, err := api.UserIDFromHeader(c)
	if err == nil && id <= 0 {
		err = fmt.Errorf("%w: header %s must be positive", api.ErrBadRequest, models.HeaderUserID)
	}
	if err != nil {
		api.RespondError(c, g.log, err)
		return
	}
	c.Next()
}

// relay runs the checks in order and forwards the request once all pass.
func (g *Gateway) relay(checks ...check) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.validate(c, checks) {
			return
		}
		reply, ok := g.forward(c)
		if !ok {
			return
		}
		if c.Request.Method != http.MethodGet && reply.Status < http.StatusBadRequest {
			g.invalidateItems(c.Request.Context())
		}
		writeReply(c, reply)
	}
}

// cached is relay with a read-through Redis cache keyed by user and URI.
func (g *Gateway) cached(checks ...check) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.validate(c, checks) {
			return
		}
		if !g.deps.Cache.Enabled() {
			if reply, ok := g.forward(c); ok {
				writeReply(c, reply)
			}
			return
		}

		ctx := c.Request.Context()
		key := c.GetHeader(models.HeaderUserID) + ":" + c.Request.URL.RequestURI()
		hit, err := g.deps.Cache.Get(ctx, key)
		if err != nil {
			g.log.Warn().Err(err).Msg("cache read failed")
		}
		if hit != nil {
			c.Header("X-Cache", "HIT")
			c.Data(hit.Status, hit.ContentType, hit.Body)
			return
		}

		reply, ok := g.forward(c)
		if !ok {
			return
		}
		if reply.Status == http.StatusOK {
			entry := &repository.CachedResponse{
				Status:      reply.Status,
				ContentType: reply.Header.Get("Content-Type"),
				Body:        reply.Body,
			}
			if err := g.deps.Cache.Set(ctx, key, entry); err != nil {
				g.log.Warn().Err(err).Msg("cache write failed")
			}
		}
		c.Header("X-Cache", "MISS")
		writeReply(c, reply)
	}
}

func (g *Gateway) validate(c *gin.Context, checks []check) bool {
	now := g.clock.Now()
	for _, chk := range checks {
		if err := chk(c, now); err != nil {
			api.RespondError(c, g.log, err)
			return false
		}
	}
	return true
}

func (g *Gateway) forward(c *gin.Context) (*Reply, bool) {
	var raw []byte
	if cached, ok := c.Get(gin.BodyBytesKey); ok {
		raw, _ = cached.([]byte)
	} else if c.Request.Body != nil {
		var err error
		if raw, err = io.ReadAll(c.Request.Body); err != nil {
			api.RespondError(c, g.log, fmt.Errorf("%w: unreadable body", api.ErrBadRequest))
			return nil, false
		}
	}

	reply, err := g.deps.Upstream.Forward(c.Request.Context(), c.Request.Method, c.Request.URL.RequestURI(), c.Request.Header, raw)
	if err != nil {
		g.log.Error().Err(err).Str("request_id", api.RequestIDFrom(c)).Msg("forward failed")
		api.WriteError(c, http.StatusBadGateway, ErrUpstreamUnavailable.Error())
		return nil, false
	}
	return reply, true
}

func (g *Gateway) invalidateItems(ctx context.Context) {
	if !g.deps.Cache.Enabled() {
		return
	}
	if _, err := g.deps.Cache.Invalidate(ctx); err != nil {
		g.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}

func writeReply(c *gin.Context, reply *Reply) {
	for name, values := range reply.Header {
		if name == "Content-Type" {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	contentType := reply.Header.Get("Content-Type")
	if len(reply.Body) == 0 {
		c.Status(reply.Status)
		return
	}
	c.Data(reply.Status, contentType, reply.Body)
}

// rateLimit counts requests per sharer, or per client IP without a header.
func (g *Gateway) rateLimit() gin.HandlerFunc {
	rl := g.cfg.RateLimit
	return func(c *gin.Context) {
		if !rl.Enabled || g.deps.Limiter == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if id, err := api.UserIDFromHeader(c); err == nil {
			key = "user:" + strconv.FormatInt(id, 10)
		}

		allowed, err := g.deps.Limiter.CheckRateLimit(c.Request.Context(), key, rl.Limit, rl.Window)
		if err != nil {
			g.log.Warn().Err(err).Str("key", key).Msg("rate limit check failed; allowing request")
			c.Next()
			return
		}
		if !allowed {
			api.RespondError(c, g.log, domain.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// check validates one aspect of a request before it is forwarded.
type check func(c *gin.Context, now time.Time) error

func pathID(c *gin.Context, _ time.Time) error {
	_, err := api.PathID(c, "id")
	return err
}

func page(c *gin.Context, _ time.Time) error {
	_, _, err := api.PageParams(c)
	return err
}

func state(c *gin.Context, _ time.Time) error {
	_, err := api.StateParam(c)
	return err
}

func approved(c *gin.Context, _ time.Time) error {
	_, err := api.ApprovedParam(c)
	return err
}

func body(newReq func() api.Validatable) check {
	return func(c *gin.Context, now time.Time) error {
		return api.BindJSON(c, newReq(), now)
	}
}

func newCreateUser() api.Validatable { return &dto.CreateUserRequest{} }
func newUpdateUser() api.Validatable { return &dto.UpdateUserRequest{} }
func newCreateItem() api.Validatable { return &dto.CreateItemRequest{} }
func newUpdateItem() api.Validatable { return &dto.UpdateItemRequest{} }
func newCreateComment() api.Validatable { return &dto.CreateCommentRequest{} }
func newCreateItemRequest() api.Validatable { return &dto.CreateItemRequestRequest{} }
func newCreateBooking() api.Validatable { return &dto.CreateBookingRequest{} }
