package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/park285/whales/internal/api"
	"github.com/park285/whales/pkg/whalesdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	HTTPAddr string
	// WSAddr serves the websocket endpoint; empty disables it.
	WSAddr       string
	MaxBodySize  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	handler *api.Handler
	health  []HealthCheck
	cfg     Config
	logger  *zap.Logger

	http *fasthttp.Server
	ws   *http.Server
}

func New(handler *api.Handler, cfg Config, logger *zap.Logger, health ...HealthCheck) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	s := &Server{handler: handler, health: health, cfg: cfg, logger: logger}
	s.http = &fasthttp.Server{
		Handler:            s.handle,
		Name:               "whales",
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		MaxRequestBodySize: cfg.MaxBodySize,
	}
	if cfg.WSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", s.WebSocketHandler())
		s.ws = &http.Server{Addr: cfg.WSAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}
	return s
}

// Run serves until ctx is cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http api listening", zap.String("addr", s.cfg.HTTPAddr))
		return s.http.ListenAndServe(s.cfg.HTTPAddr)
	})
	if s.ws != nil {
		g.Go(func() error {
			s.logger.Info("websocket api listening", zap.String("addr", s.cfg.WSAddr))
			if err := s.ws.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if err := s.http.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if s.ws != nil {
			if err := s.ws.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		s.logger.Warn("shutdown finished with error", zap.Error(err))
		return nil
	}
	return err
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())
	switch path {
	case "/api":
		if !ctx.IsPost() {
			s.writeJSON(ctx, fasthttp.StatusMethodNotAllowed, whalesdto.ErrorResponse("method not allowed"))
			break
		}
		resp := s.handler.QueryJSON(ctx, ctx.PostBody())
		s.writeJSON(ctx, fasthttp.StatusOK, resp)
	case "/healthz":
		s.healthz(ctx)
	default:
		s.writeJSON(ctx, fasthttp.StatusNotFound, whalesdto.ErrorResponse("not found"))
	}
	s.logger.Debug("http request",
		zap.String("method", string(ctx.Method())),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) healthz(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for _, check := range s.health {
		if err := check(checkCtx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.writeJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		ctx.Error("internal error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
