// Package server assembles the HTTP router and runs the API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/tallyup/internal/auth"
	"github.com/mmynk/tallyup/internal/config"
	"github.com/mmynk/tallyup/internal/middleware"
	"github.com/mmynk/tallyup/internal/observability"
	"github.com/mmynk/tallyup/internal/service"
	"github.com/mmynk/tallyup/internal/settlement"
	"github.com/mmynk/tallyup/internal/storage"
	"github.com/mmynk/tallyup/pkg/api/apiconnect"
)

// maxMessageBytes bounds decoded RPC request bodies.
const maxMessageBytes = 1 << 20

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   storage.Store
	JWT     *auth.JWTManager
	Metrics *observability.Metrics
}

// NewRouter builds the chi router serving the RPC services, /healthz and /metrics.
func NewRouter(p RouterParams) http.Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := p.Config

	settler := settlement.NewSettler(p.Store, p.Store,
		settlement.WithOptions(cfg.SettlementOptions()),
		settlement.WithObserver(p.Metrics),
	)
	handlerOpts := []connect.HandlerOption{
		connect.WithInterceptors(
			p.Metrics.Interceptor(),
			middleware.RequireAuth(p.JWT),
			middleware.LoggingInterceptor(logger),
		),
		connect.WithReadMaxBytes(maxMessageBytes),
	}
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(
		service.NewGroupService(p.Store, settler), handlerOpts...)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(
		service.NewExpenseService(p.Store, cfg.RequireBalancedSplits), handlerOpts...)

	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		chimw.RequestID,
		chimw.Recoverer,
		secureHeaders(logger, cfg.IsProduction()),
		p.Metrics.Middleware,
	)

	r.Get("/healthz", healthz(p.Store))
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cors(cfg.CORSOrigin), chimw.Timeout(cfg.AppRequestTimeout))
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				}),
			))
		}
		r.Handle(groupPath+"*", groupHandler)
		r.Handle(expensePath+"*", expenseHandler)
	})

	return r
}

// Run serves handler on cfg.AppAddr with HTTP/2 cleartext support until ctx
// is cancelled, then shuts down gracefully.
func Run(ctx context.Context, logger *slog.Logger, cfg *config.Config, handler http.Handler) error {
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func secureHeaders(logger *slog.Logger, production bool) func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cors adds CORS headers for browser access to the Connect endpoints.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
			w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func healthz(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(Pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}
