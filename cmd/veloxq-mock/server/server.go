package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/veloxq/veloxq-api-types/errors"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/utils/retry"
)

// Routes registers handlers on the echo instance just before it starts.
type Routes func(*echo.Echo)

type config struct {
	quiet         bool
	authKey       string
	idleDeadline  time.Duration
	shutdownGrace time.Duration
}

type Option func(*config)

// WithIdleDeadline sets how long the server may sit without a request
// before shutting itself down. Zero or negative disables it.
//
// 3 minutes by default.
func WithIdleDeadline(d time.Duration) Option {
	return func(c *config) { c.idleDeadline = d }
}

// WithShutdownGrace bounds how long shutdown waits for in-flight
// requests.
//
// 30 seconds by default.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *config) { c.shutdownGrace = d }
}

// WithAuthKey makes the server require the API key header on every
// request, as the real platform does. Empty disables the check.
func WithAuthKey(key string) Option {
	return func(c *config) { c.authKey = key }
}

func Quiet() Option {
	return func(c *config) { c.quiet = true }
}

// Listen binds the echo instance to its listener when the server starts.
type Listen func(*echo.Echo) error

// ListenAll listens on all interfaces.
func ListenAll(p int) Listen {
	return func(e *echo.Echo) error { return e.Start(fmt.Sprintf(":%d", p)) }
}

// ListenLocal listens on localhost only. Port 0 picks a free one.
func ListenLocal(p int) Listen {
	return func(e *echo.Echo) error { return e.Start(fmt.Sprintf("localhost:%d", p)) }
}

type Server struct {
	Port    int
	Stopped <-chan error
}

// Start runs the mock API server until ctx is cancelled or the idle
// deadline passes. The returned Server carries the port actually bound
// and a channel yielding the terminal server error.
func Start(ctx context.Context, listen Listen, routes Routes, opts ...Option) Server {
	ctx, cancel := context.WithCancel(ctx)
	cfg := config{
		idleDeadline:  3 * time.Minute,
		shutdownGrace: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := echo.New()
	if cfg.quiet {
		e.HideBanner = true
		e.HidePort = true
	}

	shutdown := sync.OnceFunc(func() {
		if 0 < cfg.shutdownGrace {
			gctx, gcancel := context.WithTimeout(context.Background(), cfg.shutdownGrace)
			defer gcancel()
			e.Shutdown(gctx)
		}
		e.Close()
	})

	// each request pushes the idle deadline back.
	var watchdog *time.Timer
	if 0 < cfg.idleDeadline {
		watchdog = time.AfterFunc(cfg.idleDeadline, cancel)
		var mu sync.Mutex
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				mu.Lock()
				watchdog.Reset(cfg.idleDeadline)
				mu.Unlock()
				return next(c)
			}
		})
	}

	go func() {
		<-ctx.Done()
		if watchdog != nil {
			watchdog.Stop()
		}
		shutdown()
	}()

	if cfg.authKey != "" {
		e.Use(requireKey(cfg.authKey))
	}

	routes(e)

	stop := make(chan error, 1)
	go func() {
		defer close(stop)
		stop <- listen(e)
	}()

	return Server{Port: waitPort(ctx, e), Stopped: stop}
}

// requireKey rejects requests missing the platform's auth header.
func requireKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(rest.HeaderAPIKey) != key {
				return c.JSON(http.StatusUnauthorized, apierr.ErrorMessage{
					Message:    "invalid api key",
					Code:       "Unauthorized",
					StatusCode: http.StatusUnauthorized,
				})
			}
			return next(c)
		}
	}
}

// waitPort blocks until echo binds its listener and reports the port.
func waitPort(ctx context.Context, e *echo.Echo) int {
	port, _ := retry.Blocking(
		ctx, retry.StaticBackoff(50*time.Millisecond),
		func() (int, error) {
			if e.Listener == nil {
				return 0, retry.ErrRetry
			}
			return e.Listener.Addr().(*net.TCPAddr).Port, nil
		},
	)
	return port
}
