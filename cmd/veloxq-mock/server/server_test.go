package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/veloxq/veloxq-api-types/errors"
	testutilctx "github.com/veloxq/veloxq-go/cmd/veloxq-mock/internal/testutils/context"
	"github.com/veloxq/veloxq-go/cmd/veloxq-mock/server"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/utils/try"
)

// ping registers a single GET / answering with body.
func ping(body string) server.Routes {
	return func(e *echo.Echo) {
		e.GET("/", func(c echo.Context) error {
			return c.String(http.StatusOK, body)
		})
	}
}

// get requests GET / on the server. The response body is closed at test
// cleanup. apiKey, when not empty, goes into the auth header.
func get(t *testing.T, svr server.Server, apiKey string) *http.Response {
	t.Helper()
	req := try.To(http.NewRequest(
		http.MethodGet, fmt.Sprintf("http://localhost:%d/", svr.Port), nil,
	)).OrFatal(t)
	if apiKey != "" {
		req.Header.Set(rest.HeaderAPIKey, apiKey)
	}
	resp := try.To(http.DefaultClient.Do(req)).OrFatal(t)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// stopError polls Stopped without blocking.
func stopError(svr server.Server) (error, bool) {
	select {
	case err := <-svr.Stopped:
		return err, true
	default:
		return nil, false
	}
}

func TestServer(t *testing.T) {
	t.Run("requests keep the idle deadline fresh", func(t *testing.T) {
		ctx, cancel := testutilctx.WithTest(context.Background(), t)
		defer cancel()
		svr := server.Start(
			ctx, server.ListenLocal(0), ping("pong"),
			server.WithIdleDeadline(150*time.Millisecond),
			server.WithShutdownGrace(0),
			server.Quiet(),
		)

		// five requests 50ms apart outlive the 150ms deadline only if
		// each one resets it.
		for i := 0; i < 5; i++ {
			if resp := get(t, svr, ""); resp.StatusCode != http.StatusOK {
				t.Fatalf("request %d: status = %d, want %d", i, resp.StatusCode, http.StatusOK)
			}
			time.Sleep(50 * time.Millisecond)
		}
		if err, ok := stopError(svr); ok {
			t.Fatalf("server quit while requests were arriving: %+v", err)
		}

		time.Sleep(300 * time.Millisecond) // twice the deadline, no requests

		err, ok := stopError(svr)
		if !ok {
			t.Fatal("server outlived its idle deadline")
		}
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("terminal error: got %+v, want http.ErrServerClosed", err)
		}
	})

	t.Run("an idle server shuts itself down at the deadline", func(t *testing.T) {
		ctx, cancel := testutilctx.WithTest(context.Background(), t)
		defer cancel()
		svr := server.Start(
			ctx, server.ListenLocal(0), ping("pong"),
			server.WithIdleDeadline(100*time.Millisecond),
			server.WithShutdownGrace(0),
			server.Quiet(),
		)
		if err, ok := stopError(svr); ok {
			t.Fatalf("server quit right after starting: %+v", err)
		}

		time.Sleep(200 * time.Millisecond) // twice the deadline

		err, ok := stopError(svr)
		if !ok {
			t.Fatal("server outlived its idle deadline")
		}
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("terminal error: got %+v, want http.ErrServerClosed", err)
		}
	})

	t.Run("cancelling the context stops the server at once", func(t *testing.T) {
		idle := time.Hour // far beyond the test timeout
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		tctx, tcancel := testutilctx.WithTest(ctx, t)
		defer tcancel()
		svr := server.Start(
			tctx, server.ListenLocal(0), ping("pong"),
			server.WithIdleDeadline(idle),
			server.WithShutdownGrace(0),
			server.Quiet(),
		)

		begin := time.Now()
		cancel()
		err := <-svr.Stopped
		elapsed := time.Since(begin)

		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("terminal error: got %+v, want http.ErrServerClosed", err)
		}
		if idle <= elapsed {
			t.Errorf("shutdown waited for the idle deadline (%s)", elapsed)
		}
	})

	t.Run("a zero deadline disables the watchdog", func(t *testing.T) {
		ctx, cancel := testutilctx.WithTest(context.Background(), t)
		defer cancel()
		svr := server.Start(
			ctx, server.ListenLocal(0), ping("pong"),
			server.WithIdleDeadline(0),
			server.WithShutdownGrace(0),
			server.Quiet(),
		)

		time.Sleep(200 * time.Millisecond)

		if resp := get(t, svr, ""); resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if err, ok := stopError(svr); ok {
			t.Errorf("server quit with the watchdog off: %+v", err)
		}
	})

	t.Run("the auth key gates every route", func(t *testing.T) {
		ctx, cancel := testutilctx.WithTest(context.Background(), t)
		defer cancel()
		svr := server.Start(
			ctx, server.ListenLocal(0), ping("pong"),
			server.WithAuthKey("secret"),
			server.WithShutdownGrace(0),
			server.Quiet(),
		)

		resp := get(t, svr, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status without key = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
		}
		message := apierr.ErrorMessage{}
		if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
			t.Fatalf("401 body is not an error message: %+v", err)
		}
		if message.Message == "" || message.StatusCode != http.StatusUnauthorized {
			t.Errorf("unexpected error message: %+v", message)
		}

		if resp := get(t, svr, "secret"); resp.StatusCode != http.StatusOK {
			t.Errorf("status with key = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})
}
