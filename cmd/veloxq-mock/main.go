// veloxq-mock is an in-memory stand-in for the VeloxQ platform API.
//
// It serves the whole wire surface the client speaks: problems, file
// uploads and downloads, job submission and polling, logs and result
// containers. Submitted jobs run through their lifecycle on timers and
// complete with a result synthesized from the uploaded instance, so
// clients can be exercised end to end without the real backends.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/veloxq/veloxq-go/cmd/veloxq-mock/server"
	"github.com/veloxq/veloxq-go/cmd/veloxq-mock/store"
)

func main() {
	var (
		port     = flag.Int("port", 8080, "port number where the mock serves on")
		deadline = flag.Int("deadline", 0, "idle deadline (in seconds) after which the mock stops itself. 0 = run until interrupted")
		step     = flag.Duration("step", store.DefaultStep, "delay between simulated job status transitions")
		authKey  = flag.String("auth-key", "", "api key to require on every request. empty = no auth check")
	)
	flag.Parse()

	logger := log.Default()

	st := store.New(store.WithStep(*step))
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	idle := time.Duration(*deadline) * time.Second
	svr := server.Start(
		ctx,
		server.ListenAll(*port), server.Handlers(st),
		server.WithIdleDeadline(idle),
		server.WithAuthKey(*authKey),
	)
	logger.Printf(
		"veloxq-mock listening on port %d (step = %s, idle deadline = %s)",
		*port, *step, idle,
	)

	select {
	case <-ctx.Done():
		logger.Println("interrupted. shutting down")
	case err := <-svr.Stopped:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %+v", err)
		}
		logger.Println("server stopped")
	}
}
