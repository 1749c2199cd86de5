// Command server wires every Mediascribe component together and serves
// the HTTP/WebSocket API, grounded on the teacher's cmd/server/main.go:
// load config, init logging, init the database, then construct each
// component bottom-up before starting the HTTP server and waiting on a
// signal for graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediascribe/internal/api"
	"mediascribe/internal/config"
	"mediascribe/internal/cost"
	"mediascribe/internal/database"
	"mediascribe/internal/eventbus"
	"mediascribe/internal/gateway"
	"mediascribe/internal/intake"
	"mediascribe/internal/joblog"
	"mediascribe/internal/modeladapter"
	"mediascribe/internal/queue"
	"mediascribe/internal/vad"
	"mediascribe/internal/worker"
	"mediascribe/pkg/logger"

	"github.com/gin-gonic/gin"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediascribe %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	log.Println("mediascribe starting up...")

	cfg := config.Load()

	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Info("starting mediascribe", "version", version, "commit", commit)

	if err := database.Initialize(cfg.DatabasePath); err != nil {
		log.Fatal("failed to initialize database:", err)
	}
	defer database.Close()

	priceBook, err := cost.LoadBook(cfg.PriceBookPath)
	if err != nil {
		log.Fatal("failed to load price book:", err)
	}
	costCalc := cost.New(priceBook)

	vadEngine := vad.New(vad.DefaultConfig())
	adapters := modeladapter.NewDefaultRegistry()
	jobLog := joblog.New(database.DB)
	bus := eventbus.New()
	defer bus.Shutdown()

	w := &worker.Worker{
		JobLog:        jobLog,
		Cost:          costCalc,
		VAD:           vadEngine,
		Adapters:      adapters,
		Bus:           bus,
		ScratchRoot:   cfg.ScratchDir,
		TSplitSeconds: cfg.MaxSplitDurationSeconds,
	}

	q := queue.New(w, jobLog, bus, cfg.QueueWorkers)
	q.Start()
	defer q.Stop()

	in := intake.New(q, costCalc, cfg.ScratchDir, 4)
	gw := gateway.New(q, bus)

	handler := api.NewHandler(cfg, in, jobLog, gw)

	if cfg.Host != "localhost" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Startup("server", "listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
