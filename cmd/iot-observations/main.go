package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/iot-observations/internal/app/api"
	app "github.com/diwise/iot-observations/internal/app/observations"

	"github.com/diwise/iot-observations/internal/pkg/storage"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
)

const serviceName string = "iot-observations"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, log, cleanup := o11y.Init(ctx, serviceName, serviceVersion, "json")
	defer cleanup()

	var opa, cfgFile, seedFile string

	flag.StringVar(&opa, "policies", "/opt/diwise/config/authz.rego", "An authorization policy file")
	flag.StringVar(&cfgFile, "config", "/opt/diwise/config/observations.yaml", "Engine configuration (partitioning, retention, batch limits)")
	flag.StringVar(&seedFile, "seed", "/opt/diwise/config/seed.csv", "A file with entities to seed on startup")
	flag.Parse()

	cfg := loadEngineConfig(ctx, cfgFile)

	s, err := storage.New(ctx, storage.LoadConfiguration(ctx, cfg))
	if err != nil {
		log.Error("could not configure storage", "err", err.Error())
		os.Exit(1)
	}

	a := app.New(s, s, cfg)

	r, err := newRouter(ctx, opa, a)
	if err != nil {
		log.Error("could not setup router", "err", err.Error())
		os.Exit(1)
	}

	err = seed(ctx, seedFile, a)
	if err != nil {
		log.Error("seed file found but could not seed data", "err", err.Error())
		os.Exit(1)
	}

	config := messaging.LoadConfiguration(ctx, serviceName, log)
	messenger, err := messaging.Initialize(ctx, config)
	if err != nil {
		log.Error("failed to init messenger")
		os.Exit(1)
	}
	messenger.Start()
	messenger.RegisterTopicMessageHandler("message.accepted", app.NewMeasurementsHandler(a, messenger))

	go s.RunPartitionMaintenance(ctx)
	go s.RunExtentRefresh(ctx)
	go s.RunRetention(ctx)

	webServer := &http.Server{Addr: ":8080", Handler: r}

	go func() {
		if err := webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("could not listen and serve", "err", err.Error())
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	webServer.Shutdown(ctx)
	messenger.Close()
	s.Close()
}

func loadEngineConfig(ctx context.Context, fp string) *app.Config {
	log := logging.GetFromContext(ctx)

	f, err := os.Open(fp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no engine configuration found, using defaults", "path", fp)
			return app.DefaultConfig()
		}
		log.Error("could not open engine configuration", "path", fp, "err", err.Error())
		os.Exit(1)
	}
	defer f.Close()

	cfg, err := app.LoadConfig(f)
	if err != nil {
		log.Error("could not parse engine configuration", "path", fp, "err", err.Error())
		os.Exit(1)
	}

	return cfg
}

func newRouter(ctx context.Context, opa string, a app.App) (*chi.Mux, error) {
	policies, err := os.Open(opa)
	if err != nil {
		return nil, fmt.Errorf("unable to open opa policy file: %s", err.Error())
	}
	defer policies.Close()

	return api.Register(ctx, a, policies)
}

func seed(ctx context.Context, fp string, a app.App) error {
	log := logging.GetFromContext(ctx)

	f, err := os.Open(fp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no seed file found", "path", fp)
			return nil
		}
		return err
	}
	defer f.Close()

	return a.Seed(ctx, f)
}
