// Command pulso measures heart rate from brightness samples received over
// NATS and publishes each session's estimates to NATS, MQTT and WebSocket
// clients.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/service"
	"github.com/RyanBlaney/pulso/session"
	"github.com/RyanBlaney/pulso/transport"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file, defaults are used when empty")
		addr       = flag.String("addr", "", "HTTP address, overrides http.addr")
		logLevel   = flag.String("log-level", "", "log level, overrides log_level")
		noColor    = flag.Bool("no-color", false, "disable colored log output")
	)
	flag.Parse()

	cfg := service.Default()
	if *configPath != "" {
		loaded, err := service.Load(*configPath)
		if err != nil {
			logging.Fatal(err, "Failed to load config", logging.Fields{"path": *configPath})
		}
		cfg = *loaded
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		logging.Fatal(err, "Invalid log level")
	}
	logging.SetLevel(level)
	if *noColor {
		logging.DisableColors()
	}

	if err := run(cfg); err != nil {
		logging.Fatal(err, "pulso stopped")
	}
}

func run(cfg service.Config) error {
	logger := logging.WithFields(logging.Fields{"component": "pulso"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := transport.Connect(cfg.NATS.URL, cfg.NATS.Name)
	if err != nil {
		return err
	}
	defer nc.Drain()

	var sinks []session.Sink
	if cfg.NATS.UpdatesSubject != "" {
		sinks = append(sinks, transport.NewNATSSink(nc, cfg.NATS.UpdatesSubject))
	}

	if cfg.MQTT.Enabled {
		mq := transport.NewMQTTSink(cfg.MQTT.MQTTConfig)
		if err := mq.Connect(ctx); err != nil {
			return err
		}
		defer mq.Disconnect()
		sinks = append(sinks, mq)
	}

	var hub *transport.Hub
	if cfg.HTTP.Addr != "" {
		hub = transport.NewHub()
		sinks = append(sinks, hub)
	}

	sink := session.NewMultiSink(sinks...)
	svc := service.New(cfg, sink)

	var server *http.Server
	if hub != nil {
		server = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           svc.Handler(hub),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", logging.Fields{"addr": cfg.HTTP.Addr})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(err, "HTTP server failed")
				stop()
			}
		}()
	}

	samples, err := transport.NewNATSSource(nc, cfg.NATS.SamplesSubject).Samples(ctx, 256)
	if err != nil {
		return err
	}

	logger.Info("pulso running", logging.Fields{
		"samples_subject": cfg.NATS.SamplesSubject,
		"sinks":           sink.Len(),
		"sample_rate":     cfg.Estimator.SampleRate,
		"duration":        cfg.Session.Duration.String(),
	})

	runErr := svc.Run(ctx, samples)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "HTTP shutdown failed")
		}
	}

	logger.Info("pulso stopped", logging.Fields{"sessions": svc.Completed()})
	return runErr
}
