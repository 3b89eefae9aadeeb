// Command pulso-producer publishes a synthetic fingertip brightness trace to
// NATS, standing in for a phone camera.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/synth"
	"github.com/RyanBlaney/pulso/transport"
)

func main() {
	var (
		natsURL = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		subject = flag.String("subject", "pulso.samples", "sample subject")
		fs      = flag.Float64("fs", 30, "frames per second")
		hr      = flag.Float64("hr", 72, "heart rate bpm")
		noise   = flag.Float64("noise", 0.2, "noise standard deviation")
		batch   = flag.Int("batch", 10, "samples per message")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "noise seed")
	)
	flag.Parse()

	logger := logging.WithFields(logging.Fields{"component": "producer"})

	if *fs <= 0 || *batch <= 0 {
		logger.Fatal(nil, "fs and batch must be positive", logging.Fields{"fs": *fs, "batch": *batch})
	}

	nc, err := transport.Connect(*natsURL, "pulso-producer")
	if err != nil {
		logger.Fatal(err, "Failed to connect")
	}
	defer nc.Drain()

	params := synth.DefaultParams()
	params.SampleRate = *fs
	params.HeartRate = *hr
	params.Noise = *noise
	params.Seed = *seed
	sim := synth.NewPPGSim(params)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / *fs))
	defer ticker.Stop()

	logger.Info("Producing samples", logging.Fields{
		"subject": *subject,
		"fs":      *fs,
		"hr":      *hr,
		"batch":   *batch,
	})

	buffer := make([]float64, 0, *batch)
	published := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping", logging.Fields{"published": published})
			return

		case <-ticker.C:
			buffer = append(buffer, sim.Next())
			if len(buffer) < *batch {
				continue
			}

			if err := nc.Publish(*subject, transport.EncodeSamples(buffer)); err != nil {
				logger.Error(err, "Publish failed")
			} else {
				published += len(buffer)
			}
			buffer = buffer[:0]
		}
	}
}
