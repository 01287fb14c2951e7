// Command audiograph-demo builds a small audio graph and renders it
// through a PortAudio sink, demonstrating the core's client-facing API.
// Flag-based CLI modeled on server/main.go's flag.String/flag.Parse
// convention.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/bken-audio/graph/internal/config"
	"github.com/bken-audio/graph/internal/graph"
	"github.com/bken-audio/graph/internal/node"
	"github.com/bken-audio/graph/internal/param"
	"github.com/bken-audio/graph/internal/render"
	"github.com/bken-audio/graph/sink/null"
	"github.com/bken-audio/graph/sink/portaudio"
)

func main() {
	freq := flag.Float64("freq", 440, "oscillator frequency in Hz")
	gainLevel := flag.Float64("gain", 0.3, "output gain, 0.0-1.0")
	duration := flag.Duration("duration", 3*time.Second, "how long to play")
	deviceID := flag.Int("device", -1, "PortAudio output device index (-1 for default)")
	dryRun := flag.Bool("dry-run", false, "render without opening a real audio device")
	flag.Parse()

	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	g := graph.New()

	var sink render.Sink
	if *dryRun {
		sink = null.New()
	} else {
		sink = portaudio.New(*deviceID, logger)
	}

	r := render.New(g, sink, cfg.SampleRate, cfg.DestChannels, cfg.CommandBuffer, logger)
	go r.Run()
	defer r.Close()

	osc := node.NewOscillator(node.Sine, float32(*freq))
	osc.Start(0, cfg.SampleRate)
	oscID := r.CreateNode(osc)

	gainID := r.CreateNode(node.NewGain(float32(*gainLevel)))
	destID := r.CreateNode(node.NewDestination(cfg.DestChannels))

	if err := r.Connect(graph.Port{Node: oscID, Index: 0}, graph.Port{Node: gainID, Index: 0}); err != nil {
		log.Fatalf("[audiograph-demo] connect osc->gain: %v", err)
	}
	if err := r.Connect(graph.Port{Node: gainID, Index: 0}, graph.Port{Node: destID, Index: 0}); err != nil {
		log.Fatalf("[audiograph-demo] connect gain->destination: %v", err)
	}

	if err := r.Resume(); err != nil {
		log.Fatalf("[audiograph-demo] resume: %v", err)
	}
	log.Printf("[audiograph-demo] playing %gHz tone at gain %g for %s", *freq, *gainLevel, *duration)

	time.Sleep(*duration)

	r.MessageNode(gainID, node.GainMessage{Gain: param.NewLinearRamp(0, r.CurrentTime()+0.2)})
	time.Sleep(200 * time.Millisecond)
}
