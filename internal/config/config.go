// Package config holds the in-memory defaults a graph and its render
// thread are constructed with: default sample rate, default destination
// channel count and command-channel buffer size. Modeled on the teacher's client/internal/config
// package shape (typed struct, Default() constructor) but without its
// JSON-file persistence — §6 states "Persistent state: none", so the
// load/save-to-disk half of that package has no home here (see DESIGN.md).
package config

import "github.com/bken-audio/graph/internal/block"

// Config is the set of defaults a new graph/render thread is constructed
// with.
type Config struct {
	SampleRate    float32
	DestChannels  int
	CommandBuffer int // size of the render thread's control-message channel
}

// Default returns the core's standard configuration: 44100Hz, stereo
// destination, a command channel buffered to 16 messages.
func Default() Config {
	return Config{
		SampleRate:    block.DefaultSampleRate,
		DestChannels:  2,
		CommandBuffer: 16,
	}
}
