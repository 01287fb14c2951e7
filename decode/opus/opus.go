// Package opus implements the Opus Decoder backend (§11, grounded on
// client/audio.go's opusDecoder interface and playbackLoop's
// Decode-then-scale-to-float32 pattern): it turns a stream of
// length-prefixed Opus packets into mono PCM float32 chunks.
package opus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	hraban "gopkg.in/hraban/opus.v2"
)

// maxFrameSamples bounds one decoded Opus frame at 48kHz/120ms, the
// largest frame size the format allows.
const maxFrameSamples = 5760

// Decoder wraps a single Opus decode session. Not safe for concurrent
// Decode calls; Opus decoder state is sequential by design (it tracks
// inter-frame history for packet-loss concealment).
type Decoder struct {
	dec *hraban.Decoder
}

// New returns a Decoder for the given sample rate and channel count.
func New(sampleRate, channels int) (*Decoder, error) {
	dec, err := hraban.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus: new decoder: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// Decode treats data as a sequence of uint16-length-prefixed Opus
// packets and decodes each in turn, emitting one mono PCM chunk per
// packet on samples scaled from int16 to [-1.0, 1.0] float32. done
// receives nil once data is exhausted, or the first decode error.
func (d *Decoder) Decode(data []byte) (<-chan [][]float32, <-chan error) {
	samples := make(chan [][]float32)
	done := make(chan error, 1)

	go func() {
		defer close(samples)

		r := bytes.NewReader(data)
		pcm := make([]int16, maxFrameSamples)
		for {
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				if err == io.EOF {
					done <- nil
				} else {
					done <- fmt.Errorf("opus: read packet length: %w", err)
				}
				return
			}
			packet := make([]byte, length)
			if _, err := io.ReadFull(r, packet); err != nil {
				done <- fmt.Errorf("opus: read packet: %w", err)
				return
			}

			n, err := d.dec.Decode(packet, pcm)
			if err != nil {
				done <- fmt.Errorf("opus: decode: %w", err)
				return
			}

			chunk := make([]float32, n)
			for i := 0; i < n; i++ {
				chunk[i] = float32(pcm[i]) / 32768.0
			}
			samples <- [][]float32{chunk}
		}
	}()

	return samples, done
}
