package block

// Interpretation selects how channel up/down-mixing maps channels.
type Interpretation int

const (
	// Speakers applies the Web Audio up/down-mix equations for the
	// standard layouts (mono, stereo, quad, 5.1).
	Speakers Interpretation = iota
	// Discrete pads missing channels with silence and sums extras into
	// the lowest channels, with no speaker-layout semantics.
	Discrete
)

const invSqrt2 = 0.70710678118654752440

// Mix converts a block's channel count to target in place, following the
// Web Audio up/down-mix equations under Speakers interpretation, or
// pad/truncate-and-average under Discrete.
func (b *Block) Mix(target int, interp Interpretation) {
	if target == b.channels {
		return
	}
	if b.silence {
		b.setChannels(target)
		return
	}
	switch {
	case interp == Speakers:
		mixSpeakers(b, target)
	default:
		mixDiscrete(b, target)
	}
}

func mixSpeakers(b *Block, target int) {
	switch {
	case b.channels == 1 && target == 2:
		b.samples = upMono(b.samples, [][]float64{{0}, {0}})
	case b.channels == 1 && target == 4:
		b.samples = upMono(b.samples, [][]float64{{0}, {0}, {}, {}})
	case b.channels == 1 && target == 6:
		b.samples = upMonoToFive1(b.samples)
	case b.channels == 2 && target == 4:
		b.samples = upStereoToQuad(b.samples)
	case b.channels == 2 && target == 6:
		b.samples = upStereoToFive1(b.samples)
	case b.channels == 4 && target == 6:
		b.samples = upQuadToFive1(b.samples)
	case b.channels == 2 && target == 1:
		b.samples = downStereoToMono(b.samples)
	case b.channels == 4 && target == 1:
		b.samples = downQuadToMono(b.samples)
	case b.channels == 6 && target == 1:
		b.samples = downFive1ToMono(b.samples)
	case b.channels == 4 && target == 2:
		b.samples = downQuadToStereo(b.samples)
	case b.channels == 6 && target == 2:
		b.samples = downFive1ToStereo(b.samples)
	default:
		mixDiscrete(b, target)
		return
	}
	b.channels = target
}

func upMono(src []float32, dst [][]float64) []float32 {
	n := FramesPerBlock
	out := make([]float32, len(dst)*n)
	for c, from := range dst {
		if len(from) > 0 {
			copy(out[c*n:(c+1)*n], src[0:n])
		}
	}
	return out
}

func upMonoToFive1(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, 6*n)
	// L=R=SL=SR=silence, C=mono, LFE=silence.
	copy(out[2*n:3*n], src[0:n])
	return out
}

func upStereoToQuad(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, 4*n)
	copy(out[0:n], src[0:n])
	copy(out[n:2*n], src[n:2*n])
	return out
}

func upStereoToFive1(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, 6*n)
	copy(out[0:n], src[0:n])
	copy(out[n:2*n], src[n:2*n])
	return out
}

func upQuadToFive1(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, 6*n)
	copy(out[0:n], src[0:n])     // L
	copy(out[n:2*n], src[n:2*n]) // R
	copy(out[4*n:5*n], src[2*n:3*n])
	copy(out[5*n:6*n], src[3*n:4*n])
	return out
}

func downStereoToMono(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = (src[i] + src[n+i]) * 0.5
	}
	return out
}

func downQuadToMono(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = (src[i] + src[n+i] + src[2*n+i] + src[3*n+i]) * 0.25
	}
	return out
}

func downFive1ToMono(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		l, r, c := src[i], src[n+i], src[2*n+i]
		sl, sr := src[4*n+i], src[5*n+i]
		out[i] = float32(invSqrt2)*(l+r) + c + 0.5*(sl+sr)
	}
	return out
}

func downQuadToStereo(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		out[i] = src[i] + src[2*n+i]         // L + SL
		out[n+i] = src[n+i] + src[3*n+i]     // R + SR
	}
	return out
}

func downFive1ToStereo(src []float32) []float32 {
	n := FramesPerBlock
	out := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		l, r, c := src[i], src[n+i], src[2*n+i]
		sl, sr := src[4*n+i], src[5*n+i]
		out[i] = l + float32(invSqrt2)*(c+sl)
		out[n+i] = r + float32(invSqrt2)*(c+sr)
	}
	return out
}

func mixDiscrete(b *Block, target int) {
	n := FramesPerBlock
	out := make([]float32, target*n)
	common := target
	if b.channels < common {
		common = b.channels
	}
	for c := 0; c < common; c++ {
		copy(out[c*n:(c+1)*n], b.samples[c*n:(c+1)*n])
	}
	// Extra source channels beyond target are summed into channel 0
	// (for any target of at least one channel) to avoid silently
	// discarding signal.
	if target > 0 {
		for c := common; c < b.channels; c++ {
			for i := 0; i < n; i++ {
				out[i] += b.samples[c*n+i]
			}
		}
	}
	b.samples = out
	b.channels = target
}
