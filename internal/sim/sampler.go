package sim

import "github.com/san-kum/wavesim/internal/dynamo"

// Sampler copies every stride-th density row, starting at step 1, into
// consecutive frame slots. Slots past the last sampled step stay zero.
type Sampler struct {
	frames *dynamo.Frames
	stride int
	next   int
}

func NewSampler(frames *dynamo.Frames, stride int) *Sampler {
	return &Sampler{frames: frames, stride: stride}
}

// Wants reports whether step lands on a frame.
func (s *Sampler) Wants(step int) bool {
	return step >= 1 && (step-1)%s.stride == 0 && s.next < s.frames.Len()
}

func (s *Sampler) OnRow(step int, row []float64) {
	if !s.Wants(step) {
		return
	}
	copy(s.frames.Row(s.next), row)
	s.frames.Steps[s.next] = step
	s.next++
}

func (s *Sampler) Frames() *dynamo.Frames { return s.frames }

// Sample gathers frames from a retained history.
func Sample(h *dynamo.History, stride int) *dynamo.Frames {
	frames := dynamo.NewFrames(h.Rows/stride+1, h.Cols)
	s := NewSampler(frames, stride)
	for i := 1; i < h.Rows; i++ {
		s.OnRow(i, h.Row(i))
	}
	return frames
}
