// Package pose turns noisy per-frame OpenPose detections into a temporally
// consistent 2D keypoint sequence: undetected legs are inferred from torso
// scale, each joint is median filtered over a confidence-gated window, gaps
// are held flat and low-confidence face joints are rebuilt from the neck and
// ears.
package pose

import (
	"fmt"
)

const (
	// MinFrames is the shortest multi-frame sequence Smooth accepts.
	MinFrames = 9
	// DefaultWindowSize is the median window width in frames.
	DefaultWindowSize = 7
)

type Options struct {
	// WindowSize is the odd median window width; the window is clipped at
	// both ends of the sequence.
	WindowSize int
	// InferLegs enables leg inference on ingest.
	InferLegs bool
	// Observer, when set, receives every diagnostic event.
	Observer Observer
}

func DefaultOptions() Options {
	return Options{
		WindowSize: DefaultWindowSize,
		InferLegs:  true,
	}
}

func (o Options) validate() error {
	if o.WindowSize < 1 || o.WindowSize%2 == 0 {
		return fmt.Errorf("window size must be a positive odd number, got %d", o.WindowSize)
	}
	return nil
}

// Result is the output handed to the lifting stage. Frames[i] is frame
// StartFrame+i. When Smoothed is false the input had a single frame and
// Frames holds its raw (possibly leg-repaired) coordinates.
type Result struct {
	StartFrame int                 `json:"start_frame" msgpack:"start_frame"`
	Smoothed   bool                `json:"smoothed" msgpack:"smoothed"`
	Frames     []Coordinates       `json:"frames" msgpack:"frames"`
	Thresholds [JointCount]float64 `json:"thresholds" msgpack:"thresholds"`
	Stats      Stats               `json:"stats" msgpack:"stats"`
}

// EndFrame is the raw index of the last output frame.
func (r *Result) EndFrame() int { return r.StartFrame + len(r.Frames) - 1 }

// Smooth runs the full pipeline over records, which may arrive in any
// order. It fails with *MissingInputError or *InsufficientFramesError and
// never returns a partial result.
func Smooth(records []Record, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seq, err := newSequence(records)
	if err != nil {
		return nil, err
	}
	if n := seq.len(); n != 1 && n < MinFrames {
		return nil, &InsufficientFramesError{Count: n, Min: MinFrames}
	}

	res := &Result{StartFrame: seq.start}
	emit := func(e Event) {
		res.Stats.record(e)
		if opts.Observer != nil {
			opts.Observer(e)
		}
	}

	if opts.InferLegs {
		for i := range seq.kps {
			inferred, err := InferLegs(&seq.kps[i])
			if err != nil {
				emit(Event{Kind: EventDegenerateGeometry, Frame: seq.index[i]})
				continue
			}
			for _, j := range inferred {
				emit(Event{Kind: EventLegInferred, Frame: seq.index[i], Joint: j})
			}
		}
	}
	seq.seal()

	if seq.len() == 1 {
		res.Frames = []Coordinates{seq.coords[0]}
		res.Thresholds = Thresholds(seq.conf)
		return res, nil
	}

	res.Thresholds = Thresholds(seq.conf)
	for j, th := range res.Thresholds {
		if th != defaultThreshold {
			emit(Event{Kind: EventThresholdRelaxed, Frame: seq.start, Joint: Joint(j), Value: th})
		}
	}

	sm := &smoother{
		seq:        seq,
		thresholds: res.Thresholds,
		halfWindow: (opts.WindowSize - 1) / 2,
		emit:       emit,
	}
	res.Frames = sm.run()
	res.Stats.HeldSamples = sm.held

	correctFace(res.Frames, seq, res.Thresholds, emit)

	res.Smoothed = true
	return res, nil
}
