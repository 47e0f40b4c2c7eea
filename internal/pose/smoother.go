package pose

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// smoother runs the confidence-gated median filter and the gap back-filler
// in one ascending pass over [start, end].
type smoother struct {
	seq        *sequence
	thresholds [JointCount]float64
	halfWindow int
	emit       func(Event)

	held int
}

func (s *smoother) run() []Coordinates {
	seq := s.seq
	out := make([]Coordinates, seq.span())

	// last frame holding a direct median, per joint
	var last [JointCount]int
	for j := range last {
		last[j] = seq.start - 1
	}

	xs := make([]float64, 0, 2*s.halfWindow+2)
	ys := make([]float64, 0, 2*s.halfWindow+2)

	for f := seq.start; f <= seq.end; f++ {
		off := f - seq.start
		half := min(s.halfWindow, f-seq.start, seq.end-f)

		for j := Joint(0); j < JointCount; j++ {
			xs, ys = s.collect(xs[:0], ys[:0], j, f-half, f+half)

			if len(xs) == 0 {
				if off > 0 {
					out[off].Set(j, out[off-1].X(j), out[off-1].Y(j))
				}
				s.held++
				continue
			}

			x, y := median(xs), median(ys)

			if last[j] != f-1 {
				hx, hy := x, y
				if last[j] >= seq.start {
					prev := &out[last[j]-seq.start]
					hx, hy = prev.X(j), prev.Y(j)
				}
				for g := last[j] + 1; g < f; g++ {
					out[g-seq.start].Set(j, hx, hy)
				}
				s.emit(Event{Kind: EventGapFilled, Frame: f, Joint: j, Span: f - last[j] - 1, Value: hx})
			}
			last[j] = f

			out[off].Set(j, x, y)
		}
	}
	return out
}

// collect appends the x and y of every frame in [from, to] whose confidence
// for j passes the joint threshold.
func (s *smoother) collect(xs, ys []float64, j Joint, from, to int) ([]float64, []float64) {
	for n := from; n <= to; n++ {
		slot, ok := s.seq.slot(n)
		if !ok || !qualifies(s.seq.conf[slot][j], s.thresholds[j]) {
			continue
		}
		xs = append(xs, s.seq.coords[slot].X(j))
		ys = append(ys, s.seq.coords[slot].Y(j))
	}
	return xs, ys
}

// padOdd appends the mean to a non-empty even-length list so that its median
// is a single element. Odd-length lists are returned as is.
func padOdd(values []float64) []float64 {
	if len(values) == 0 || len(values)%2 == 1 {
		return values
	}
	return append(values, stat.Mean(values, nil))
}

// median sorts values in place after padding them to odd length.
func median(values []float64) float64 {
	values = padOdd(values)
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil)
}
