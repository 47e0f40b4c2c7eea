package pose

// FacialSource names the joints a low-confidence face joint is rebuilt from:
// x comes from X, y is the mean of Y1 and Y2.
type FacialSource struct {
	Joint Joint
	X     Joint
	Y1    Joint
	Y2    Joint
}

// FacialSources is applied in order, so a rebuilt ear feeds the nose.
var FacialSources = [...]FacialSource{
	{Joint: REar, X: Neck, Y1: LEar, Y2: LEar},
	{Joint: LEar, X: Neck, Y1: REar, Y2: REar},
	{Joint: Nose, X: Neck, Y1: REar, Y2: LEar},
}

func correctFace(out []Coordinates, seq *sequence, thresholds [JointCount]float64, emit func(Event)) {
	for off := range out {
		frame := seq.start + off
		xy := &out[off]
		for _, src := range FacialSources {
			if seq.confidence(frame, src.Joint) >= thresholds[src.Joint] {
				continue
			}
			xy.Set(src.Joint, xy.X(src.X), (xy.Y(src.Y1)+xy.Y(src.Y2))/2)
			emit(Event{Kind: EventFacialCorrected, Frame: frame, Joint: src.Joint})
		}
	}
}
