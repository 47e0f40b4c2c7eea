package pose

// EventKind classifies diagnostics emitted during a smoothing run.
type EventKind int

const (
	// EventDegenerateGeometry: leg inference skipped for a frame.
	EventDegenerateGeometry EventKind = iota
	// EventLegInferred: a leg joint was synthesized from torso scale.
	EventLegInferred
	// EventThresholdRelaxed: a joint never reached 0.6 confidence.
	EventThresholdRelaxed
	// EventGapFilled: frames (Frame-Span, Frame) were held at the last value.
	EventGapFilled
	// EventFacialCorrected: a face joint was rebuilt from neighbours.
	EventFacialCorrected
)

func (k EventKind) String() string {
	switch k {
	case EventDegenerateGeometry:
		return "degenerate_geometry"
	case EventLegInferred:
		return "leg_inferred"
	case EventThresholdRelaxed:
		return "threshold_relaxed"
	case EventGapFilled:
		return "gap_filled"
	case EventFacialCorrected:
		return "facial_corrected"
	}
	return "unknown"
}

// Event is a single diagnostic. Frame is the raw frame index.
type Event struct {
	Kind  EventKind
	Frame int
	Joint Joint
	Span  int
	Value float64
}

// Observer receives events synchronously, in processing order.
type Observer func(Event)

// Stats summarizes the events of one run.
type Stats struct {
	DegenerateFrames  int `json:"degenerate_frames" msgpack:"degenerate_frames"`
	LegsInferred      int `json:"legs_inferred" msgpack:"legs_inferred"`
	RelaxedJoints     int `json:"relaxed_joints" msgpack:"relaxed_joints"`
	GapsFilled        int `json:"gaps_filled" msgpack:"gaps_filled"`
	HeldSamples       int `json:"held_samples" msgpack:"held_samples"`
	FacialCorrections int `json:"facial_corrections" msgpack:"facial_corrections"`
}

func (s *Stats) record(e Event) {
	switch e.Kind {
	case EventDegenerateGeometry:
		s.DegenerateFrames++
	case EventLegInferred:
		s.LegsInferred++
	case EventThresholdRelaxed:
		s.RelaxedJoints++
	case EventGapFilled:
		s.GapsFilled++
	case EventFacialCorrected:
		s.FacialCorrections++
	}
}
