package pose

import (
	"cmp"
	"slices"
)

// Record is one ingested detection: a raw frame index and its
// pose_keypoints_2d array. Key names the source (file or object key) and
// only feeds error messages.
type Record struct {
	Index     int
	Keypoints []float64
	Key       string
}

// sequence is the frame arena. Frames are stored densely in ascending index
// order; slots maps an offset (index - start) to its arena position, or -1
// when the index is absent from the input.
type sequence struct {
	start  int
	end    int
	index  []int
	kps    []Keypoints
	coords []Coordinates
	conf   []Confidences
	slots  []int
}

func newSequence(records []Record) (*sequence, error) {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	slices.SortStableFunc(sorted, func(a, b Record) int { return cmp.Compare(a.Index, b.Index) })

	seq := &sequence{
		index: make([]int, len(sorted)),
		kps:   make([]Keypoints, len(sorted)),
	}
	for i, rec := range sorted {
		if rec.Index < 0 {
			return nil, &MissingInputError{Frame: rec.Index, Key: rec.Key, Reason: "negative frame index"}
		}
		if len(rec.Keypoints) != KeypointCount {
			return nil, &MissingInputError{Frame: rec.Index, Key: rec.Key, Reason: "keypoint array has wrong length"}
		}
		if i > 0 && sorted[i-1].Index == rec.Index {
			return nil, &MissingInputError{Frame: rec.Index, Key: rec.Key, Reason: "duplicate frame index"}
		}
		seq.index[i] = rec.Index
		copy(seq.kps[i][:], rec.Keypoints)
	}
	if len(sorted) > 0 {
		seq.start = sorted[0].Index
		seq.end = sorted[len(sorted)-1].Index
	}
	return seq, nil
}

func (s *sequence) len() int { return len(s.kps) }

// span is the number of output rows, absent indices included.
func (s *sequence) span() int { return s.end - s.start + 1 }

// seal splits keypoints into the coordinate and confidence arenas and builds
// the offset-to-slot table. It runs after leg inference.
func (s *sequence) seal() {
	s.coords = make([]Coordinates, len(s.kps))
	s.conf = make([]Confidences, len(s.kps))
	for i := range s.kps {
		s.coords[i], s.conf[i] = s.kps[i].Split()
	}

	s.slots = make([]int, s.span())
	for i := range s.slots {
		s.slots[i] = -1
	}
	for slot, idx := range s.index {
		s.slots[idx-s.start] = slot
	}
}

func (s *sequence) slot(frame int) (int, bool) {
	off := frame - s.start
	if off < 0 || off >= len(s.slots) || s.slots[off] < 0 {
		return 0, false
	}
	return s.slots[off], true
}

// confidence is 0 for absent frames.
func (s *sequence) confidence(frame int, j Joint) float64 {
	slot, ok := s.slot(frame)
	if !ok {
		return 0
	}
	return s.conf[slot][j]
}
