package openpose

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-pose-service/internal/pose"
)

var frameIndexPattern = regexp.MustCompile(`\d{12}`)

// Document is the subset of an OpenPose per-frame JSON file the service reads
// and writes.
type Document struct {
	Version float64  `json:"version"`
	People  []Person `json:"people"`
}

type Person struct {
	PersonID        []int     `json:"person_id,omitempty"`
	PoseKeypoints2D []float64 `json:"pose_keypoints_2d"`
}

// IsFrameFile reports whether name looks like an OpenPose keypoint file.
func IsFrameFile(name string) bool {
	return strings.HasSuffix(name, ".json") && frameIndexPattern.MatchString(filepath.Base(name))
}

// FrameIndex extracts the first 12-digit run of the base name.
func FrameIndex(name string) (int, error) {
	digits := frameIndexPattern.FindString(filepath.Base(name))
	if digits == "" {
		return 0, &pose.MissingInputError{Key: name, Reason: "no 12-digit frame index in name"}
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &pose.MissingInputError{Key: name, Reason: "parse frame index", Err: err}
	}
	return idx, nil
}

// ParseFrame decodes one OpenPose file and picks the given person.
func ParseFrame(name string, r io.Reader, person int) (pose.Record, error) {
	idx, err := FrameIndex(name)
	if err != nil {
		return pose.Record{}, err
	}

	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return pose.Record{}, &pose.MissingInputError{Frame: idx, Key: name, Reason: "decode json", Err: err}
	}
	if person < 0 || person >= len(doc.People) {
		return pose.Record{}, &pose.MissingInputError{
			Frame:  idx,
			Key:    name,
			Reason: fmt.Sprintf("person %d not found among %d", person, len(doc.People)),
		}
	}
	kp := doc.People[person].PoseKeypoints2D
	if len(kp) != pose.KeypointCount {
		return pose.Record{}, &pose.MissingInputError{
			Frame:  idx,
			Key:    name,
			Reason: fmt.Sprintf("pose_keypoints_2d has %d values, want %d", len(kp), pose.KeypointCount),
		}
	}
	return pose.Record{Index: idx, Keypoints: kp, Key: name}, nil
}

// LoadDir reads every keypoint file directly under dir in name order. onFile,
// if set, is called once per file read.
func LoadDir(dir string, person int, onFile func(name string)) ([]pose.Record, error) {
	names, err := ListDir(dir)
	if err != nil {
		return nil, err
	}

	records := make([]pose.Record, 0, len(names))
	for _, name := range names {
		rec, err := loadFile(filepath.Join(dir, name), person)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		if onFile != nil {
			onFile(name)
		}
	}
	return records, nil
}

// ListDir returns the keypoint file names directly under dir, sorted.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsFrameFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func loadFile(path string, person int) (pose.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return pose.Record{}, &pose.MissingInputError{Key: path, Reason: "open file", Err: err}
	}
	defer f.Close()
	return ParseFrame(path, f, person)
}

// FrameName builds the export file name of a smoothed frame.
func FrameName(prefix string, frame int) string {
	return fmt.Sprintf("%s_%012d_keypoints.json", prefix, frame)
}

// EncodeFrame writes smoothed coordinates as a single-person OpenPose
// document. Confidence is 1 for every joint.
func EncodeFrame(w io.Writer, xy pose.Coordinates) error {
	kp := make([]float64, 0, pose.KeypointCount)
	for j := pose.Joint(0); j < pose.JointCount; j++ {
		kp = append(kp, xy.X(j), xy.Y(j), 1)
	}
	doc := Document{
		Version: 1.3,
		People:  []Person{{PersonID: []int{-1}, PoseKeypoints2D: kp}},
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}
