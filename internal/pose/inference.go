package pose

import (
	"gonum.org/v1/gonum/floats"
)

const (
	// legConfidenceThreshold marks a leg joint as undetected.
	legConfidenceThreshold = 0.1
	// syntheticConfidence is assigned to every synthesized leg joint.
	syntheticConfidence = 0.1
	// clavicleToSpine scales a clavicle into a spine length estimate.
	clavicleToSpine = 4
	// limbToSpine scales the spine into a thigh or shin length.
	limbToSpine = 0.8
)

// Keypoints holds x, y and confidence per joint in joint-major order, the
// layout of OpenPose's pose_keypoints_2d.
type Keypoints [KeypointCount]float64

func (k *Keypoints) X(j Joint) float64          { return k[j*3] }
func (k *Keypoints) Y(j Joint) float64          { return k[j*3+1] }
func (k *Keypoints) Confidence(j Joint) float64 { return k[j*3+2] }

func (k *Keypoints) set(j Joint, x, y, c float64) {
	k[j*3] = x
	k[j*3+1] = y
	k[j*3+2] = c
}

// Split separates coordinates from confidences.
func (k *Keypoints) Split() (Coordinates, Confidences) {
	var xy Coordinates
	var conf Confidences
	for j := Joint(0); j < JointCount; j++ {
		xy.Set(j, k.X(j), k.Y(j))
		conf[j] = k.Confidence(j)
	}
	return xy, conf
}

// legChain lists the joints repaired by InferLegs, parents first.
var legChain = [...]struct {
	joint    Joint
	parent   Joint
	shoulder Joint // hips only
	scale    float64
}{
	{LHip, Neck, LShoulder, 1},
	{LKnee, LHip, -1, limbToSpine},
	{LAnkle, LKnee, -1, limbToSpine},
	{RHip, Neck, RShoulder, 1},
	{RKnee, RHip, -1, limbToSpine},
	{RAnkle, RKnee, -1, limbToSpine},
}

// InferLegs synthesizes undetected hips, knees and ankles from torso scale,
// in place. It returns the joints it rewrote, or ErrDegenerateGeometry (and
// leaves kp untouched) when no spine length can be measured.
func InferLegs(kp *Keypoints) ([]Joint, error) {
	spine := SpineLength(kp)
	if spine == 0 {
		return nil, ErrDegenerateGeometry
	}

	var inferred []Joint
	for _, link := range legChain {
		if kp.Confidence(link.joint) >= legConfidenceThreshold {
			continue
		}
		x := kp.X(link.parent)
		if link.shoulder >= 0 {
			x = (x + kp.X(link.shoulder)) / 2
		}
		kp.set(link.joint, x, kp.Y(link.parent)+spine*link.scale, syntheticConfidence)
		inferred = append(inferred, link.joint)
	}
	return inferred, nil
}

// SpineLength estimates the neck-to-hip distance of a frame. It falls back to
// four clavicle lengths when neither hip was detected and is 0 when the neck
// or every reference joint is missing.
func SpineLength(kp *Keypoints) float64 {
	spine := max(segment(kp, Neck, LHip), segment(kp, Neck, RHip))
	if spine > 0 {
		return spine
	}
	return max(segment(kp, Neck, LShoulder), segment(kp, Neck, RShoulder)) * clavicleToSpine
}

func segment(kp *Keypoints, a, b Joint) float64 {
	if kp.Confidence(a) <= 0 || kp.Confidence(b) <= 0 {
		return 0
	}
	return floats.Distance(
		[]float64{kp.X(a), kp.Y(a)},
		[]float64{kp.X(b), kp.Y(b)},
		2,
	)
}
