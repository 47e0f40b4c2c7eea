package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keypointsOf(raw []float64) *Keypoints {
	var kp Keypoints
	copy(kp[:], raw)
	return &kp
}

func TestInferLegsDegenerate(t *testing.T) {
	raw := bodyKeypoints(0.9)
	for _, j := range []Joint{Neck, LHip, RHip, LShoulder, RShoulder} {
		setJoint(raw, j, 1, 1, 0)
	}
	for _, j := range []Joint{LKnee, LAnkle, RKnee, RAnkle} {
		setJoint(raw, j, 0, 0, 0)
	}
	kp := keypointsOf(raw)
	before := *kp

	inferred, err := InferLegs(kp)

	require.ErrorIs(t, err, ErrDegenerateGeometry)
	assert.Empty(t, inferred)
	assert.Equal(t, before, *kp)
}

func TestInferLegsFromSpine(t *testing.T) {
	raw := make([]float64, KeypointCount)
	setJoint(raw, Neck, 100, 100, 1)
	setJoint(raw, RShoulder, 80, 100, 1)
	setJoint(raw, LShoulder, 120, 100, 1)
	setJoint(raw, LHip, 100, 200, 0.8)
	setJoint(raw, LKnee, 0, 0, 0.05)
	kp := keypointsOf(raw)

	inferred, err := InferLegs(kp)
	require.NoError(t, err)

	assert.Equal(t, []Joint{LKnee, LAnkle, RHip, RKnee, RAnkle}, inferred)

	tests := []struct {
		joint Joint
		x, y  float64
	}{
		{LHip, 100, 200},
		{LKnee, 100, 280},
		{LAnkle, 100, 360},
		{RHip, 90, 200},
		{RKnee, 90, 280},
		{RAnkle, 90, 360},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.x, kp.X(tt.joint), 1e-9, tt.joint.String())
		assert.InDelta(t, tt.y, kp.Y(tt.joint), 1e-9, tt.joint.String())
	}
	assert.Equal(t, 0.8, kp.Confidence(LHip))
	for _, j := range inferred {
		assert.Equal(t, syntheticConfidence, kp.Confidence(j))
	}
}

func TestSpineLength(t *testing.T) {
	tests := []struct {
		name string
		set  func([]float64)
		want float64
	}{
		{
			name: "longer hip wins",
			set: func(kp []float64) {
				setJoint(kp, Neck, 0, 0, 1)
				setJoint(kp, LHip, 0, 30, 1)
				setJoint(kp, RHip, 40, 0, 1)
			},
			want: 40,
		},
		{
			name: "clavicle fallback",
			set: func(kp []float64) {
				setJoint(kp, Neck, 0, 0, 1)
				setJoint(kp, LShoulder, 3, 4, 1)
				setJoint(kp, RShoulder, -2, 0, 1)
			},
			want: 20,
		},
		{
			name: "neck missing",
			set: func(kp []float64) {
				setJoint(kp, Neck, 0, 0, 0)
				setJoint(kp, LHip, 0, 30, 1)
				setJoint(kp, LShoulder, 3, 4, 1)
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := make([]float64, KeypointCount)
			tt.set(raw)
			assert.InDelta(t, tt.want, SpineLength(keypointsOf(raw)), 1e-9)
		})
	}
}

func TestThresholds(t *testing.T) {
	conf := make([]Confidences, 3)
	conf[0][Nose], conf[1][Nose], conf[2][Nose] = 0.2, 0.9, 0.1
	conf[0][Neck], conf[1][Neck] = 0.5, 0.3
	conf[2][RHip] = 0.6

	th := Thresholds(conf)

	assert.Equal(t, 0.3, th[Nose])
	assert.Equal(t, 0.25, th[Neck])
	assert.Equal(t, 0.3, th[RHip])
	assert.Equal(t, 0.0, th[LEar])
	for j, v := range th {
		assert.LessOrEqual(t, v, defaultThreshold, Joint(j).String())
	}
}

func TestPadOddLeavesOddListsAlone(t *testing.T) {
	values := []float64{3, 1, 2}
	got := padOdd(values)

	assert.Equal(t, []float64{3, 1, 2}, got)
	assert.Len(t, got, 3)
	assert.Empty(t, padOdd(nil))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{[]float64{5}, 5},
		{[]float64{9, 1, 5}, 5},
		{[]float64{1, 2, 3, 10}, 3},
		{[]float64{10, 20}, 15},
		{[]float64{7, 7, 7, 7, 7, 7}, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, median(append([]float64(nil), tt.values...)), "%v", tt.values)
	}
}

func TestFacialSourcesTakeXFromNeck(t *testing.T) {
	want := map[Joint][3]Joint{
		REar: {Neck, LEar, LEar},
		LEar: {Neck, REar, REar},
		Nose: {Neck, REar, LEar},
	}
	require.Len(t, FacialSources, len(want))
	for _, src := range FacialSources {
		assert.Equal(t, want[src.Joint], [3]Joint{src.X, src.Y1, src.Y2}, src.Joint.String())
	}
	assert.Equal(t, REar, FacialSources[0].Joint)
	assert.Equal(t, Nose, FacialSources[2].Joint)
}

func TestJointString(t *testing.T) {
	assert.Equal(t, "LHip", LHip.String())
	assert.Equal(t, "LEar", LEar.String())
	assert.Equal(t, "Unknown", Joint(JointCount).String())
}
