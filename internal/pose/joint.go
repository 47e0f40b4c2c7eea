package pose

// Joint is one of the 18 landmarks of the OpenPose COCO body layout.
type Joint int

const (
	Nose Joint = iota
	Neck
	RShoulder
	RElbow
	RWrist
	LShoulder
	LElbow
	LWrist
	RHip
	RKnee
	RAnkle
	LHip
	LKnee
	LAnkle
	REye
	LEye
	REar
	LEar
)

const (
	// JointCount is the number of joints in the layout.
	JointCount = 18
	// CoordinateCount is the length of an x,y array (joint-major).
	CoordinateCount = JointCount * 2
	// KeypointCount is the length of an x,y,confidence array (joint-major).
	KeypointCount = JointCount * 3
)

var jointNames = [JointCount]string{
	"Nose", "Neck",
	"RShoulder", "RElbow", "RWrist",
	"LShoulder", "LElbow", "LWrist",
	"RHip", "RKnee", "RAnkle",
	"LHip", "LKnee", "LAnkle",
	"REye", "LEye", "REar", "LEar",
}

func (j Joint) String() string {
	if j < 0 || int(j) >= JointCount {
		return "Unknown"
	}
	return jointNames[j]
}

// Coordinates holds x,y per joint in joint-major order.
type Coordinates [CoordinateCount]float64

func (c *Coordinates) X(j Joint) float64 { return c[j*2] }
func (c *Coordinates) Y(j Joint) float64 { return c[j*2+1] }

func (c *Coordinates) Set(j Joint, x, y float64) {
	c[j*2] = x
	c[j*2+1] = y
}

// Confidences holds one detector confidence per joint.
type Confidences [JointCount]float64
