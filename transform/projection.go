package transform

// CameraProjection bundles the camera math the unprojection kernel runs per
// pixel: the pinhole inverse into camera space, then the rigid transform into
// the output frame. It is built once per operation and copied by value into
// worker closures; both methods are allocation-free.
type CameraProjection struct {
	fx, fy   float64
	ppx, ppy float64
	r        [3][3]float64
	t        [3]float64
}

// NewCameraProjection composes intrinsics with a camera-to-output-frame pose.
// The pose is applied as-is; callers that hold a world-to-camera extrinsic
// invert it first.
func NewCameraProjection(intrinsics *PinholeCameraIntrinsics, camToWorld *Extrinsics) CameraProjection {
	return CameraProjection{
		fx:  intrinsics.Fx,
		fy:  intrinsics.Fy,
		ppx: intrinsics.Ppx,
		ppy: intrinsics.Ppy,
		r:   camToWorld.Rotation(),
		t:   camToWorld.Translation(),
	}
}

// Unproject maps pixel (u, v) at depth d (in output units, typically meters)
// to a camera-space point.
func (p CameraProjection) Unproject(u, v, d float64) (float64, float64, float64) {
	return (u - p.ppx) * d / p.fx, (v - p.ppy) * d / p.fy, d
}

// RigidTransform maps a camera-space point into the output frame.
func (p CameraProjection) RigidTransform(x, y, z float64) (float64, float64, float64) {
	return p.r[0][0]*x + p.r[0][1]*y + p.r[0][2]*z + p.t[0],
		p.r[1][0]*x + p.r[1][1]*y + p.r[1][2]*z + p.t[1],
		p.r[2][0]*x + p.r[2][1]*y + p.r[2][2]*z + p.t[2]
}
