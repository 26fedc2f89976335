// Package steering implements per-agent obstacle avoidance and idle wander for a
// schooling simulation.
//
// Axes are right-handed: +X forward, +Y left, +Z up. Pitch, yaw and roll are
// angular rates in degrees per second, applied in the agent's local frame.
package steering

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Local axes.
var (
	AxisForward = mgl64.Vec3{1, 0, 0}
	AxisLeft    = mgl64.Vec3{0, 1, 0}
	AxisUp      = mgl64.Vec3{0, 0, 1}
)

// clampFloat clamps v between minVal and maxVal.
// minVal wins when the bounds are inverted.
func clampFloat(v, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(v, maxVal))
}

// Forward returns the forward unit vector of an orientation.
func Forward(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(AxisForward)
}

// RotatorQuat builds the quaternion for a pitch/yaw/roll triple in degrees.
// Yaw is applied about +Z, then pitch about the (yawed) lateral axis with
// positive pitch raising the nose, then roll about forward.
func RotatorQuat(pitch, yaw, roll float64) mgl64.Quat {
	qYaw := mgl64.QuatRotate(mgl64.DegToRad(yaw), AxisUp)
	qPitch := mgl64.QuatRotate(mgl64.DegToRad(-pitch), AxisLeft)
	qRoll := mgl64.QuatRotate(mgl64.DegToRad(roll), AxisForward)
	return qYaw.Mul(qPitch).Mul(qRoll)
}

// YawPitchFromVector converts a direction into yaw and pitch in degrees.
// Yaw is measured from +X toward +Y, pitch from the XY plane toward +Z.
// A zero vector yields (0, 0).
func YawPitchFromVector(v mgl64.Vec3) (yaw, pitch float64) {
	if v.X() == 0 && v.Y() == 0 && v.Z() == 0 {
		return 0, 0
	}
	yaw = mgl64.RadToDeg(math.Atan2(v.Y(), v.X()))
	pitch = mgl64.RadToDeg(math.Atan2(v.Z(), math.Hypot(v.X(), v.Y())))
	return yaw, pitch
}

// OrientationFacing returns an orientation whose forward vector points along dir
// with zero roll. A zero dir yields the identity.
func OrientationFacing(dir mgl64.Vec3) mgl64.Quat {
	yaw, pitch := YawPitchFromVector(dir)
	return RotatorQuat(pitch, yaw, 0)
}

// distance returns the Euclidean distance between two points.
func distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}
