// Package clip constructs canonical cutting planes from user-facing
// slider and gizmo descriptions.
//
// Both constructors are pure and allocation-free beyond the returned
// value: they run on every frame of slider or gizmo interaction, and the
// resulting plane is handed to the foreign decoder module's cutting
// routine unchanged.
package clip

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// Dot returns the dot product of v and u.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Cross returns the cross product of v and u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return Vec3{
		X: v.Y*u.Z - v.Z*u.Y,
		Y: v.Z*u.X - v.X*u.Z,
		Z: v.X*u.Y - v.Y*u.X,
	}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns v + u.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Quaternion represents a rotational orientation.
type Quaternion struct {
	X, Y, Z, W float64
}

// Rotate applies the rotation to v. The quaternion is normalized first so
// gizmo input drifting slightly off unit length cannot skew the plane.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	norm := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if norm == 0 {
		return v
	}
	x, y, z, w := q.X/norm, q.Y/norm, q.Z/norm, q.W/norm

	// v' = v + 2w(u x v) + 2(u x (u x v)), u = (x,y,z)
	u := Vec3{X: x, Y: y, Z: z}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Scale(2 * w)).Add(uuv.Scale(2))
}

// Plane is a canonical cutting plane: the set of points p with
// Dot(Normal, p) == Distance. Geometry on the positive side of the normal
// is kept by the cutting routine.
type Plane struct {
	// Normal is the unit plane normal.
	Normal Vec3 `json:"normal"`

	// Distance is the signed distance of the plane from the origin along
	// the normal.
	Distance float64 `json:"distance"`
}

// Axis names one bounding-box axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// BBox is the axis-aligned bounding box the axis slider sweeps through.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Center returns the midpoint of the box.
func (b BBox) Center() Vec3 {
	return Vec3{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Diagonal returns the length of the box diagonal.
func (b BBox) Diagonal() float64 {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	dz := b.Max.Z - b.Min.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// AxisPlane maps a percentage along one bounding-box axis to a signed
// plane. positionFraction is in [0,100]: 0 sits at the axis minimum, 100
// at the maximum. flip reverses which side of the plane is kept.
func AxisPlane(axis Axis, positionFraction float64, bbox BBox, flip bool) Plane {
	var normal Vec3
	var lo, hi float64
	switch axis {
	case AxisX:
		normal = Vec3{X: 1}
		lo, hi = bbox.Min.X, bbox.Max.X
	case AxisY:
		normal = Vec3{Y: 1}
		lo, hi = bbox.Min.Y, bbox.Max.Y
	default:
		normal = Vec3{Z: 1}
		lo, hi = bbox.Min.Z, bbox.Max.Z
	}

	position := lo + positionFraction/100*(hi-lo)
	if flip {
		return Plane{Normal: normal.Neg(), Distance: -position}
	}
	return Plane{Normal: normal, Distance: position}
}

// freePlaneBasis is the canonical normal the gizmo quaternion rotates.
var freePlaneBasis = Vec3{Z: 1}

// FreePlane rotates the canonical axis normal by the quaternion, then
// offsets the plane along that normal by (positionFraction/100 - 0.5) x
// diagonal from the bounding-box center.
func FreePlane(q Quaternion, positionFraction float64, bboxCenter Vec3, bboxDiagonal float64, flip bool) Plane {
	normal := q.Rotate(freePlaneBasis)
	offset := (positionFraction/100 - 0.5) * bboxDiagonal
	point := bboxCenter.Add(normal.Scale(offset))

	if flip {
		normal = normal.Neg()
	}
	return Plane{Normal: normal, Distance: normal.Dot(point)}
}
