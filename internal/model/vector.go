package model

import "fmt"

// VectorSize is the exact wire size of a Vector3D: three big-endian int64 fields.
const VectorSize = 24

// Vector3D is a fixed-width binary record decoded from a raw request body.
// It is built once per request and never mutated afterwards.
type Vector3D struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

// String renders the vector as "x, y, z".
func (v Vector3D) String() string {
	return fmt.Sprintf("%d, %d, %d", v.X, v.Y, v.Z)
}
