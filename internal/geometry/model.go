// Package geometry derives the camera's geometric projection model from the
// applied capture geometry. A CameraModel maps binned pixel coordinates to
// 3D viewing rays; it is immutable and must be re-derived whenever ROI or
// binning changes, because both shift the principal point and scale the
// effective focal length.
package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Intrinsics is the full-resolution sensor calibration: focal lengths and
// principal point in unbinned sensor pixels.
type Intrinsics struct {
	FocalX  float64 `json:"focal_x"`
	FocalY  float64 `json:"focal_y"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// Capture describes the applied read-out geometry a model is derived for.
type Capture struct {
	OffsetX int // ROI origin in unbinned sensor pixels
	OffsetY int
	Width   int // post-binning image dimensions
	Height  int
	BinX    int
	BinY    int
}

// CameraModel maps pixel coordinates of one capture geometry to 3D rays.
// Instances are read-only; replace the whole model rather than mutating it.
type CameraModel struct {
	Width  int
	Height int

	// capture records the geometry the model was derived for.
	capture Capture

	kinv *mat.Dense
}

// Derive builds a CameraModel for the given capture geometry. Binning scales
// the focal lengths, the ROI offset shifts the principal point.
func Derive(intr Intrinsics, cg Capture) (*CameraModel, error) {
	if cg.Width <= 0 || cg.Height <= 0 {
		return nil, fmt.Errorf("invalid capture dimensions %dx%d", cg.Width, cg.Height)
	}
	if cg.BinX <= 0 || cg.BinY <= 0 {
		return nil, fmt.Errorf("invalid binning %dx%d", cg.BinX, cg.BinY)
	}

	fx := intr.FocalX / float64(cg.BinX)
	fy := intr.FocalY / float64(cg.BinY)
	cx := (intr.CenterX - float64(cg.OffsetX)) / float64(cg.BinX)
	cy := (intr.CenterY - float64(cg.OffsetY)) / float64(cg.BinY)

	k := mat.NewDense(3, 3, []float64{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	})
	var kinv mat.Dense
	if err := kinv.Inverse(k); err != nil {
		return nil, fmt.Errorf("intrinsic matrix not invertible: %w", err)
	}

	return &CameraModel{
		Width:   cg.Width,
		Height:  cg.Height,
		capture: cg,
		kinv:    &kinv,
	}, nil
}

// Capture returns the geometry the model was derived for.
func (m *CameraModel) Capture() Capture { return m.capture }

// Ray returns the unit viewing ray through pixel (u, v). Coordinates address
// pixel centres, so (0,0) maps through (0.5, 0.5).
func (m *CameraModel) Ray(u, v int) [3]float64 {
	p := mat.NewVecDense(3, []float64{float64(u) + 0.5, float64(v) + 0.5, 1})
	var d mat.VecDense
	d.MulVec(m.kinv, p)

	x, y, z := d.AtVec(0), d.AtVec(1), d.AtVec(2)
	n := mat.Norm(&d, 2)
	if n == 0 {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{x / n, y / n, z / n}
}

// PointFromDepth returns the 3D point at radial distance depth along the ray
// through pixel (u, v).
func (m *CameraModel) PointFromDepth(u, v int, depth float64) [3]float64 {
	r := m.Ray(u, v)
	return [3]float64{r[0] * depth, r[1] * depth, r[2] * depth}
}
