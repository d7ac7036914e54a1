// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Fits and applies the transform between microscope stage positions and
// mosaic pixel positions. The transform is fitted once per processing run
// from landmark pairs and is read-only after that, so annotation mapping is
// a pure function and safe to call from any number of workers.
package calibration

import "math"

// Point2f - a 2D coordinate, either in stage units or mosaic pixels
// depending on which side of the transform it sits
type Point2f struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// AffineTransform - maps stage coordinates (physical units recorded by the
// viewer) into mosaic pixel coordinates:
//
//	px = A*x + B*y + TX
//	py = C*x + D*y + TY
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Apply - maps a stage coordinate to a mosaic pixel coordinate
func (t AffineTransform) Apply(p Point2f) Point2f {
	return Point2f{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Det - determinant of the linear part
func (t AffineTransform) Det() float64 {
	return t.A*t.D - t.B*t.C
}

// Inverse - maps mosaic pixels back to stage coordinates. ok=false if the
// transform collapses an axis and can't be inverted
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	if t.nearSingular() {
		return AffineTransform{}, false
	}

	invDet := 1.0 / t.Det()
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// The determinant test has to be relative to the coefficient scale: a
// stage->pixel map has coefficients around 1e9 so its det is ~1e18, while the
// legitimate inverse map's det is ~1e-18. An absolute epsilon misfires on both.
func (t AffineTransform) nearSingular() bool {
	det := t.Det()
	if math.IsNaN(det) || math.IsInf(det, 0) {
		return true
	}

	scale := math.Max(math.Max(math.Abs(t.A), math.Abs(t.B)), math.Max(math.Abs(t.C), math.Abs(t.D)))
	return scale == 0 || math.Abs(det) < 1e-12*scale*scale
}
