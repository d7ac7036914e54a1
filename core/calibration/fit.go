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

package calibration

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// CalibrationPair - a landmark visible in both coordinate systems: where the
// stage was when it was recorded, and where that same point sits in the
// assembled mosaic
type CalibrationPair struct {
	StageX float64 `json:"stageX"`
	StageY float64 `json:"stageY"`
	PixelX float64 `json:"pixelX"`
	PixelY float64 `json:"pixelY"`
}

func (p CalibrationPair) Stage() Point2f {
	return Point2f{X: p.StageX, Y: p.StageY}
}

func (p CalibrationPair) Pixel() Point2f {
	return Point2f{X: p.PixelX, Y: p.PixelY}
}

// Both are fatal to a processing run, there's no usable transform to map
// annotations with
var ErrInsufficientCalibrationData = errors.New("insufficient calibration data: need at least 3 landmark pairs")
var ErrDegenerateCalibration = errors.New("degenerate calibration: landmarks are collinear or duplicated")

// FitAffine - least squares fit of the stage->pixel affine transform. Exactly
// 3 non-collinear pairs solve it exactly, more pairs average out landmark
// placement noise.
func FitAffine(pairs []CalibrationPair) (AffineTransform, error) {
	if len(pairs) < 3 {
		return AffineTransform{}, ErrInsufficientCalibrationData
	}

	// Both pixel axes share one system:
	// [x y 1 0 0 0] [A B TX C D TY]^T = px
	// [0 0 0 x y 1]                   = py
	coeffs := mat.NewDense(len(pairs)*2, 6, nil)
	rhs := mat.NewVecDense(len(pairs)*2, nil)

	for i, p := range pairs {
		coeffs.SetRow(i*2, []float64{p.StageX, p.StageY, 1, 0, 0, 0})
		coeffs.SetRow(i*2+1, []float64{0, 0, 0, p.StageX, p.StageY, 1})
		rhs.SetVec(i*2, p.PixelX)
		rhs.SetVec(i*2+1, p.PixelY)
	}

	var qr mat.QR
	qr.Factorize(coeffs)

	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, rhs); err != nil {
		// Collinear or duplicated stage landmarks make the system rank
		// deficient, the solver reports it as a conditioning failure
		return AffineTransform{}, ErrDegenerateCalibration
	}

	fitted := AffineTransform{
		A: sol.AtVec(0), B: sol.AtVec(1), TX: sol.AtVec(2),
		C: sol.AtVec(3), D: sol.AtVec(4), TY: sol.AtVec(5),
	}

	// The solve can also succeed yet produce a map that collapses an axis,
	// eg all pixel landmarks sitting on one line. That map can't be inverted
	// so reject it here rather than failing strangely downstream
	if fitted.nearSingular() {
		return AffineTransform{}, ErrDegenerateCalibration
	}

	return fitted, nil
}
