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

package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Tile images come off the microscope as TIFF, register the decoder
	_ "golang.org/x/image/tiff"
)

// DecodeImage - decodes any registered image format from a byte slice
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// EncodePNG - encodes to PNG bytes, our composite output format
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImagesEqual - pixel-for-pixel comparison, returns a described error on the
// first difference so test failures say where the images diverge
func ImagesEqual(a image.Image, b image.Image) error {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return fmt.Errorf("image bounds not equal: %+v, %+v", a.Bounds(), b.Bounds())
	}

	for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
		for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
			aPixel := a.At(x, y)
			bPixel := b.At(x, y)
			if aPixel != bPixel {
				return fmt.Errorf("image pixels at %v,%v not equal: %+v, %+v", x, y, aPixel, bPixel)
			}
		}
	}

	return nil
}
