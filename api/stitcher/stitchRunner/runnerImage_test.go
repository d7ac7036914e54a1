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

package stitchRunner

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/region"
	"github.com/microstitch/core/core/utils"
)

const testMosaicBucket = "mosaic-bucket"
const testJobsBucket = "stitch-jobs-bucket"

func makeTilePNG(t *testing.T, w int, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	data, err := utils.EncodePNG(img)
	if err != nil {
		t.Fatalf("Failed to encode tile: %v", err)
	}
	return data
}

func makeImageEngine(fs fileaccess.FileAccess) *imageStitchEngine {
	return &imageStitchEngine{
		fs:           fs,
		mosaicBucket: testMosaicBucket,
		jobsBucket:   testJobsBucket,
		log:          &logger.NullLogger{},
	}
}

func readComposite(t *testing.T, fs fileaccess.FileAccess, outPath string) image.Image {
	data, err := fs.ReadObject(testJobsBucket, outPath)
	if err != nil {
		t.Fatalf("Composite not written to %v: %v", outPath, err)
	}

	img, err := utils.DecodeImage(data)
	if err != nil {
		t.Fatalf("Failed to decode composite: %v", err)
	}
	return img
}

func checkPixel(t *testing.T, img image.Image, x int, y int, expected color.RGBA) {
	got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	if got != expected {
		t.Errorf("Pixel %v,%v was %+v, expected %+v", x, y, got, expected)
	}
}

func Test_ImageEngineMerge(t *testing.T) {
	red := color.RGBA{R: 200, G: 40, B: 40, A: 255}
	blue := color.RGBA{R: 40, G: 40, B: 200, A: 255}

	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject(testMosaicBucket, "tiles/a.png", makeTilePNG(t, 4, 4, red))
	fs.WriteObject(testMosaicBucket, "tiles/b.png", makeTilePNG(t, 4, 4, blue))

	outPath := "job-1/composites/particle_ann-1.png"
	req := MergeRequest{
		JobID:        "job-1",
		AnnotationID: "ann-1",
		Target:       image.Rect(0, 0, 4, 2),
		Crops: []region.TileCrop{
			{
				TileID:            "a",
				GridRow:           0,
				GridCol:           0,
				ImagePath:         "tiles/a.png",
				CropRect:          image.Rect(2, 2, 4, 4),
				PlacementInOutput: image.Rect(0, 0, 2, 2),
			},
			{
				TileID:            "b",
				GridRow:           0,
				GridCol:           1,
				ImagePath:         "tiles/b.png",
				CropRect:          image.Rect(0, 0, 2, 2),
				PlacementInOutput: image.Rect(2, 0, 4, 2),
			},
		},
		OutputPath: outPath,
	}

	err := makeImageEngine(fs).Merge(context.Background(), req)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	img := readComposite(t, fs, outPath)
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Fatalf("Composite size was %v, expected 4x2", img.Bounds())
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			expected := red
			if x >= 2 {
				expected = blue
			}
			checkPixel(t, img, x, y, expected)
		}
	}
}

func Test_ImageEngineOverlapPriority(t *testing.T) {
	red := color.RGBA{R: 200, G: 40, B: 40, A: 255}
	blue := color.RGBA{R: 40, G: 40, B: 200, A: 255}

	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject(testMosaicBucket, "tiles/a.png", makeTilePNG(t, 2, 2, red))
	fs.WriteObject(testMosaicBucket, "tiles/b.png", makeTilePNG(t, 2, 2, blue))

	// Jitter overlap at x=1, crop list is ascending (row, col) so the col 0
	// tile should keep its pixels there
	outPath := "job-1/composites/fibre_ann-2.png"
	req := MergeRequest{
		JobID:        "job-1",
		AnnotationID: "ann-2",
		Target:       image.Rect(0, 0, 3, 2),
		Crops: []region.TileCrop{
			{
				TileID:            "a",
				GridRow:           0,
				GridCol:           0,
				ImagePath:         "tiles/a.png",
				CropRect:          image.Rect(0, 0, 2, 2),
				PlacementInOutput: image.Rect(0, 0, 2, 2),
			},
			{
				TileID:            "b",
				GridRow:           0,
				GridCol:           1,
				ImagePath:         "tiles/b.png",
				CropRect:          image.Rect(0, 0, 2, 2),
				PlacementInOutput: image.Rect(1, 0, 3, 2),
			},
		},
		OutputPath: outPath,
	}

	err := makeImageEngine(fs).Merge(context.Background(), req)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	img := readComposite(t, fs, outPath)
	for y := 0; y < 2; y++ {
		checkPixel(t, img, 0, y, red)
		checkPixel(t, img, 1, y, red)
		checkPixel(t, img, 2, y, blue)
	}
}

func Test_ImageEngineEightBit(t *testing.T) {
	grey := color.RGBA{R: 90, G: 90, B: 90, A: 255}

	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject(testMosaicBucket, "tiles/a.png", makeTilePNG(t, 2, 2, grey))

	outPath := "job-1/composites/pore_ann-3.png"
	req := MergeRequest{
		JobID:        "job-1",
		AnnotationID: "ann-3",
		Target:       image.Rect(0, 0, 2, 2),
		Crops: []region.TileCrop{
			{
				TileID:            "a",
				ImagePath:         "tiles/a.png",
				CropRect:          image.Rect(0, 0, 2, 2),
				PlacementInOutput: image.Rect(0, 0, 2, 2),
			},
		},
		OutputPath: outPath,
		EightBit:   true,
	}

	err := makeImageEngine(fs).Merge(context.Background(), req)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	img := readComposite(t, fs, outPath)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			got := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if got.Y != 90 {
				t.Errorf("Pixel %v,%v was %v, expected grey 90", x, y, got.Y)
			}
		}
	}
}

func Test_ImageEngineMissingTile(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()

	outPath := "job-1/composites/particle_ann-4.png"
	req := MergeRequest{
		JobID:        "job-1",
		AnnotationID: "ann-4",
		Target:       image.Rect(0, 0, 2, 2),
		Crops: []region.TileCrop{
			{
				TileID:            "a",
				ImagePath:         "tiles/nope.png",
				CropRect:          image.Rect(0, 0, 2, 2),
				PlacementInOutput: image.Rect(0, 0, 2, 2),
			},
		},
		OutputPath: outPath,
	}

	err := makeImageEngine(fs).Merge(context.Background(), req)
	if err == nil {
		t.Errorf("Merge should have failed for missing tile")
	}

	exists, _ := fs.ObjectExists(testJobsBucket, outPath)
	if exists {
		t.Errorf("Failed merge should not write a composite")
	}
}

func Test_ImageEngineCancelled(t *testing.T) {
	red := color.RGBA{R: 200, G: 40, B: 40, A: 255}

	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject(testMosaicBucket, "tiles/a.png", makeTilePNG(t, 2, 2, red))

	outPath := "job-1/composites/particle_ann-5.png"
	req := MergeRequest{
		JobID:        "job-1",
		AnnotationID: "ann-5",
		Target:       image.Rect(0, 0, 2, 2),
		Crops: []region.TileCrop{
			{
				TileID:            "a",
				ImagePath:         "tiles/a.png",
				CropRect:          image.Rect(0, 0, 2, 2),
				PlacementInOutput: image.Rect(0, 0, 2, 2),
			},
		},
		OutputPath: outPath,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := makeImageEngine(fs).Merge(ctx, req)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}

	exists, _ := fs.ObjectExists(testJobsBucket, outPath)
	if exists {
		t.Errorf("Cancelled merge should not write a composite")
	}
}
