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
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/utils"
)

///////////////////////////////////////////////////////////////////////////////////////////
// In-process engine. Reads the tiles a composite needs, copies each crop onto
// the output canvas and writes the PNG. This is what stitch-node pods run,
// and what the API runs directly with the "image" executor.

type imageStitchEngine struct {
	fs           fileaccess.FileAccess
	mosaicBucket string
	jobsBucket   string
	log          logger.ILogger
}

func (r *imageStitchEngine) Merge(ctx context.Context, req MergeRequest) error {
	canvas := image.NewRGBA(image.Rect(0, 0, req.Target.Dx(), req.Target.Dy()))

	// Crops arrive ordered by ascending (row, col) and where jitter makes
	// them overlap the lowest grid position owns the pixels, so paint in
	// reverse and let earlier crops paint over later ones
	for i := len(req.Crops) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}

		crop := req.Crops[i]

		tileBytes, err := r.fs.ReadObject(r.mosaicBucket, crop.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to read tile %v (%v): %v", crop.TileID, crop.ImagePath, err)
		}

		tileImg, err := utils.DecodeImage(tileBytes)
		if err != nil {
			return fmt.Errorf("failed to decode tile %v (%v): %v", crop.TileID, crop.ImagePath, err)
		}

		// CropRect is in tile pixels and decoded images start at 0,0, so the
		// crop origin is the source point for the copy
		draw.Draw(canvas, crop.PlacementInOutput, tileImg, crop.CropRect.Min, draw.Src)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var outImage image.Image = canvas
	if req.EightBit {
		grey := image.NewGray(canvas.Bounds())
		draw.Draw(grey, grey.Bounds(), canvas, canvas.Bounds().Min, draw.Src)
		outImage = grey
	}

	data, err := utils.EncodePNG(outImage)
	if err != nil {
		return fmt.Errorf("failed to encode composite for annotation %v: %v", req.AnnotationID, err)
	}

	err = r.fs.WriteObject(r.jobsBucket, req.OutputPath, data)
	if err != nil {
		return fmt.Errorf("failed to write composite %v: %v", req.OutputPath, err)
	}

	r.log.Debugf("Wrote composite %v (%vx%v, %v tiles)", req.OutputPath, req.Target.Dx(), req.Target.Dy(), len(req.Crops))
	return nil
}
