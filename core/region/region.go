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

// Turns a mapped annotation coordinate into the minimal set of tile crops
// covering the requested region around it. Pure geometry, no image data is
// touched here, crops reference tiles by their bucket paths and the stitch
// engines resolve those.
package region

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/microstitch/core/core/calibration"
	"github.com/microstitch/core/core/mosaic"
)

// ErrRegionOutsideMosaic - the requested region doesn't touch any tile.
// Recoverable, the annotation is marked failed and the batch moves on.
var ErrRegionOutsideMosaic = errors.New("region outside mosaic: no tiles overlap the requested area")

// Request - the region to extract around one annotation
type Request struct {
	MosaicCoord calibration.Point2f
	HalfExtent  image.Point
}

// TileCrop - one tile's contribution to a composite. CropRect is in the
// tile's own pixel space, PlacementInOutput is where that cut lands on the
// output canvas.
type TileCrop struct {
	TileID            string          `json:"tileID"`
	GridRow           int32           `json:"gridRow"`
	GridCol           int32           `json:"gridCol"`
	ImagePath         string          `json:"imagePath"`
	CropRect          image.Rectangle `json:"cropRect"`
	PlacementInOutput image.Rectangle `json:"placementInOutput"`
}

// Selection - the crops covering one region request, ordered by ascending
// (GridRow, GridCol). The first crop's tile is the annotation's assigned
// tile, and engines draw crops last to first so on jitter overlaps the
// lowest grid position keeps its pixels.
type Selection struct {
	Crops           []TileCrop
	Target          image.Rectangle
	PartialCoverage bool
}

// Select - computes the tile crops for a region request. The target is the
// half open rectangle of 2*HalfExtent pixels centred on the rounded mosaic
// coordinate. Identical requests always produce identical selections.
func Select(req Request, idx *mosaic.Index) (Selection, error) {
	if req.HalfExtent.X <= 0 || req.HalfExtent.Y <= 0 {
		return Selection{}, fmt.Errorf("invalid crop half extent: %v", req.HalfExtent)
	}

	center := image.Pt(int(math.Round(req.MosaicCoord.X)), int(math.Round(req.MosaicCoord.Y)))
	sel := Selection{
		Target: image.Rectangle{
			Min: center.Sub(req.HalfExtent),
			Max: center.Add(req.HalfExtent),
		},
	}

	tiles := idx.TilesOverlapping(sel.Target)
	if len(tiles) == 0 {
		return sel, ErrRegionOutsideMosaic
	}

	placements := []image.Rectangle{}
	for _, t := range tiles {
		crop := sel.Target.Intersect(t.PixelRect())
		placement := crop.Sub(sel.Target.Min)

		sel.Crops = append(sel.Crops, TileCrop{
			TileID:            t.ID,
			GridRow:           t.GridRow,
			GridCol:           t.GridCol,
			ImagePath:         t.ImagePath,
			CropRect:          crop.Sub(t.PixelRect().Min),
			PlacementInOutput: placement,
		})
		placements = append(placements, placement)
	}

	// Tiles can overlap within jitter tolerance so crops can too, meaning
	// coverage has to be the area of the union, a sum would over count
	covered := unionArea(placements)
	sel.PartialCoverage = covered < sel.Target.Dx()*sel.Target.Dy()

	return sel, nil
}

// AnnotationPosInOutput - where the annotation itself sits on the output
// canvas, for overlay rendering downstream
func (s Selection) AnnotationPosInOutput(mosaicCoord calibration.Point2f) image.Point {
	return image.Pt(int(math.Round(mosaicCoord.X)), int(math.Round(mosaicCoord.Y))).Sub(s.Target.Min)
}

// Exact union area by coordinate compression. Rectangle counts stay tiny
// here (one per touched tile) so the cell grid is cheap.
func unionArea(rects []image.Rectangle) int {
	xs := []int{}
	ys := []int{}
	for _, r := range rects {
		xs = append(xs, r.Min.X, r.Max.X)
		ys = append(ys, r.Min.Y, r.Max.Y)
	}
	sort.Ints(xs)
	sort.Ints(ys)

	area := 0
	for xi := 0; xi+1 < len(xs); xi++ {
		if xs[xi+1] == xs[xi] {
			continue
		}
		for yi := 0; yi+1 < len(ys); yi++ {
			if ys[yi+1] == ys[yi] {
				continue
			}

			// Compressed coordinates mean each cell is entirely in or out
			// of every rectangle
			cell := image.Rect(xs[xi], ys[yi], xs[xi+1], ys[yi+1])
			for _, r := range rects {
				if cell.In(r) {
					area += cell.Dx() * cell.Dy()
					break
				}
			}
		}
	}

	return area
}
