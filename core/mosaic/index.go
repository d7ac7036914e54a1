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

// Tile layout for one mosaic and the spatial queries against it. The main
// query is "which tiles does this pixel rectangle touch", asked once per
// annotation over mosaics of hundreds to thousands of tiles, so tiles are
// bucketed into grid row bands rather than scanned linearly.
package mosaic

import (
	"fmt"
	"image"
	"sort"
)

// OverlappingTilesError - two tiles' pixel rectangles overlap by more than
// the configured jitter tolerance. This is a data integrity problem in the
// mosaic metadata, processing of the affected mosaic can't continue.
type OverlappingTilesError struct {
	TileA        string
	TileB        string
	OverlapPix   int32
	TolerancePix int32
}

func (e *OverlappingTilesError) Error() string {
	return fmt.Sprintf("tiles %v and %v overlap by %vpx, tolerance is %vpx", e.TileA, e.TileB, e.OverlapPix, e.TolerancePix)
}

// Index - the tile layout of one mosaic. Built once per mosaic, read-only
// after that, safe for concurrent readers.
type Index struct {
	// JitterOverlapCount - tile pairs overlapping within tolerance. Stage
	// jitter causes these, callers log the count rather than failing.
	JitterOverlapCount int

	tiles         []Tile // ascending (GridRow, GridCol)
	bands         []rowBand
	maxBandHeight int
	bounds        image.Rectangle
}

// One grid row of tiles and the pixel Y range it spans
type rowBand struct {
	minY, maxY   int
	maxTileWidth int
	tileIdxs     []int // indexes into Index.tiles, ascending PixelOriginX
}

// BuildIndex - indexes tiles for spatial lookup. Pairwise tile overlap within
// overlapTolerancePix is counted as jitter, anything past that returns an
// *OverlappingTilesError.
func BuildIndex(tiles []Tile, overlapTolerancePix int32) (*Index, error) {
	idx := &Index{
		tiles: append([]Tile{}, tiles...),
	}

	for _, t := range idx.tiles {
		if t.PixelWidth <= 0 || t.PixelHeight <= 0 {
			return nil, fmt.Errorf("tile %v has invalid pixel size %vx%v", t.ID, t.PixelWidth, t.PixelHeight)
		}
	}

	sort.Slice(idx.tiles, func(i, j int) bool {
		a, b := idx.tiles[i], idx.tiles[j]
		if a.GridRow != b.GridRow {
			return a.GridRow < b.GridRow
		}
		if a.GridCol != b.GridCol {
			return a.GridCol < b.GridCol
		}
		return a.ID < b.ID
	})

	for i, t := range idx.tiles {
		r := t.PixelRect()
		if i == 0 {
			idx.bounds = r
		} else {
			idx.bounds = idx.bounds.Union(r)
		}

		if len(idx.bands) == 0 || idx.tiles[idx.bands[len(idx.bands)-1].tileIdxs[0]].GridRow != t.GridRow {
			idx.bands = append(idx.bands, rowBand{minY: r.Min.Y, maxY: r.Max.Y})
		}

		band := &idx.bands[len(idx.bands)-1]
		band.tileIdxs = append(band.tileIdxs, i)
		if r.Min.Y < band.minY {
			band.minY = r.Min.Y
		}
		if r.Max.Y > band.maxY {
			band.maxY = r.Max.Y
		}
		if r.Dx() > band.maxTileWidth {
			band.maxTileWidth = r.Dx()
		}
	}

	for i := range idx.bands {
		band := &idx.bands[i]
		sort.Slice(band.tileIdxs, func(a, b int) bool {
			return idx.tiles[band.tileIdxs[a]].PixelOriginX < idx.tiles[band.tileIdxs[b]].PixelOriginX
		})
	}
	sort.Slice(idx.bands, func(a, b int) bool {
		return idx.bands[a].minY < idx.bands[b].minY
	})
	for _, band := range idx.bands {
		if h := band.maxY - band.minY; h > idx.maxBandHeight {
			idx.maxBandHeight = h
		}
	}

	// Overlap scan through the bands, not all pairs. Each tile only checks
	// tiles after it in sort order so a pair is only counted once
	for i, t := range idx.tiles {
		for _, j := range idx.candidates(t.PixelRect()) {
			if j <= i {
				continue
			}

			inter := t.PixelRect().Intersect(idx.tiles[j].PixelRect())
			if inter.Empty() {
				continue
			}

			// Jitter overlaps are thin strips, so the thin dimension is the
			// overlap depth
			depth := inter.Dx()
			if inter.Dy() < depth {
				depth = inter.Dy()
			}

			if depth > int(overlapTolerancePix) {
				return nil, &OverlappingTilesError{
					TileA:        t.ID,
					TileB:        idx.tiles[j].ID,
					OverlapPix:   int32(depth),
					TolerancePix: overlapTolerancePix,
				}
			}
			idx.JitterOverlapCount++
		}
	}

	return idx, nil
}

// TilesOverlapping - every tile whose pixel rectangle intersects r, ordered
// by ascending (GridRow, GridCol). Empty when r misses the mosaic entirely,
// which is how an annotation outside the imaged area shows up. Not an error.
func (idx *Index) TilesOverlapping(r image.Rectangle) []*Tile {
	found := idx.candidates(r)

	// Tiles are sorted by grid position, so index order is result order
	sort.Ints(found)

	result := []*Tile{}
	for _, i := range found {
		result = append(result, &idx.tiles[i])
	}
	return result
}

// Bounds - the pixel rectangle enclosing every tile
func (idx *Index) Bounds() image.Rectangle {
	return idx.bounds
}

func (idx *Index) TileCount() int {
	return len(idx.tiles)
}

// Tile indexes whose rectangles could intersect r. Binary searches the row
// bands, then each band's X ordering, checking exact intersection on the few
// tiles left.
func (idx *Index) candidates(r image.Rectangle) []int {
	found := []int{}
	if !r.Overlaps(idx.bounds) {
		return found
	}

	// First band that could still reach down to r.Min.Y
	start := sort.Search(len(idx.bands), func(i int) bool {
		return idx.bands[i].minY+idx.maxBandHeight > r.Min.Y
	})

	for bi := start; bi < len(idx.bands) && idx.bands[bi].minY < r.Max.Y; bi++ {
		band := &idx.bands[bi]
		if band.maxY <= r.Min.Y {
			continue
		}

		ti := sort.Search(len(band.tileIdxs), func(i int) bool {
			return int(idx.tiles[band.tileIdxs[i]].PixelOriginX)+band.maxTileWidth > r.Min.X
		})
		for ; ti < len(band.tileIdxs); ti++ {
			j := band.tileIdxs[ti]
			if int(idx.tiles[j].PixelOriginX) >= r.Max.X {
				break
			}
			if r.Overlaps(idx.tiles[j].PixelRect()) {
				found = append(found, j)
			}
		}
	}

	return found
}
