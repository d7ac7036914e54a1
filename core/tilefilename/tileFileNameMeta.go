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

// Parser for the strict tile file name convention the mosaic viewer writes,
// letting us index a mosaic straight off a bucket listing when no metadata
// JSON was exported alongside it
package tilefilename

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/mosaic"
)

// TileFileNameMeta - fields encoded in a viewer tile file name:
//
//	Tile_rrr-ccc-ffffff_z-lll.tif
type TileFileNameMeta struct {
	RowStr  string // rrr, 3 digit grid row
	ColStr  string // ccc, 3 digit grid column
	FrameID string // ffffff, 6 char acquisition ID the tile came from
	ZStr    string // lll, 3 digit focus stack layer
}

func (m TileFileNameMeta) Row() (int32, error) {
	return stringToGridIdx(m.RowStr, "row")
}

func (m TileFileNameMeta) Col() (int32, error) {
	return stringToGridIdx(m.ColStr, "col")
}

func (m TileFileNameMeta) Z() (int32, error) {
	return stringToGridIdx(m.ZStr, "z layer")
}

// ToString - the file name stem this meta encodes back to, without extension
func (m TileFileNameMeta) ToString() string {
	var s strings.Builder

	s.WriteString("Tile_")
	s.WriteString(m.RowStr)
	s.WriteString("-")
	s.WriteString(m.ColStr)
	s.WriteString("-")
	s.WriteString(m.FrameID)
	s.WriteString("_z-")
	s.WriteString(m.ZStr)

	return s.String()
}

func ParseTileFileName(fileName string) (TileFileNameMeta, error) {
	// We often get passed bucket paths so only look at the name at the end
	fileName = filepath.Base(fileName)

	result := TileFileNameMeta{}

	if len(fileName) != 29 ||
		!strings.HasPrefix(fileName, "Tile_") ||
		fileName[8:9] != "-" ||
		fileName[12:13] != "-" ||
		fileName[19:22] != "_z-" ||
		strings.ToLower(fileName[25:]) != ".tif" {
		return result, errors.New("Failed to parse tile meta from file name")
	}

	result.RowStr = fileName[5:8]
	result.ColStr = fileName[9:12]
	result.FrameID = fileName[13:19]
	result.ZStr = fileName[22:25]

	return result, nil
}

// MetaToTile - builds the positional record for a tile on a regular grid of
// pixelWidth x pixelHeight tiles. This is the fallback layout when a mosaic
// has no metadata JSON, jitter corrected origins only exist in the JSON.
func MetaToTile(m TileFileNameMeta, pixelWidth int32, pixelHeight int32, imagePath string) (mosaic.Tile, error) {
	row, err := m.Row()
	if err != nil {
		return mosaic.Tile{}, err
	}
	col, err := m.Col()
	if err != nil {
		return mosaic.Tile{}, err
	}

	return mosaic.Tile{
		ID:           m.ToString(),
		GridRow:      row,
		GridCol:      col,
		PixelOriginX: col * pixelWidth,
		PixelOriginY: row * pixelHeight,
		PixelWidth:   pixelWidth,
		PixelHeight:  pixelHeight,
		ImagePath:    imagePath,
	}, nil
}

// Run through tile file names, returning file name->parsed meta for the
// highest z layer at each grid position. Focus stacks store one file per
// layer and stitching only wants one, by convention the highest is the
// in-focus export.
func LatestZTiles(fileNames []string, jobLog logger.ILogger) map[string]TileFileNameMeta {
	byGridPos := map[string]map[string]TileFileNameMeta{}

	for _, file := range fileNames {
		meta, err := ParseTileFileName(file)
		if err != nil {
			jobLog.Infof("Ignoring \"%v\": %v", file, err)
			continue
		}

		gridPos := meta.RowStr + "-" + meta.ColStr + "-" + meta.FrameID
		if _, ok := byGridPos[gridPos]; !ok {
			byGridPos[gridPos] = map[string]TileFileNameMeta{}
		}
		byGridPos[gridPos][file] = meta
	}

	result := map[string]TileFileNameMeta{}

	for _, lookup := range byGridPos {
		selectedName := ""
		selectedZ := int32(0)
		var selectedMeta TileFileNameMeta

		for name, meta := range lookup {
			metaZ, err := meta.Z()
			if err != nil {
				jobLog.Infof("Failed to parse z layer for \"%v\": %v", name, err)
			}

			if len(selectedName) <= 0 || metaZ > selectedZ {
				selectedName = name
				selectedMeta = meta
				selectedZ = metaZ
			}
		}

		if len(selectedName) > 0 {
			result[selectedName] = selectedMeta
		}
	}

	return result
}

func stringToGridIdx(str string, what string) (int32, error) {
	if len(str) != 3 || !isAllDigits(str) {
		return 0, fmt.Errorf("Failed to get %v from: %v", what, str)
	}

	i, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("Failed to get %v from: %v", what, str)
	}
	return int32(i), nil
}

func isAllDigits(str string) bool {
	for _, c := range str {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}
