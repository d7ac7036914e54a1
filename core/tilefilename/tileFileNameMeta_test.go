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

package tilefilename

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/mosaic"
)

func printTileValues(m TileFileNameMeta) {
	x, e := m.Row()
	fmt.Printf("Row=%v|%v\n", x, e)

	x, e = m.Col()
	fmt.Printf("Col=%v|%v\n", x, e)

	x, e = m.Z()
	fmt.Printf("Z=%v|%v\n", x, e)
}

func Example_parseTileFileName() {
	m, e := ParseTileFileName("Tile_037-042-508f2c_z-003.tif")
	fmt.Printf("%v|%v\n", e, m)
	printTileValues(m)

	// Full bucket path passed in
	m, e = ParseTileFileName("m0042/tiles/Tile_000-011-508f2c_z-001.tif")
	fmt.Printf("%v|%v\n", e, m)
	printTileValues(m)

	// Structurally fine, row isn't digits so that fails at the accessor
	m, e = ParseTileFileName("Tile_03a-042-508f2c_z-003.tif")
	fmt.Printf("%v|%v\n", e, m)
	printTileValues(m)

	_, e = ParseTileFileName("hello.tif")
	fmt.Printf("%v\n", e)

	_, e = ParseTileFileName("Tile_037-042-508f2c_z-003.png")
	fmt.Printf("%v\n", e)

	// Output:
	// <nil>|{037 042 508f2c 003}
	// Row=37|<nil>
	// Col=42|<nil>
	// Z=3|<nil>
	// <nil>|{000 011 508f2c 001}
	// Row=0|<nil>
	// Col=11|<nil>
	// Z=1|<nil>
	// <nil>|{03a 042 508f2c 003}
	// Row=0|Failed to get row from: 03a
	// Col=42|<nil>
	// Z=3|<nil>
	// Failed to parse tile meta from file name
	// Failed to parse tile meta from file name
}

func Example_tileFileNameToString() {
	m, e := ParseTileFileName("Tile_037-042-508f2c_z-003.tif")
	fmt.Printf("%v|%v\n", e, m.ToString())

	// Output:
	// <nil>|Tile_037-042-508f2c_z-003
}

func Example_latestZTiles() {
	files := []string{
		"m0042/tiles/Tile_000-000-508f2c_z-001.tif",
		"m0042/tiles/Tile_000-000-508f2c_z-002.tif",
		"m0042/tiles/Tile_000-001-508f2c_z-001.tif",
		"m0042/tiles/notes.txt",
	}

	latest := LatestZTiles(files, &logger.NullLogger{})

	names := []string{}
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%v\n", name)
	}

	// Output:
	// m0042/tiles/Tile_000-000-508f2c_z-002.tif
	// m0042/tiles/Tile_000-001-508f2c_z-001.tif
}

func Test_MetaToTile(t *testing.T) {
	m, err := ParseTileFileName("Tile_002-003-508f2c_z-001.tif")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	tile, err := MetaToTile(m, 1648, 1226, "m0042/tiles/Tile_002-003-508f2c_z-001.tif")
	if err != nil {
		t.Fatalf("MetaToTile failed: %v", err)
	}

	exp := mosaic.Tile{
		ID:           "Tile_002-003-508f2c_z-001",
		GridRow:      2,
		GridCol:      3,
		PixelOriginX: 4944,
		PixelOriginY: 2452,
		PixelWidth:   1648,
		PixelHeight:  1226,
		ImagePath:    "m0042/tiles/Tile_002-003-508f2c_z-001.tif",
	}

	if !reflect.DeepEqual(tile, exp) {
		t.Errorf("unexpected tile: %+v", tile)
	}

	if _, err := MetaToTile(TileFileNameMeta{RowStr: "x", ColStr: "003", ZStr: "001"}, 100, 100, "p.tif"); err == nil {
		t.Errorf("bad row accepted")
	}
}
