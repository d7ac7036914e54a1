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

package mosaic

import (
	"image"
	"path"

	"github.com/microstitch/core/core/fileaccess"
)

// MetadataFileName - well known object name under a mosaic's prefix in the
// mosaic bucket
const MetadataFileName = "mosaic.json"

// Tile - one grid position of a mosaic. Positional metadata only, the pixel
// data stays in the bucket and is only read by stitch engines through the
// ImagePath handle.
type Tile struct {
	ID           string `json:"id" bson:"id"`
	GridRow      int32  `json:"gridRow" bson:"gridRow"`
	GridCol      int32  `json:"gridCol" bson:"gridCol"`
	PixelOriginX int32  `json:"pixelOriginX" bson:"pixelOriginX"`
	PixelOriginY int32  `json:"pixelOriginY" bson:"pixelOriginY"`
	PixelWidth   int32  `json:"pixelWidth" bson:"pixelWidth"`
	PixelHeight  int32  `json:"pixelHeight" bson:"pixelHeight"`
	ImagePath    string `json:"imagePath" bson:"imagePath"`
}

// PixelRect - the tile's half open pixel rectangle. Right and bottom edges
// are exclusive, so a pixel on a shared tile boundary belongs to the tile
// with the lower grid position.
func (t Tile) PixelRect() image.Rectangle {
	return image.Rect(
		int(t.PixelOriginX),
		int(t.PixelOriginY),
		int(t.PixelOriginX+t.PixelWidth),
		int(t.PixelOriginY+t.PixelHeight),
	)
}

// Metadata - a mosaic as described by <mosaicID>/mosaic.json in the mosaic
// bucket. Also the shape registered in the mosaics DB collection. Group
// restricts who can see the mosaic, empty means anyone with mosaic read
// permission.
type Metadata struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Group string `json:"group,omitempty" bson:"group,omitempty"`
	Tiles []Tile `json:"tiles" bson:"tiles"`
}

func ReadMetadata(fs fileaccess.FileAccess, mosaicBucket string, mosaicID string) (Metadata, error) {
	result := Metadata{}
	s3Path := path.Join(mosaicID, MetadataFileName)
	return result, fs.ReadJSON(mosaicBucket, s3Path, &result, false)
}
