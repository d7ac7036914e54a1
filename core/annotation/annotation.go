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

package annotation

import (
	"fmt"

	"github.com/microstitch/core/core/calibration"
)

// Annotation - one point of interest recorded by the viewer, in stage units.
// The upstream XML reader produces these, read-only here.
type Annotation struct {
	ID            string              `json:"id"`
	Category      string              `json:"category"`
	PhysicalCoord calibration.Point2f `json:"physicalCoord"`
	SourceGroup   string              `json:"sourceGroup"`
}

// AnnotationFile - <mosaicID>/annotations.json in the mosaic bucket. The
// landmark block is optional, batches can also be handed landmarks from a
// separate file.
type AnnotationFile struct {
	MosaicID    string                        `json:"mosaicID"`
	Annotations []Annotation                  `json:"annotations"`
	Landmarks   []calibration.CalibrationPair `json:"landmarks,omitempty"`
}

// ValidateUniqueIDs - composite output names derive from annotation ID and
// category, so a duplicate would silently overwrite another's output
func ValidateUniqueIDs(annotations []Annotation) error {
	seen := map[string]bool{}
	for _, ann := range annotations {
		key := ann.Category + "/" + ann.ID
		if seen[key] {
			return fmt.Errorf("duplicate annotation id %v in category %v", ann.ID, ann.Category)
		}
		seen[key] = true
	}
	return nil
}
