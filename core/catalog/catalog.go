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

// The per-annotation accounting of a stitch batch. Records are append-only
// so a batch of thousands always ends with a full audit of what succeeded,
// what was truncated and what failed.
package catalog

import (
	"image"
	"sync"

	"github.com/microstitch/core/core/calibration"
)

// Status - outcome of processing one annotation
type Status string

const (
	StatusSuccess         Status = "success"
	StatusPartialCoverage Status = "partial-coverage"
	StatusFailed          Status = "failed"
)

// Record - everything the report needs about one annotation. Created once
// when the annotation finishes processing, never mutated after that.
type Record struct {
	AnnotationID          string              `json:"annotationID" bson:"annotationID"`
	Category              string              `json:"category" bson:"category"`
	SourceGroup           string              `json:"sourceGroup" bson:"sourceGroup"`
	PhysicalCoord         calibration.Point2f `json:"physicalCoord" bson:"physicalCoord"`
	MosaicCoord           calibration.Point2f `json:"mosaicCoord" bson:"mosaicCoord"`
	TilesUsed             []string            `json:"tilesUsed" bson:"tilesUsed"`
	OutputPath            string              `json:"outputPath" bson:"outputPath"`
	Status                Status              `json:"status" bson:"status"`
	FailureReason         string              `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	AnnotationPosInOutput image.Point         `json:"annotationPosInOutput" bson:"annotationPosInOutput"`
	ClassifierScore       *float64            `json:"classifierScore,omitempty" bson:"classifierScore,omitempty"`
}

// Catalog - guarded append-only record list. Entries keep the order they
// were recorded in and are never changed or removed once in.
type Catalog struct {
	mu      sync.Mutex
	records []Record
}

func (c *Catalog) Record(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, rec)
}

// All - a copy, so callers can't reach the underlying list
func (c *Catalog) All() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Record{}, c.records...)
}

func (c *Catalog) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.records)
}
