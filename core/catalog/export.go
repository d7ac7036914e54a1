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

package catalog

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/microstitch/core/core/fileaccess"
)

var csvHeader = []string{
	"annotation_id",
	"category",
	"source_group",
	"physical_x",
	"physical_y",
	"mosaic_x",
	"mosaic_y",
	"tiles_used",
	"output_path",
	"pos_in_output_x",
	"pos_in_output_y",
	"status",
	"failure_reason",
	"classifier_score",
}

// WriteCSV - writes records as CSV to the given bucket, one row per record
// in catalog order. batchSize > 0 splits the output into <pathPrefix>_NNNNN.csv
// chunks of that many rows, the downstream classifier reads them a chunk per
// worker. Returns the paths written.
func WriteCSV(fs fileaccess.FileAccess, bucket string, pathPrefix string, batchSize int, recs []Record) ([]string, error) {
	if batchSize <= 0 || len(recs) == 0 {
		path := pathPrefix + ".csv"
		if err := fs.WriteObject(bucket, path, []byte(toCSV(recs))); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	paths := []string{}
	for start, n := 0, 1; start < len(recs); start, n = start+batchSize, n+1 {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}

		path := fmt.Sprintf("%v_%05d.csv", pathPrefix, n)
		if err := fs.WriteObject(bucket, path, []byte(toCSV(recs[start:end]))); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func toCSV(recs []Record) string {
	var sb strings.Builder

	w := csv.NewWriter(&sb)
	w.Write(csvHeader)
	for _, r := range recs {
		w.Write(r.csvRow())
	}
	w.Flush()

	return sb.String()
}

func (r Record) csvRow() []string {
	score := ""
	if r.ClassifierScore != nil {
		score = strconv.FormatFloat(*r.ClassifierScore, 'g', -1, 64)
	}

	return []string{
		r.AnnotationID,
		r.Category,
		r.SourceGroup,
		strconv.FormatFloat(r.PhysicalCoord.X, 'g', -1, 64),
		strconv.FormatFloat(r.PhysicalCoord.Y, 'g', -1, 64),
		strconv.FormatFloat(r.MosaicCoord.X, 'g', -1, 64),
		strconv.FormatFloat(r.MosaicCoord.Y, 'g', -1, 64),
		strings.Join(r.TilesUsed, ";"),
		r.OutputPath,
		strconv.Itoa(r.AnnotationPosInOutput.X),
		strconv.Itoa(r.AnnotationPosInOutput.Y),
		string(r.Status),
		r.FailureReason,
		score,
	}
}
