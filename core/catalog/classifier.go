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
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/microstitch/core/core/fileaccess"
)

// ReadClassifierScores - parses the per-composite score CSV the downstream
// classifier drops next to its report. Rows are name,score where name is the
// composite file stem. A leading header row is tolerated.
func ReadClassifierScores(fs fileaccess.FileAccess, bucket string, scorePath string) (map[string]float64, error) {
	data, err := fs.ReadObject(bucket, scorePath)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	scores := map[string]float64{}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "name" {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("classifier score row %v: expected name,score", i+1)
		}

		score, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("classifier score row %v: %v", i+1, err)
		}
		scores[row[0]] = score
	}

	return scores, nil
}

// JoinScores - returns copies of recs with classifier scores attached where
// the composite file stem has one. Catalog records themselves stay untouched.
func JoinScores(recs []Record, scores map[string]float64) []Record {
	result := append([]Record{}, recs...)

	for i, r := range result {
		base := path.Base(r.OutputPath)
		stem := strings.TrimSuffix(base, path.Ext(base))
		if score, ok := scores[stem]; ok {
			s := score
			result[i].ClassifierScore = &s
		}
	}

	return result
}
