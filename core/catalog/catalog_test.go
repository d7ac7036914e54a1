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
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/microstitch/core/core/calibration"
	"github.com/microstitch/core/core/fileaccess"
)

func Example_writeCSV() {
	fs := fileaccess.MakeMemoryAccess()

	recs := []Record{
		{
			AnnotationID:          "a1",
			Category:              "cell_cluster",
			SourceGroup:           "m0042",
			PhysicalCoord:         calibration.Point2f{X: -0.000477, Y: 0.000242},
			MosaicCoord:           calibration.Point2f{X: 76492.58, Y: 79269.21},
			TilesUsed:             []string{"Tile_000-000-508f2c_z-001", "Tile_000-001-508f2c_z-001"},
			OutputPath:            "job-1/composites/cell_cluster_a1.png",
			Status:                StatusSuccess,
			AnnotationPosInOutput: image.Pt(200, 150),
		},
		{
			AnnotationID:  "a2",
			Category:      "debris",
			SourceGroup:   "m0042",
			PhysicalCoord: calibration.Point2f{X: -0.0009, Y: 0.0008},
			MosaicCoord:   calibration.Point2f{X: -12000.5, Y: 99000.25},
			Status:        StatusFailed,
			FailureReason: "region outside mosaic: no tiles overlap the requested area",
		},
	}

	paths, err := WriteCSV(fs, "stitch-jobs", "job-1/catalog", 0, recs)
	fmt.Printf("%v|%v\n", err, paths)

	data, _ := fs.ReadObject("stitch-jobs", "job-1/catalog.csv")
	fmt.Printf("%v", string(data))

	// Output:
	// <nil>|[job-1/catalog.csv]
	// annotation_id,category,source_group,physical_x,physical_y,mosaic_x,mosaic_y,tiles_used,output_path,pos_in_output_x,pos_in_output_y,status,failure_reason,classifier_score
	// a1,cell_cluster,m0042,-0.000477,0.000242,76492.58,79269.21,Tile_000-000-508f2c_z-001;Tile_000-001-508f2c_z-001,job-1/composites/cell_cluster_a1.png,200,150,success,,
	// a2,debris,m0042,-0.0009,0.0008,-12000.5,99000.25,,,0,0,failed,region outside mosaic: no tiles overlap the requested area,
}

func Test_Catalog_orderPreserved(t *testing.T) {
	c := &Catalog{}
	for i := 0; i < 5; i++ {
		c.Record(Record{AnnotationID: fmt.Sprintf("a%v", i)})
	}

	recs := c.All()
	if len(recs) != 5 {
		t.Fatalf("expected 5 records, got %v", len(recs))
	}
	for i, r := range recs {
		if r.AnnotationID != fmt.Sprintf("a%v", i) {
			t.Errorf("record %v out of order: %v", i, r.AnnotationID)
		}
	}

	// All hands out copies, mutating one must not touch the catalog
	recs[0].AnnotationID = "tampered"
	if c.All()[0].AnnotationID != "a0" {
		t.Errorf("catalog record mutated through All copy")
	}
}

func Test_Catalog_concurrentRecord(t *testing.T) {
	c := &Catalog{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Record(Record{AnnotationID: fmt.Sprintf("a%v", n)})
		}(i)
	}
	wg.Wait()

	if c.Count() != 50 {
		t.Fatalf("expected 50 records, got %v", c.Count())
	}

	seen := map[string]bool{}
	for _, r := range c.All() {
		seen[r.AnnotationID] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 distinct records, got %v", len(seen))
	}
}

func Test_WriteCSV_batched(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()

	recs := []Record{}
	for i := 0; i < 5; i++ {
		recs = append(recs, Record{AnnotationID: fmt.Sprintf("a%v", i), Status: StatusSuccess})
	}

	paths, err := WriteCSV(fs, "stitch-jobs", "job-2/catalog", 2, recs)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	expPaths := []string{"job-2/catalog_00001.csv", "job-2/catalog_00002.csv", "job-2/catalog_00003.csv"}
	if len(paths) != len(expPaths) {
		t.Fatalf("expected %v files, got %v", len(expPaths), paths)
	}

	expRows := []int{2, 2, 1}
	for i, p := range paths {
		if p != expPaths[i] {
			t.Errorf("expected path %v, got %v", expPaths[i], p)
		}

		data, err := fs.ReadObject("stitch-jobs", p)
		if err != nil {
			t.Fatalf("reading %v failed: %v", p, err)
		}
		if lines := strings.Count(string(data), "\n"); lines != expRows[i]+1 {
			t.Errorf("%v: expected %v lines, got %v", p, expRows[i]+1, lines)
		}
	}

	// First chunk starts with the first record
	data, _ := fs.ReadObject("stitch-jobs", paths[0])
	if !strings.Contains(string(data), "\na0,") {
		t.Errorf("first chunk missing first record:\n%v", string(data))
	}
}

func Test_ClassifierScores(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()

	scoreCSV := "name,score\ncell_cluster_a1,0.9321\ndebris_a2,0.1\n"
	if err := fs.WriteObject("stitch-jobs", "job-1/scores.csv", []byte(scoreCSV)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	scores, err := ReadClassifierScores(fs, "stitch-jobs", "job-1/scores.csv")
	if err != nil {
		t.Fatalf("ReadClassifierScores failed: %v", err)
	}
	if len(scores) != 2 || scores["cell_cluster_a1"] != 0.9321 {
		t.Errorf("unexpected scores: %v", scores)
	}

	recs := []Record{
		{AnnotationID: "a1", OutputPath: "job-1/composites/cell_cluster_a1.png"},
		{AnnotationID: "a3", OutputPath: "job-1/composites/cell_cluster_a3.png"},
	}

	joined := JoinScores(recs, scores)
	if joined[0].ClassifierScore == nil || *joined[0].ClassifierScore != 0.9321 {
		t.Errorf("expected score on joined record, got %+v", joined[0].ClassifierScore)
	}
	if joined[1].ClassifierScore != nil {
		t.Errorf("unscored record gained a score")
	}
	if recs[0].ClassifierScore != nil {
		t.Errorf("JoinScores mutated its input")
	}

	// Bad score value
	fs.WriteObject("stitch-jobs", "job-1/bad.csv", []byte("cell_cluster_a1,notanumber\n"))
	if _, err := ReadClassifierScores(fs, "stitch-jobs", "job-1/bad.csv"); err == nil {
		t.Errorf("bad score accepted")
	}
}
