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

package stitcher

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitcher/stitchRunner"
	"github.com/microstitch/core/core/annotation"
	"github.com/microstitch/core/core/calibration"
	"github.com/microstitch/core/core/catalog"
	"github.com/microstitch/core/core/mosaic"
)

// Two 100x100 tiles side by side, so tests can hit one tile, both, or miss
// the mosaic entirely
func makeTestIndex(t *testing.T) *mosaic.Index {
	tiles := []mosaic.Tile{
		{ID: "tile-0-0", GridRow: 0, GridCol: 0, PixelOriginX: 0, PixelOriginY: 0, PixelWidth: 100, PixelHeight: 100, ImagePath: "mos-1/tiles/tile-0-0.png"},
		{ID: "tile-0-1", GridRow: 0, GridCol: 1, PixelOriginX: 100, PixelOriginY: 0, PixelWidth: 100, PixelHeight: 100, ImagePath: "mos-1/tiles/tile-0-1.png"},
	}

	idx, err := mosaic.BuildIndex(tiles, 8)
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	return idx
}

func makeTestSvcs(retryCount int32, backoffMs int64, timeoutSec uint32) *services.APIServices {
	svcs := services.MakeMockSvcs(nil, nil, nil)
	svcs.Config.StitchRetryCount = retryCount
	svcs.Config.StitchRetryBackoffMs = backoffMs
	svcs.Config.StitchTimeoutSec = timeoutSec
	svcs.Config.CropHalfExtentPix = 20
	return &svcs
}

// Stage coords == pixel coords, keeps the mapping out of the way
func identityTransform() calibration.AffineTransform {
	return calibration.AffineTransform{A: 1, D: 1}
}

func Test_MakeCompositePath(t *testing.T) {
	ann := annotation.Annotation{ID: "ann-1", Category: "dust particle"}
	got := MakeCompositePath("job-123", ann)
	want := "job-123/composites/dust_particle_ann-1.png"
	if got != want {
		t.Errorf("MakeCompositePath: got %v, want %v", got, want)
	}

	// Viewer exports have put slashes and quotes in category names before
	ann = annotation.Annotation{ID: "a/7", Category: "spore \"cluster\""}
	got = MakeCompositePath("job-123", ann)
	want = "job-123/composites/spore_cluster_a_7.png"
	if got != want {
		t.Errorf("MakeCompositePath: got %v, want %v", got, want)
	}
}

func Test_ProcessAnnotationSuccess(t *testing.T) {
	svcs := makeTestSvcs(0, 1, 0)
	engine := &stitchRunner.NullStitchEngine{}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", SourceGroup: "scope-a", PhysicalCoord: calibration.Point2f{X: 50, Y: 50}}

	rec := ProcessAnnotation(context.Background(), ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)

	if rec.Status != catalog.StatusSuccess {
		t.Errorf("Status: got %v, want %v (reason: %v)", rec.Status, catalog.StatusSuccess, rec.FailureReason)
	}
	if rec.OutputPath != "job-1/composites/crystal_ann-1.png" {
		t.Errorf("OutputPath: got %v", rec.OutputPath)
	}
	if len(rec.TilesUsed) != 1 || rec.TilesUsed[0] != "tile-0-0" {
		t.Errorf("TilesUsed: got %v", rec.TilesUsed)
	}
	if rec.MosaicCoord.X != 50 || rec.MosaicCoord.Y != 50 {
		t.Errorf("MosaicCoord: got %v", rec.MosaicCoord)
	}
	// Target is (30,30)-(70,70), so the annotation sits dead centre
	if rec.AnnotationPosInOutput != image.Pt(20, 20) {
		t.Errorf("AnnotationPosInOutput: got %v", rec.AnnotationPosInOutput)
	}

	reqs := engine.Requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 merge request, got %v", len(reqs))
	}
	if reqs[0].OutputPath != rec.OutputPath {
		t.Errorf("Merge request output path: got %v, want %v", reqs[0].OutputPath, rec.OutputPath)
	}
	if reqs[0].Target.Dx() != 40 || reqs[0].Target.Dy() != 40 {
		t.Errorf("Merge request target: got %v", reqs[0].Target)
	}
}

func Test_ProcessAnnotationRetrySucceeds(t *testing.T) {
	svcs := makeTestSvcs(3, 1, 0)
	engine := &stitchRunner.NullStitchEngine{
		FailuresLeft: map[string]int{"ann-1": 2},
		FailErr:      errors.New("flaky tile read"),
	}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", PhysicalCoord: calibration.Point2f{X: 50, Y: 50}}

	rec := ProcessAnnotation(context.Background(), ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)

	if rec.Status != catalog.StatusSuccess {
		t.Errorf("Status after retries: got %v (reason: %v)", rec.Status, rec.FailureReason)
	}
	// 2 scripted failures then the winning attempt
	if len(engine.Requests()) != 3 {
		t.Errorf("Expected 3 merge attempts, got %v", len(engine.Requests()))
	}
}

func Test_ProcessAnnotationRetriesExhausted(t *testing.T) {
	svcs := makeTestSvcs(2, 1, 0)
	engine := &stitchRunner.NullStitchEngine{
		FailuresLeft: map[string]int{"ann-1": 100},
		FailErr:      errors.New("flaky tile read"),
	}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", PhysicalCoord: calibration.Point2f{X: 50, Y: 50}}

	rec := ProcessAnnotation(context.Background(), ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)

	if rec.Status != catalog.StatusFailed {
		t.Errorf("Status: got %v, want %v", rec.Status, catalog.StatusFailed)
	}
	if rec.FailureReason != "flaky tile read" {
		t.Errorf("FailureReason: got %v", rec.FailureReason)
	}
	// A failed annotation must not point at an object that was never written
	if len(rec.OutputPath) > 0 {
		t.Errorf("OutputPath should be empty on failure, got %v", rec.OutputPath)
	}
	// Retry count 2 means 3 attempts total
	if len(engine.Requests()) != 3 {
		t.Errorf("Expected 3 merge attempts, got %v", len(engine.Requests()))
	}
}

func Test_ProcessAnnotationTimeout(t *testing.T) {
	svcs := makeTestSvcs(0, 1, 1)
	engine := &stitchRunner.NullStitchEngine{MergeDelay: 3 * time.Second}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", PhysicalCoord: calibration.Point2f{X: 50, Y: 50}}

	start := time.Now()
	rec := ProcessAnnotation(context.Background(), ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)
	elapsed := time.Since(start)

	if rec.Status != catalog.StatusFailed {
		t.Errorf("Status: got %v, want %v", rec.Status, catalog.StatusFailed)
	}
	if !strings.Contains(rec.FailureReason, "merge timed out after") {
		t.Errorf("FailureReason: got %v", rec.FailureReason)
	}
	// The 1s timeout has to cut off the 3s merge
	if elapsed > 2500*time.Millisecond {
		t.Errorf("Timeout did not interrupt the merge, took %v", elapsed)
	}
}

func Test_ProcessAnnotationCancelledDuringBackoff(t *testing.T) {
	// Backoff is deliberately huge, cancellation has to cut it short
	svcs := makeTestSvcs(5, 10000, 0)
	engine := &stitchRunner.NullStitchEngine{FailuresLeft: map[string]int{"ann-1": 50}}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", PhysicalCoord: calibration.Point2f{X: 50, Y: 50}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	rec := ProcessAnnotation(ctx, ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)
	elapsed := time.Since(start)

	if rec.Status != catalog.StatusFailed {
		t.Errorf("Status: got %v, want %v", rec.Status, catalog.StatusFailed)
	}
	if len(engine.Requests()) != 1 {
		t.Errorf("Expected 1 merge attempt before cancellation, got %v", len(engine.Requests()))
	}
	if elapsed > 2*time.Second {
		t.Errorf("Cancellation did not interrupt the backoff wait, took %v", elapsed)
	}
}

func Test_ProcessAnnotationOutsideMosaic(t *testing.T) {
	svcs := makeTestSvcs(0, 1, 0)
	engine := &stitchRunner.NullStitchEngine{}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", PhysicalCoord: calibration.Point2f{X: 1000, Y: 1000}}

	rec := ProcessAnnotation(context.Background(), ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)

	if rec.Status != catalog.StatusFailed {
		t.Errorf("Status: got %v, want %v", rec.Status, catalog.StatusFailed)
	}
	if !strings.Contains(rec.FailureReason, "region outside mosaic") {
		t.Errorf("FailureReason: got %v", rec.FailureReason)
	}
	// No point asking the engine to merge zero tiles
	if len(engine.Requests()) != 0 {
		t.Errorf("Expected no merge attempts, got %v", len(engine.Requests()))
	}
}

func Test_ProcessAnnotationPartialCoverage(t *testing.T) {
	svcs := makeTestSvcs(0, 1, 0)
	svcs.Config.CropHalfExtentPix = 60
	engine := &stitchRunner.NullStitchEngine{}
	ann := annotation.Annotation{ID: "ann-1", Category: "crystal", PhysicalCoord: calibration.Point2f{X: 50, Y: 50}}

	rec := ProcessAnnotation(context.Background(), ann, identityTransform(), makeTestIndex(t), StitchParams{JobID: "job-1"}, engine, svcs)

	// Target (-10,-10)-(110,110) spills past the mosaic edge, but whatever
	// tiles do cover it still get merged
	if rec.Status != catalog.StatusPartialCoverage {
		t.Errorf("Status: got %v, want %v (reason: %v)", rec.Status, catalog.StatusPartialCoverage, rec.FailureReason)
	}
	if len(rec.OutputPath) <= 0 {
		t.Errorf("Partial coverage still writes a composite, OutputPath is empty")
	}
	if len(rec.TilesUsed) != 2 {
		t.Errorf("TilesUsed: got %v", rec.TilesUsed)
	}
	if len(engine.Requests()) != 1 {
		t.Errorf("Expected 1 merge attempt, got %v", len(engine.Requests()))
	}
}
