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
	"fmt"
	"image"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitcher/stitchRunner"
	"github.com/microstitch/core/core/annotation"
	"github.com/microstitch/core/core/calibration"
	"github.com/microstitch/core/core/catalog"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/mosaic"
	"github.com/microstitch/core/core/region"
)

var (
	stitchMergeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stitch_merge_retries_total",
		Help: "Number of merge retry attempts.",
	})
	stitchMergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "stitch_merge_duration_seconds",
		Help: "Duration of stitch engine merge attempts.",
	})
)

// MakeCompositePath - where a composite lands in the jobs bucket. Identical
// inputs always name the same object, so a re-run overwrites rather than
// duplicates.
func MakeCompositePath(jobId string, ann annotation.Annotation) string {
	name := fileaccess.MakeValidObjectName(ann.Category + "_" + ann.ID)
	return path.Join(jobId, "composites", name+".png")
}

// ProcessAnnotation - takes one annotation all the way from stage coordinates
// to a catalog record: map, select tiles, merge. Every failure mode comes back
// as a Failed record, never an error, so one bad annotation can't take down
// the rest of a batch.
func ProcessAnnotation(
	ctx context.Context,
	ann annotation.Annotation,
	transform calibration.AffineTransform,
	idx *mosaic.Index,
	params StitchParams,
	engine stitchRunner.StitchEngine,
	svcs *services.APIServices) catalog.Record {
	rec := catalog.Record{
		AnnotationID:  ann.ID,
		Category:      ann.Category,
		SourceGroup:   ann.SourceGroup,
		PhysicalCoord: ann.PhysicalCoord,
		MosaicCoord:   transform.Apply(ann.PhysicalCoord),
	}

	halfExtent := int(svcs.Config.CropHalfExtentPix)
	sel, err := region.Select(region.Request{
		MosaicCoord: rec.MosaicCoord,
		HalfExtent:  image.Pt(halfExtent, halfExtent),
	}, idx)
	if err != nil {
		rec.Status = catalog.StatusFailed
		rec.FailureReason = err.Error()
		return rec
	}

	for _, crop := range sel.Crops {
		rec.TilesUsed = append(rec.TilesUsed, crop.TileID)
	}
	rec.AnnotationPosInOutput = sel.AnnotationPosInOutput(rec.MosaicCoord)

	outputPath := MakeCompositePath(params.JobID, ann)
	req := stitchRunner.MergeRequest{
		JobID:           params.JobID,
		AnnotationID:    ann.ID,
		RequestorUserID: params.RequestorUserID,
		Target:          sel.Target,
		Crops:           sel.Crops,
		OutputPath:      outputPath,
		EightBit:        svcs.Config.EightBitOutput,
	}

	err = mergeWithRetry(ctx, req, engine, svcs)
	if err != nil {
		rec.Status = catalog.StatusFailed
		rec.FailureReason = err.Error()
		return rec
	}

	// Only claim the output object once the merge said it's there
	rec.OutputPath = outputPath

	if sel.PartialCoverage {
		rec.Status = catalog.StatusPartialCoverage
	} else {
		rec.Status = catalog.StatusSuccess
	}
	return rec
}

// Retry and timeout policy around a single merge. A timed-out attempt counts
// the same as a failed one, backoff doubles between attempts.
func mergeWithRetry(ctx context.Context, req stitchRunner.MergeRequest, engine stitchRunner.StitchEngine, svcs *services.APIServices) error {
	attempts := int(svcs.Config.StitchRetryCount) + 1
	backoff := time.Duration(svcs.Config.StitchRetryBackoffMs) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			stitchMergeRetries.Inc()
			svcs.Log.Infof("Retrying merge for annotation %v (attempt %v of %v) in %v...", req.AnnotationID, attempt, attempts, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = mergeOnce(ctx, req, engine, svcs)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			// The batch is going away, not the attempt timing out
			return lastErr
		}

		svcs.Log.Errorf("Merge failed for annotation %v: %v", req.AnnotationID, lastErr)
	}

	return lastErr
}

func mergeOnce(ctx context.Context, req stitchRunner.MergeRequest, engine stitchRunner.StitchEngine, svcs *services.APIServices) error {
	timeout := time.Duration(svcs.Config.StitchTimeoutSec) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := engine.Merge(ctx, req)
	stitchMergeDuration.Observe(time.Since(start).Seconds())

	if err == context.DeadlineExceeded {
		return fmt.Errorf("merge timed out after %v", timeout)
	}
	return err
}
