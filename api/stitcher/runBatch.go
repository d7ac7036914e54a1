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
	"path"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitcher/stitchRunner"
	"github.com/microstitch/core/core/annotation"
	"github.com/microstitch/core/core/calibration"
	"github.com/microstitch/core/core/catalog"
	"github.com/microstitch/core/core/mosaic"
	"github.com/microstitch/core/core/tilefilename"
	"github.com/microstitch/core/core/utils"
)

var (
	stitchComposites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stitch_composites_total",
		Help: "Number of composites processed, by outcome.",
	}, []string{"status"})
	stitchBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stitch_batches_total",
		Help: "Number of stitch batches run, by outcome.",
	}, []string{"outcome"})
)

// RunStitchBatch - the whole pipeline for one job: load annotations + mosaic,
// calibrate, index, then a worker pool stitching every annotation. Job status
// and the catalog record where it all ended up. Blocking, the API triggers it
// as a go routine, command line tools call it directly.
func RunStitchBatch(ctx context.Context, params StitchParams, svcs *services.APIServices) {
	jobId := params.JobID
	logId := jobId

	// Command line runs can go DB-less, everything then lives in the catalog
	// CSVs and the local log only
	updateJob := func(status job.Status, message string) {
		if svcs.MongoDB != nil {
			job.UpdateJob(jobId, status, message, logId, svcs.MongoDB, svcs.TimeStamper, svcs.Log)
		}
	}
	completeJob := func(success bool, message string, outputFilePath string, otherFiles []string) {
		outcome := "success"
		if !success {
			outcome = "error"
			svcs.Log.Errorf("Stitch batch %v: %v", jobId, message)
		}
		stitchBatches.WithLabelValues(outcome).Inc()

		if svcs.MongoDB != nil {
			job.CompleteJob(jobId, success, message, outputFilePath, otherFiles, svcs.MongoDB, svcs.TimeStamper, svcs.Log)
		}
	}

	// Get the stitch engine, nothing to do if that's misconfigured
	engine, err := stitchRunner.GetStitchEngine(svcs.Config.StitchExecutor, svcs)
	if err != nil {
		completeJob(false, fmt.Sprintf("Failed to start stitch engine: %v", err), "", []string{})
		return
	}

	if svcs.Config.SerialEngine {
		engine = &serialMergeEngine{engine: engine}
	}

	annFile, landmarks, err := loadAnnotations(params, svcs)
	if err != nil {
		completeJob(false, fmt.Sprintf("Error: %v", err), "", []string{})
		return
	}
	annotations := annFile.Annotations

	mosaicMeta, err := loadMosaic(params, svcs)
	if err != nil {
		completeJob(false, fmt.Sprintf("Error: %v", err), "", []string{})
		return
	}

	// Calibration problems are fatal for the whole batch, mapping anything
	// through a broken transform would be worse than stopping
	transform, err := calibration.FitAffine(landmarks)
	if err != nil {
		completeJob(false, fmt.Sprintf("Calibration failed for mosaic %v: %v", mosaicMeta.ID, err), "", []string{})
		return
	}

	idx, err := mosaic.BuildIndex(mosaicMeta.Tiles, svcs.Config.OverlapTolerancePix)
	if err != nil {
		completeJob(false, fmt.Sprintf("Mosaic %v rejected: %v", mosaicMeta.ID, err), "", []string{})
		return
	}

	// In-process engines get the configured worker count. For kubernetes the
	// pool size is the pod fleet size, so it comes from node balancing
	workers := int(svcs.Config.MaxStitchWorkers)
	if svcs.Config.StitchExecutor == "kubernetes" {
		nodeCount := stitchRunner.EstimateNodeCount(int32(len(annotations)), svcs.Config.AnnotationsPerNode, svcs.Config.MaxStitchNodes)
		if svcs.Config.NodeCountOverride > 0 {
			nodeCount = svcs.Config.NodeCountOverride
			svcs.Log.Infof("Using node count override: %v", nodeCount)
		}
		workers = int(nodeCount)

		updateJob(job.StatusRunning, fmt.Sprintf("Node count: %v, Annotations/Node: %v", nodeCount, stitchRunner.AnnotationsPerNode(int32(len(annotations)), nodeCount)))
	} else {
		updateJob(job.StatusRunning, fmt.Sprintf("Stitching %v annotations on %v workers", len(annotations), workers))
	}

	// Results keep annotation submission order no matter which worker gets
	// there first, and on cancellation the slots that finished still flush
	results := make([]*catalog.Record, len(annotations))

	type task struct {
		idx int
		ann annotation.Annotation
	}
	tasks := make(chan task)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				rec := ProcessAnnotation(ctx, t.ann, transform, idx, params, engine, svcs)
				results[t.idx] = &rec
			}
		}()
	}

feed:
	for i, ann := range annotations {
		select {
		case <-ctx.Done():
			svcs.Log.Infof("Stitch batch %v cancelled, stopping dispatch", jobId)
			break feed
		case tasks <- task{idx: i, ann: ann}:
		}
	}
	close(tasks)
	wg.Wait()

	// Flush what completed, in submission order
	cat := &catalog.Catalog{}
	for _, rec := range results {
		if rec != nil {
			cat.Record(*rec)
		}
	}
	recs := cat.All()

	counts := map[catalog.Status]int{}
	for _, rec := range recs {
		counts[rec.Status]++
		stitchComposites.WithLabelValues(string(rec.Status)).Inc()
	}

	csvFiles, err := catalog.WriteCSV(svcs.FS, svcs.Config.StitchJobsBucket, path.Join(jobId, "catalog", "records"), 0, recs)
	if err != nil {
		svcs.Log.Errorf("Failed to write catalog CSV for job %v: %v", jobId, err)
		csvFiles = []string{}
	}

	if svcs.MongoDB != nil {
		err = catalog.SaveRecords(svcs.MongoDB, jobId, recs)
		if err != nil {
			svcs.Log.Errorf("Failed to save catalog records for job %v: %v", jobId, err)
		}
	}

	outPath := ""
	if len(csvFiles) > 0 {
		outPath = csvFiles[0]
	}

	if ctx.Err() != nil {
		completeJob(false, fmt.Sprintf("Cancelled after %v of %v annotations", len(recs), len(annotations)), outPath, csvFiles)
		return
	}

	completeJob(true, fmt.Sprintf("Stitched %v annotations: %v ok, %v partial, %v failed",
		len(recs), counts[catalog.StatusSuccess], counts[catalog.StatusPartialCoverage], counts[catalog.StatusFailed]), outPath, csvFiles)
}

// Merges run one at a time, mapping and tile selection stay parallel. For
// lab workstations where tile IO is the bottleneck anyway.
type serialMergeEngine struct {
	mu     sync.Mutex
	engine stitchRunner.StitchEngine
}

func (s *serialMergeEngine) Merge(ctx context.Context, req stitchRunner.MergeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Merge(ctx, req)
}

func loadAnnotations(params StitchParams, svcs *services.APIServices) (annotation.AnnotationFile, []calibration.CalibrationPair, error) {
	annFile := annotation.AnnotationFile{}

	annPath := params.AnnotationsPath
	if len(annPath) <= 0 {
		annPath = path.Join(params.MosaicID, AnnotationsFileName)
	}

	err := svcs.FS.ReadJSON(svcs.Config.MosaicBucket, annPath, &annFile, false)
	if err != nil {
		return annFile, nil, fmt.Errorf("failed to read annotations from s3://%v/%v: %v", svcs.Config.MosaicBucket, annPath, err)
	}

	err = annotation.ValidateUniqueIDs(annFile.Annotations)
	if err != nil {
		return annFile, nil, err
	}

	landmarks := annFile.Landmarks
	if len(params.LandmarksPath) > 0 {
		// A separately supplied landmark file wins over pairs embedded in
		// the annotation file
		landmarks = []calibration.CalibrationPair{}
		err = svcs.FS.ReadJSON(svcs.Config.MosaicBucket, params.LandmarksPath, &landmarks, false)
		if err != nil {
			return annFile, nil, fmt.Errorf("failed to read landmarks from s3://%v/%v: %v", svcs.Config.MosaicBucket, params.LandmarksPath, err)
		}
	}

	return annFile, landmarks, nil
}

func loadMosaic(params StitchParams, svcs *services.APIServices) (*mosaic.Metadata, error) {
	meta := &mosaic.Metadata{}

	metaPath := path.Join(params.MosaicID, MosaicFileName)
	err := svcs.FS.ReadJSON(svcs.Config.MosaicBucket, metaPath, meta, false)
	if err == nil {
		return meta, nil
	}
	if !svcs.FS.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to read mosaic metadata from s3://%v/%v: %v", svcs.Config.MosaicBucket, metaPath, err)
	}

	// No metadata JSON. Older mosaics only carry grid positions in the tile
	// file names, so index those instead
	svcs.Log.Infof("No %v for mosaic %v, indexing tile file names...", MosaicFileName, params.MosaicID)
	return indexTilesFromListing(params.MosaicID, svcs)
}

func indexTilesFromListing(mosaicID string, svcs *services.APIServices) (*mosaic.Metadata, error) {
	tilesPrefix := path.Join(mosaicID, "tiles") + "/"
	files, err := svcs.FS.ListObjects(svcs.Config.MosaicBucket, tilesPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiles for mosaic %v: %v", mosaicID, err)
	}

	names := []string{}
	pathForName := map[string]string{}
	for _, objPath := range files {
		name := path.Base(objPath)
		names = append(names, name)
		pathForName[name] = objPath
	}

	latest := tilefilename.LatestZTiles(names, svcs.Log)
	if len(latest) <= 0 {
		return nil, fmt.Errorf("no tiles found for mosaic: %v", mosaicID)
	}

	// Tiles of a mosaic share the microscope frame size, so read one image
	// to size the whole grid
	var pixelWidth, pixelHeight int32
	for name := range latest {
		data, err := svcs.FS.ReadObject(svcs.Config.MosaicBucket, pathForName[name])
		if err != nil {
			return nil, fmt.Errorf("failed to read tile %v: %v", pathForName[name], err)
		}
		img, err := utils.DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tile %v: %v", pathForName[name], err)
		}
		pixelWidth = int32(img.Bounds().Dx())
		pixelHeight = int32(img.Bounds().Dy())
		break
	}

	tiles := []mosaic.Tile{}
	for name, meta := range latest {
		tile, err := tilefilename.MetaToTile(meta, pixelWidth, pixelHeight, pathForName[name])
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, tile)
	}

	return &mosaic.Metadata{ID: mosaicID, Name: mosaicID, Tiles: tiles}, nil
}
