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

	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitchnode"
	"github.com/microstitch/core/core/mosaic"
)

// JobParamsFileName - File name of job params file
const JobParamsFileName = "params.json"

// Well known object names under a mosaic's prefix in the mosaic bucket
const AnnotationsFileName = "annotations.json"
const MosaicFileName = mosaic.MetadataFileName

// StitchParams - everything needed to run a stitch batch. Saved to the jobs
// bucket as JobParamsFileName so nodes (and humans) can see what was asked for
type StitchParams struct {
	JobID             string `json:"jobId"`
	MosaicID          string `json:"mosaicId"`
	AnnotationsPath   string `json:"annotationsPath,omitempty"`
	LandmarksPath     string `json:"landmarksPath,omitempty"`
	Name              string `json:"name,omitempty"`
	RequestorUserID   string `json:"requestorUserId,omitempty"`
	StitchNodeVersion string `json:"stitchNodeVersion,omitempty"`
	AutoTriggered     bool   `json:"autoTriggered,omitempty"`
	StartUnixTimeSec  uint32 `json:"startUnixTimeSec,omitempty"`
}

// CreateStitchJob - creates a new stitch job: persists the params, registers
// the job for status watching and kicks the batch off in the background. The
// wait group lets tests (and the trigger lambda) wait for the batch itself.
func CreateStitchJob(params StitchParams, svcs *services.APIServices, wg *sync.WaitGroup) (*job.JobStatus, error) {
	if len(params.MosaicID) <= 0 {
		return nil, fmt.Errorf("no mosaic id supplied")
	}

	// If this batch will run on pods, find out now which stitch-node build,
	// so a bad version config fails the request instead of the job
	if svcs.Config.StitchExecutor == "kubernetes" {
		ver, err := stitchnode.GetStitchNodeVersion(svcs)
		if err != nil || len(ver.Version) <= 0 {
			return nil, fmt.Errorf("Failed to get stitch-node version configuration. Error: %v", err)
		}
		params.StitchNodeVersion = ver.Version
	}

	jobIdPrefix := "stitch"
	if params.AutoTriggered {
		// Jobs the annotation upload lambda starts stand out, and the API's
		// external job listener picks their updates up by this prefix
		jobIdPrefix = "auto-stitch"
	}

	if len(params.Name) <= 0 {
		params.Name = "stitch " + params.MosaicID
	}

	jobStatus, err := job.AddJob(
		jobIdPrefix,
		params.RequestorUserID,
		job.TypeStitch,
		params.MosaicID,
		params.Name,
		svcs.Config.JobMaxTimeSec,
		svcs.MongoDB,
		svcs.IDGen,
		svcs.TimeStamper,
		svcs.Log,
		svcs.Notifier.NotifyJobUpdate)
	if err != nil {
		svcs.Log.Errorf("Failed to add job watcher for stitch job on mosaic %v: %v", params.MosaicID, err)
		return nil, err
	}

	params.JobID = jobStatus.JobID
	params.StartUnixTimeSec = jobStatus.StartUnixTimeSec

	svcs.Log.Infof("stitchCreate: mosaic %v, requestor %v. Job ID: %v", params.MosaicID, params.RequestorUserID, params.JobID)

	// Save params to the jobs bucket (so nodes can read them)
	paramsPath := path.Join(params.JobID, JobParamsFileName)
	err = svcs.FS.WriteJSON(svcs.Config.StitchJobsBucket, paramsPath, params)
	if err != nil {
		return nil, err
	}

	wg.Add(1)

	// Trigger the batch in a go routine, so we don't block!
	go triggerStitchBatch(params, svcs, wg)

	return jobStatus, nil
}

// This should be triggered as a go routine from the stitch creation endpoint
// so we can return a job id there quickly and do the processing offline
func triggerStitchBatch(params StitchParams, svcs *services.APIServices, wg *sync.WaitGroup) {
	defer wg.Done()

	RunStitchBatch(context.Background(), params, svcs)
}
