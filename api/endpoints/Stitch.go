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

package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/api/stitcher"
	"github.com/microstitch/core/core/errorwithstatus"
	"github.com/microstitch/core/core/mosaic"
	"go.mongodb.org/mongo-driver/mongo"
)

const jobIdentifier = "jobId"

// StitchCreateRequest is the POST body for starting a stitch batch
type StitchCreateRequest struct {
	MosaicID        string `json:"mosaicId"`
	Name            string `json:"name,omitempty"`
	AnnotationsPath string `json:"annotationsPath,omitempty"`
	LandmarksPath   string `json:"landmarksPath,omitempty"`
}

func registerStitchHandler(router *apiRouter.ApiObjectRouter) {
	const pathPrefix = "stitch"

	// Start a stitch batch
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix), apiRouter.MakeMethodPermission("POST", permission.PermWriteStitchJobs), stitchPost)

	// Watch how it's going
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix, jobIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermReadStitchJobs), stitchJobGet)
}

func stitchPost(params handlers.ApiHandlerParams) (interface{}, error) {
	// Read in body
	body, err := io.ReadAll(params.Request.Body)
	if err != nil {
		return nil, err
	}

	var req StitchCreateRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		return nil, errorwithstatus.MakeBadRequestError(err)
	}

	if len(req.MosaicID) <= 0 {
		return nil, errorwithstatus.MakeBadRequestError(errors.New("MosaicId was not supplied"))
	}

	// The requestor must be able to see the mosaic they want stitched. Older
	// mosaics have no metadata file, those aren't group restricted
	meta, err := mosaic.ReadMetadata(params.Svcs.FS, params.Svcs.Config.MosaicBucket, req.MosaicID)
	if err == nil {
		if err = permission.UserCanAccessMosaic(params.UserInfo, meta); err != nil {
			return nil, err
		}
	} else if !params.Svcs.FS.IsNotFoundError(err) {
		return nil, err
	}

	stitchParams := stitcher.StitchParams{
		MosaicID:        req.MosaicID,
		AnnotationsPath: req.AnnotationsPath,
		LandmarksPath:   req.LandmarksPath,
		Name:            req.Name,
		RequestorUserID: params.UserInfo.UserID,
	}

	var wg sync.WaitGroup
	jobStatus, err := stitcher.CreateStitchJob(stitchParams, params.Svcs, &wg)
	if err != nil {
		return nil, err
	}

	// The batch runs on in the background, callers poll the job id we hand
	// back (or listen on the web socket)
	return jobStatus, nil
}

func stitchJobGet(params handlers.ApiHandlerParams) (interface{}, error) {
	jobId := params.PathParams[jobIdentifier]
	if len(jobId) <= 0 {
		return nil, errorwithstatus.MakeBadRequestError(errors.New("Job id was not supplied"))
	}

	status, err := job.GetJobStatus(jobId, params.Svcs.MongoDB)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errorwithstatus.MakeNotFoundError(jobId)
		}
		return nil, err
	}

	return status, nil
}
