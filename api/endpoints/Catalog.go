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
	"errors"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/core/catalog"
	"github.com/microstitch/core/core/errorwithstatus"
	"go.mongodb.org/mongo-driver/mongo"
)

// Where the batch leaves its catalog under the job's prefix
const catalogSubDir = "catalog"
const catalogCSVFileName = "records.csv"

// Uploaded by the downstream classifier after it reviews the composites
const classifierScoresFileName = "scores.csv"

// CatalogGetResponse is what a catalog query returns
type CatalogGetResponse struct {
	JobID   string           `json:"jobId"`
	Records []catalog.Record `json:"records"`
}

func registerCatalogHandler(router *apiRouter.ApiObjectRouter) {
	const pathPrefix = "catalog"

	// Catalog records of a finished job
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix, jobIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermReadStitchJobs), catalogGet)

	// The CSV the batch wrote, as a download
	router.AddStreamHandler(handlers.MakeEndpointPath(pathPrefix+"/download", jobIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermDownloadComposites), catalogCSVStream)
}

func catalogGet(params handlers.ApiHandlerParams) (interface{}, error) {
	jobId := params.PathParams[jobIdentifier]
	if len(jobId) <= 0 {
		return nil, errorwithstatus.MakeBadRequestError(errors.New("Job id was not supplied"))
	}

	// Make sure the job is real, so unknown ids get a 404 not an empty list
	_, err := job.GetJobStatus(jobId, params.Svcs.MongoDB)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errorwithstatus.MakeNotFoundError(jobId)
		}
		return nil, err
	}

	recs, err := catalog.ReadRecords(params.Svcs.MongoDB, jobId)
	if err != nil {
		return nil, err
	}

	// If the classifier has been through the composites, its scores join in.
	// No scores file just means nobody has run it yet
	scoresPath := path.Join(jobId, catalogSubDir, classifierScoresFileName)
	scores, err := catalog.ReadClassifierScores(params.Svcs.FS, params.Svcs.Config.StitchJobsBucket, scoresPath)
	if err != nil {
		if !params.Svcs.FS.IsNotFoundError(err) {
			// A broken scores file shouldn't take catalog reads down with it
			params.Svcs.Log.Errorf("Failed to read classifier scores for job %v: %v", jobId, err)
		}
	} else {
		recs = catalog.JoinScores(recs, scores)
	}

	return &CatalogGetResponse{JobID: jobId, Records: recs}, nil
}

func catalogCSVStream(params handlers.ApiHandlerStreamParams) (*s3.GetObjectOutput, string, error) {
	jobId := params.PathParams[jobIdentifier]

	s3Path := path.Join(jobId, catalogSubDir, catalogCSVFileName)
	obj := &s3.GetObjectInput{
		Bucket: aws.String(params.Svcs.Config.StitchJobsBucket),
		Key:    aws.String(s3Path),
	}

	result, err := params.Svcs.S3.GetObject(obj)

	// Serve under a name that says which job it came from
	return result, jobId + "-catalog.csv", err
}
