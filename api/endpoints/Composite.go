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
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/core/errorwithstatus"
)

// Where the stitch engine leaves composite images under the job's prefix
const compositesSubDir = "composites"

const fileNameIdentifier = "fileName"

type compositeDownloadable struct {
	FileName        string `json:"fileName"`
	FileSizeBytes   int64  `json:"fileSizeBytes"`
	ModifiedUnixSec int64  `json:"modifiedUnixSec"`
	DownloadLink    string `json:"downloadUrl"`
}

// CompositeListResponse lists what a stitch job produced
type CompositeListResponse struct {
	JobID string                  `json:"jobId"`
	Files []compositeDownloadable `json:"files"`
}

func registerCompositeHandler(router *apiRouter.ApiObjectRouter) {
	const pathPrefix = "composite"

	// What composites a job produced, with signed links to fetch them
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix, jobIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermDownloadComposites), compositeList)

	// One composite image, streamed through the API
	router.AddStreamHandler(handlers.MakeEndpointPath(pathPrefix+"/download", jobIdentifier, fileNameIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermDownloadComposites), compositeStream)
}

func compositeList(params handlers.ApiHandlerParams) (interface{}, error) {
	jobId := params.PathParams[jobIdentifier]
	if len(jobId) <= 0 {
		return nil, errorwithstatus.MakeBadRequestError(errors.New("Job id was not supplied"))
	}

	listPrefix := path.Join(jobId, compositesSubDir) + "/"
	resp, err := params.Svcs.S3.ListObjectsV2(
		&s3.ListObjectsV2Input{
			Bucket: aws.String(params.Svcs.Config.StitchJobsBucket),
			Prefix: aws.String(listPrefix),
		})

	if err != nil {
		params.Svcs.Log.Errorf("Failed to list composites in %v/%v: %v", params.Svcs.Config.StitchJobsBucket, listPrefix, err)
		return nil, err
	}

	result := CompositeListResponse{JobID: jobId, Files: []compositeDownloadable{}}
	for _, item := range resp.Contents {
		// The engine only ever writes PNGs here, anything else is stray
		if item.Key != nil && item.LastModified != nil && item.Size != nil && strings.HasSuffix(*item.Key, ".png") {
			// Generate signed URL so it can be downloaded directly from S3
			url, err := params.Svcs.Signer.GetSignedURL(params.Svcs.S3, params.Svcs.Config.StitchJobsBucket, *item.Key, config.CompositeDownloadSignedURLExpirySec)
			if err != nil {
				return nil, err
			}

			result.Files = append(result.Files, compositeDownloadable{
				FileName:        path.Base(*item.Key),
				FileSizeBytes:   *item.Size,
				ModifiedUnixSec: item.LastModified.Unix(),
				DownloadLink:    url,
			})
		}
	}

	return &result, nil
}

func compositeStream(params handlers.ApiHandlerStreamParams) (*s3.GetObjectOutput, string, error) {
	jobId := params.PathParams[jobIdentifier]
	fileName := params.PathParams[fileNameIdentifier]

	s3Path := path.Join(jobId, compositesSubDir, fileName)
	obj := &s3.GetObjectInput{
		Bucket: aws.String(params.Svcs.Config.StitchJobsBucket),
		Key:    aws.String(s3Path),
	}

	result, err := params.Svcs.S3.GetObject(obj)
	return result, fileName, err
}
