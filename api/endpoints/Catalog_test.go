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
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/core/awsutil"
)

// Reading records back goes through mongo, which these tests don't stand up.
// The CSV the batch exported streams straight out of S3 though
func Example_catalogCSVStream() {
	csvRows := []byte("annotation_id,category,source_group,physical_x,physical_y,mosaic_x,mosaic_y,tiles_used,output_path,pos_in_output_x,pos_in_output_y,status,failure_reason,classifier_score\n" +
		"ann-0001,cell,moss-0042,-0.000477,0.000242,76492.58,79269.21,tile-3-4;tile-3-5,stitch-abc123/composites/cell_ann-0001.png,310,256,success,,\n")

	var mockS3 awsutil.MockS3Client
	defer mockS3.FinishTest()

	mockS3.ExpGetObjectInput = []s3.GetObjectInput{
		{
			Bucket: aws.String(services.StitchJobsBucketForUnitTest), Key: aws.String("stitch-abc123/catalog/records.csv"),
		},
		{
			Bucket: aws.String(services.StitchJobsBucketForUnitTest), Key: aws.String("stitch-nonexistant/catalog/records.csv"),
		},
	}
	mockS3.QueuedGetObjectOutput = []*s3.GetObjectOutput{
		{
			ContentLength: aws.Int64(int64(len(csvRows))),
			Body:          io.NopCloser(bytes.NewReader(csvRows)),
		},
		nil,
	}

	svcs := services.MakeMockSvcs(&mockS3, nil, nil)
	apiRouter := MakeRouter(svcs)

	req, _ := http.NewRequest("GET", "/catalog/download/stitch-abc123", nil)
	resp := executeRequest(req, apiRouter.Router)

	fmt.Println(resp.Code)
	fmt.Println(resp.HeaderMap["Content-Disposition"])
	fmt.Println(resp.Body)

	req, _ = http.NewRequest("GET", "/catalog/download/stitch-nonexistant", nil)
	resp = executeRequest(req, apiRouter.Router)

	fmt.Println(resp.Code)
	fmt.Println(resp.Body)

	// Output:
	// 200
	// [attachment; filename="stitch-abc123-catalog.csv"]
	// annotation_id,category,source_group,physical_x,physical_y,mosaic_x,mosaic_y,tiles_used,output_path,pos_in_output_x,pos_in_output_y,status,failure_reason,classifier_score
	// ann-0001,cell,moss-0042,-0.000477,0.000242,76492.58,79269.21,tile-3-4;tile-3-5,stitch-abc123/composites/cell_ann-0001.png,310,256,success,,
	//
	// 404
	// stitch-nonexistant-catalog.csv not found
}
