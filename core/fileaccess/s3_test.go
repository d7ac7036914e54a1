// Copyright (c) 2018-2022 California Institute of Technology (“Caltech”). U.S.
// Government sponsorship acknowledged.
// All rights reserved.
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
// * Neither the name of Caltech nor its operating division, the Jet Propulsion
//   Laboratory, nor the names of its contributors may be used to endorse or
//   promote products derived from this software without specific prior written
//   permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT OWNER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package fileaccess

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/microstitch/core/core/awsutil"
)

func Example_s3ListingWithContinuation() {
	const bucket = "dev-microstitch-mosaics"
	const listPath = "m0042/tiles/"

	var mockS3 awsutil.MockS3Client
	defer mockS3.FinishTest()

	mockS3.ExpListObjectsV2Input = []s3.ListObjectsV2Input{
		{
			Bucket: aws.String(bucket), Prefix: aws.String(listPath),
		},
		{
			Bucket: aws.String(bucket), Prefix: aws.String(listPath), ContinuationToken: aws.String("cont-1"),
		},
		{
			Bucket: aws.String(bucket), Prefix: aws.String(listPath), ContinuationToken: aws.String("cont-2"),
		},
	}
	mockS3.QueuedListObjectsV2Output = []*s3.ListObjectsV2Output{
		{
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("cont-1"),
			Contents: []*s3.Object{
				{Key: aws.String("m0042/tiles/Tile_000-000-508f2c_z-001.tif")},
				{Key: aws.String("m0042/tiles/Tile_000-001-508f2c_z-001.tif")},
				{Key: aws.String("m0042/tiles/Tile_000-002-508f2c_z-001.tif")},
			},
		},
		{
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("cont-2"),
			Contents: []*s3.Object{
				{Key: aws.String("m0042/tiles/Tile_001-000-508f2c_z-001.tif")},
				{Key: aws.String("m0042/tiles/Tile_001-001-508f2c_z-001.tif")},
				{Key: aws.String("m0042/tiles/")},
			},
		},
		{
			IsTruncated: aws.Bool(false),
			Contents: []*s3.Object{
				{Key: aws.String("m0042/tiles/Tile_001-002-508f2c_z-001.tif")},
			},
		},
	}

	fs := MakeS3Access(&mockS3)
	list, err := fs.ListObjects(bucket, listPath)
	fmt.Printf("%v, list: %v\n", err, list)

	// NOTE: the directory-style key in the second page must be filtered out

	// Output:
	// <nil>, list: [m0042/tiles/Tile_000-000-508f2c_z-001.tif m0042/tiles/Tile_000-001-508f2c_z-001.tif m0042/tiles/Tile_000-002-508f2c_z-001.tif m0042/tiles/Tile_001-000-508f2c_z-001.tif m0042/tiles/Tile_001-001-508f2c_z-001.tif m0042/tiles/Tile_001-002-508f2c_z-001.tif]
}

func Example_s3ReadWriteJSON() {
	const bucket = "dev-microstitch-mosaics"

	type mosaicSummary struct {
		Name      string `json:"name"`
		TileCount int    `json:"tileCount"`
	}

	expBody := `{
    "name": "m0042",
    "tileCount": 180
}`

	var mockS3 awsutil.MockS3Client
	defer mockS3.FinishTest()

	mockS3.ExpPutObjectInput = []s3.PutObjectInput{
		{
			Bucket: aws.String(bucket), Key: aws.String("m0042/summary.json"), Body: bytes.NewReader([]byte(expBody)),
		},
	}
	mockS3.QueuedPutObjectOutput = []*s3.PutObjectOutput{
		{},
	}
	mockS3.ExpGetObjectInput = []s3.GetObjectInput{
		{
			Bucket: aws.String(bucket), Key: aws.String("m0042/summary.json"),
		},
	}
	mockS3.QueuedGetObjectOutput = []*s3.GetObjectOutput{
		{
			Body: io.NopCloser(bytes.NewReader([]byte(expBody))),
		},
	}

	fs := MakeS3Access(&mockS3)
	fmt.Printf("Write: %v\n", fs.WriteJSON(bucket, "m0042/summary.json", mosaicSummary{Name: "m0042", TileCount: 180}))

	var readBack mosaicSummary
	err := fs.ReadJSON(bucket, "m0042/summary.json", &readBack, false)
	fmt.Printf("Read: %v, %v\n", err, readBack)

	// Output:
	// Write: <nil>
	// Read: <nil>, {m0042 180}
}
