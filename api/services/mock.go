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

package services

import (
	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/core/awsutil"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/idgen"
	"github.com/microstitch/core/core/jwtparser"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/timestamper"
)

const MosaicBucketForUnitTest = "mosaic-bucket"
const StitchJobsBucketForUnitTest = "stitch-jobs-bucket"
const ConfigBucketForUnitTest = "config-bucket"

// MakeMockSvcs builds a services container for unit tests. If mockS3 is nil the
// file access is the in-memory mock, otherwise it's S3 access against the
// expectation-checking S3 mock. Callers overwrite fields (TimeStamper queue,
// config values) as each test needs.
func MakeMockSvcs(mockS3 *awsutil.MockS3Client, idGen idgen.IDGenerator, logLevel *logger.LogLevel) APIServices {
	logging := logger.LogDebug
	if logLevel != nil {
		logging = *logLevel
	}

	cfg := config.APIConfig{
		MosaicBucket:        MosaicBucketForUnitTest,
		StitchJobsBucket:    StitchJobsBucketForUnitTest,
		ConfigBucket:        ConfigBucketForUnitTest,
		AWSBucketRegion:     "us-east-1",
		AWSCloudwatchRegion: "us-east-1",
		EnvironmentName:     "unit-test",
		LogLevel:            logging,
		KubernetesLocation:  "external",
		StitchExecutor:      "null",
		NodeCountOverride:   0,
	}
	config.ApplyDefaults(&cfg)

	var fs fileaccess.FileAccess
	if mockS3 != nil {
		fs = fileaccess.MakeS3Access(mockS3)
	} else {
		fs = fileaccess.MakeMemoryAccess()
	}

	return APIServices{
		Config: cfg,
		Log:    &logger.NullLogger{},
		S3:     mockS3,
		FS:     fs,
		IDGen:  idGen,
		Signer: &awsutil.MockSigner{},
		JWTReader: jwtparser.RealJWTReader{Validator: &jwtparser.MockJWTValidator{
			UserID:      "600f2a0806b6c70071d3d174",
			Name:        "Niko Bellic",
			Email:       "niko@spicule.co.uk",
			Permissions: []string{},
		}},
		Notifier:    NullNotifier{},
		TimeStamper: &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1234567890}},
	}
}
