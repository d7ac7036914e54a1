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
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/idgen"
	"github.com/microstitch/core/core/jwtparser"
	"github.com/microstitch/core/core/timestamper"

	"github.com/getsentry/sentry-go"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/core/awsutil"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/mongoDBConnection"
)

// NOTE: these 2 vars are set during compilation in CI build (see Makefile)
var ApiVersion string
var GitHash string

// Auth0 public key PEM, stored in the config bucket
const auth0PemPath = "auth0.pem"

// This defines some generic interfaces that are used by a lot of the API code. Instead
// of using a bunch of global variables we pass around this services object and other
// code has access to a logger, random string generator etc.
// This comes in very useful when writing unit tests, since we can mock these interfaces

////////////////////////////////////////////////////////////////////////////////////////////////////////////

// APIServices contains any services that HTTP handlers and job code would want to use, like logging/config reading
type APIServices struct {
	// Configuration read in on startup
	Config config.APIConfig

	// Default logger
	Log logger.ILogger

	// This is configured on startup to talk to the configured AWSCloudwatchRegion
	AWSSessionCW *session.Session

	// Anything talking to S3 should use this
	S3 s3iface.S3API

	// Anything accessing files should use this
	FS fileaccess.FileAccess

	// ID generator
	IDGen idgen.IDGenerator

	// URL signer for S3
	Signer awsutil.URLSigner

	// JWT user info reader, for handlers that need to know who's calling
	JWTReader jwtparser.IJWTReader

	// Job update fan-out. The API server plugs in its web socket broadcaster,
	// lambdas and command line tools leave the null one in place
	Notifier INotifier

	// Timestamp retriever - so can be mocked for unit tests
	TimeStamper timestamper.ITimeStamper

	// Our mongo db connection
	MongoDB *mongo.Database
}

// InitAPIServices sets up a new APIServices instance
func InitAPIServices(cfg config.APIConfig) APIServices {
	// Get a session for the bucket region
	sess, err := awsutil.GetSession()
	if err != nil {
		log.Fatalf("Failed to create AWS session. Error: %v", err)
	}

	s3svc, err := awsutil.GetS3(sess)
	if err != nil {
		log.Fatalf("Failed to create AWS S3 service. Error: %v", err)
	}

	fs := fileaccess.MakeS3Access(s3svc)

	// Init default logger - if we're local, we just output to stdout
	var ourLogger logger.ILogger
	if cfg.EnvironmentName == "local" {
		ourLogger = &logger.StdOutLogger{}
	} else {
		errLogger := &logger.StdErrLogger{}
		errLogger.SetLogLevel(cfg.LogLevel)
		ourLogger = errLogger
	}

	if cfg.EnvironmentName != "local" && cfg.EnvironmentName != "unit-test" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryEndpoint,
			Environment: cfg.EnvironmentName,
			Release:     ApiVersion,
		}); err != nil {
			ourLogger.Errorf("Sentry initialization failed: %v", err)
		}
	}

	jwtValidator, err := jwtparser.InitJWTValidator(cfg.Auth0Domain, cfg.ConfigBucket, auth0PemPath, fs)
	if err != nil {
		log.Fatalf("Failed to init JWT validator. Error: %v", err)
	}

	// Connect to mongo, local is used when no secret is configured
	mongoClient, err := mongoDBConnection.Connect(sess, cfg.MongoSecret, ourLogger)
	if err != nil {
		ourLogger.Errorf("Failed to connect to mongo: %v", err)
		log.Fatalf("%v", err)
	}

	dbName := mongoDBConnection.GetDatabaseName("microstitch", cfg.EnvironmentName)
	db := mongoClient.Database(dbName)

	return APIServices{
		Config:       cfg,
		Log:          ourLogger,
		AWSSessionCW: sess,
		S3:           s3svc,
		FS:           fs,
		IDGen:        &idgen.IDGen{},
		Signer:       &awsutil.RealURLSigner{},
		JWTReader:    jwtparser.RealJWTReader{Validator: jwtValidator},
		Notifier:     NullNotifier{},
		TimeStamper:  &timestamper.UnixTimeNowStamper{},
		MongoDB:      db,
	}
}
