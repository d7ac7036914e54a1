package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"

	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitcher"
	"github.com/microstitch/core/core/awsutil"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/idgen"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/mongoDBConnection"
	"github.com/microstitch/core/core/timestamper"
)

// Watches the mosaic bucket. When a viewer (or anything else) drops an
// annotation file at <mosaicID>/annotations.json a stitch job starts without
// any API call involved. The job id prefix marks these so the API's external
// job listener pushes their updates out to connected viewers.

func HandleRequest(ctx context.Context, event awsutil.Event) (string, error) {
	iLog := &logger.StdOutLogger{}

	iLog.Infof("======================================")
	iLog.Infof("=  MicroStitch annotation trigger    =")
	iLog.Infof("======================================")

	svcs, err := initTriggerServices(iLog)
	if err != nil {
		return "", err
	}

	// One wait group across all records, the lambda only returns once every
	// batch it started has run to completion
	var wg sync.WaitGroup
	started := []string{}
	errCount := 0

	for _, record := range event.Records {
		s3Entities, err := s3EntitiesFromRecord(record)
		if err != nil {
			iLog.Errorf("Skipping %v record: %v", record.EventSource, err)
			errCount++
			continue
		}

		for _, entity := range s3Entities {
			mosaicID := annotationUploadMosaicID(entity.Object.Key)
			if len(mosaicID) <= 0 {
				iLog.Infof("Ignoring object: s3://%v/%v", entity.Bucket.Name, entity.Object.Key)
				continue
			}

			// The file landed in whichever mosaic bucket is wired to us
			svcs.Config.MosaicBucket = entity.Bucket.Name

			jobStatus, err := stitcher.CreateStitchJob(stitcher.StitchParams{
				MosaicID:        mosaicID,
				AnnotationsPath: entity.Object.Key,
				RequestorUserID: "auto-stitch",
				AutoTriggered:   true,
			}, svcs, &wg)

			if err != nil {
				// Don't stop here, other records may still be good
				iLog.Errorf("Failed to start stitch job for mosaic %v: %v", mosaicID, err)
				errCount++
				continue
			}

			iLog.Infof("Started job %v for mosaic %v", jobStatus.JobID, mosaicID)
			started = append(started, jobStatus.JobID)
		}
	}

	wg.Wait()

	if errCount > 0 {
		return strings.Join(started, ","), fmt.Errorf("stitch trigger failed for %v of %v records", errCount, len(event.Records))
	}

	return fmt.Sprintf("----- DONE: %v jobs -----", len(started)), nil
}

// Annotation uploads arrive direct from S3, or wrapped in an SNS notification
// depending on how the bucket events are routed
func s3EntitiesFromRecord(record awsutil.Record) ([]events.S3Entity, error) {
	if record.EventSource == "aws:sns" {
		inner := awsutil.Event{}
		err := inner.UnmarshalJSON([]byte(record.SNS.Message))
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode SNS message as an S3 event")
		}
		if len(inner.Records) <= 0 {
			return nil, errors.Errorf("SNS message held no S3 records: %v", record.SNS.Message)
		}

		result := []events.S3Entity{}
		for _, innerRecord := range inner.Records {
			result = append(result, innerRecord.S3)
		}
		return result, nil
	}

	return []events.S3Entity{record.S3}, nil
}

// Only objects at exactly <mosaicID>/annotations.json trigger jobs. Tile
// uploads and job outputs share notification config in some deployments, so
// everything else is ignored, not an error
func annotationUploadMosaicID(objectKey string) string {
	if path.Base(objectKey) != stitcher.AnnotationsFileName {
		return ""
	}

	mosaicID := path.Dir(objectKey)
	if mosaicID == "." || strings.Contains(mosaicID, "/") {
		return ""
	}

	return mosaicID
}

func initTriggerServices(iLog logger.ILogger) (*services.APIServices, error) {
	jobsBucket := os.Getenv("STITCH_JOBS_BUCKET")
	if len(jobsBucket) <= 0 {
		return nil, errors.New("STITCH_JOBS_BUCKET not configured")
	}

	envName := os.Getenv("ENVIRONMENT_NAME")
	if len(envName) <= 0 {
		return nil, errors.New("ENVIRONMENT_NAME not configured")
	}

	executor := os.Getenv("STITCH_EXECUTOR")
	if len(executor) <= 0 {
		// In-process merges, a lambda has no kubernetes cluster on hand
		executor = "image"
	}

	cfg := config.APIConfig{
		StitchJobsBucket: jobsBucket,
		ConfigBucket:     os.Getenv("CONFIG_BUCKET"),
		MongoSecret:      os.Getenv("MONGO_SECRET"),
		EnvironmentName:  envName,
		StitchExecutor:   executor,
	}
	config.ApplyDefaults(&cfg)

	sess, err := awsutil.GetSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}
	s3svc, err := awsutil.GetS3(sess)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS S3 service")
	}

	mongoClient, err := mongoDBConnection.Connect(sess, cfg.MongoSecret, iLog)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongo")
	}

	db := mongoClient.Database(mongoDBConnection.GetDatabaseName("microstitch", envName))
	dbCollections.InitCollections(db, iLog)

	return &services.APIServices{
		Config:      cfg,
		Log:         iLog,
		S3:          s3svc,
		FS:          fileaccess.MakeS3Access(s3svc),
		IDGen:       &idgen.IDGen{},
		Notifier:    services.NullNotifier{},
		TimeStamper: &timestamper.UnixTimeNowStamper{},
		MongoDB:     db,
	}, nil
}

func main() {
	lambda.Start(HandleRequest)
}
