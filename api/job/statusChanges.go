package job

import (
	"context"

	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/timestamper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Status writes for whatever is running the job. The watcher goroutine
// AddJob started notices the DB change and fires the update out, so these
// work the same whether the runner is a goroutine in this process, a
// lambda, or a stitch node pod.

func UpdateJob(jobId string, status Status, message string, logId string, db *mongo.Database, ts timestamper.ITimeStamper, logger logger.ILogger) error {
	coll := db.Collection(dbCollections.JobStatusName)

	jobStatus := &JobStatus{
		JobID:                 jobId,
		Status:                status,
		Message:               message,
		LogID:                 logId,
		LastUpdateUnixTimeSec: uint32(ts.GetTimeNowSec()),
	}

	// The fields a status update doesn't own carry across from the stored record
	if existing, err := readJobStatus(jobId, coll); err != nil {
		logger.Errorf("Failed to read existing job status when writing UpdateJob %v: %v", jobId, err)
	} else {
		jobStatus.StartUnixTimeSec = existing.StartUnixTimeSec
		jobStatus.JobType = existing.JobType
		jobStatus.JobItemID = existing.JobItemID
		jobStatus.RequestorUserID = existing.RequestorUserID
		jobStatus.Name = existing.Name
		jobStatus.OtherLogFiles = existing.OtherLogFiles
	}

	if err := replaceJobStatus("UpdateJob", jobId, jobStatus, coll, logger); err != nil {
		return err
	}

	logger.Infof("UpdateJob: %v with status %v, message: %v", jobId, status, message)
	return nil
}

// CompleteJob - the job's final status write, carrying where its output
// ended up. Also drops the job from this instance's active set
func CompleteJob(jobId string, success bool, message string, outputFilePath string, otherLogFiles []string, db *mongo.Database, ts timestamper.ITimeStamper, logger logger.ILogger) error {
	status := StatusComplete
	if !success {
		status = StatusError
	}

	logger.Infof("Job: %v completed with status: %v, message: %v", jobId, status, message)

	now := uint32(ts.GetTimeNowSec())
	coll := db.Collection(dbCollections.JobStatusName)

	jobStatus := &JobStatus{
		JobID:                 jobId,
		Status:                status,
		Message:               message,
		LastUpdateUnixTimeSec: now,
		EndUnixTimeSec:        now,
		OutputFilePath:        outputFilePath,
		OtherLogFiles:         otherLogFiles,
	}

	if existing, err := readJobStatus(jobId, coll); err != nil {
		logger.Errorf("Failed to read existing job status when writing CompleteJob %v: %v", jobId, err)
	} else {
		jobStatus.LogID = existing.LogID
		jobStatus.StartUnixTimeSec = existing.StartUnixTimeSec
		jobStatus.JobType = existing.JobType
		jobStatus.JobItemID = existing.JobItemID
		jobStatus.RequestorUserID = existing.RequestorUserID
		jobStatus.Name = existing.Name
	}

	if err := replaceJobStatus("CompleteJob", jobId, jobStatus, coll, logger); err != nil {
		return err
	}

	logger.Infof("CompleteJob: %v with status %v, message: %v", jobId, status, message)

	// This job may have been run by a lambda or another instance, in which
	// case our active set never knew about it and there's nothing to drop
	activeJobLock.Lock()
	defer activeJobLock.Unlock()
	if _, ok := activeJobs[jobId]; ok {
		activeJobs[jobId] = false
	}
	return nil
}

func replaceJobStatus(opName string, jobId string, jobStatus *JobStatus, coll *mongo.Collection, logger logger.ILogger) error {
	filter := bson.D{{Key: "_id", Value: jobId}}

	result, err := coll.ReplaceOne(context.TODO(), filter, jobStatus, options.Replace())
	if err != nil {
		logger.Errorf("%v %v: %v", opName, jobId, err)
		return err
	}

	if result.MatchedCount != 1 && result.UpsertedCount != 1 {
		logger.Errorf("%v result had unexpected counts %+v id: %v", opName, result, jobId)
	}
	return nil
}
