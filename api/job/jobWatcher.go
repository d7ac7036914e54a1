package job

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/core/idgen"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/timestamper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Jobs this API instance is currently watching. Guarded by activeJobLock,
// the watcher goroutines and CompleteJob all touch it
var activeJobs = map[string]bool{}
var activeJobLock = sync.Mutex{}

// Shape of a job status collection change stream event, only the bits we read
type jobChangeKey struct {
	Id string `bson:"_id"`
}
type jobChangeEvent struct {
	OperationType string       `bson:"operationType"`
	DocumentKey   jobChangeKey `bson:"documentKey"`
	FullDocument  *JobStatus   `bson:"fullDocument"`
}

// AddJob - creates the initial DB record of a job and starts a goroutine
// watching the collection for changes to it, feeding each one to sendUpdate
// until the job finishes or jobTimeoutSec passes with no news. The caller is
// free to trigger the actual work however it likes (goroutine, lambda,
// stitch node pods), status writes are the only coupling. Returns the job
// snapshot as saved, so callers can hand the id back to their requestor.
func AddJob(
	idPrefix string,
	requestorUserId string,
	jobType string,
	jobItemId string,
	jobName string,
	jobTimeoutSec uint32,
	db *mongo.Database,
	idgen idgen.IDGenerator,
	ts timestamper.ITimeStamper,
	logger logger.ILogger,
	sendUpdate func(*JobStatus)) (*JobStatus, error) {
	jobId := fmt.Sprintf("%v-%s", idPrefix, idgen.GenObjectID())
	now := uint32(ts.GetTimeNowSec())

	// Jobs that don't say what item they work on work on themselves
	if len(jobItemId) <= 0 {
		jobItemId = jobId
	}

	job := &JobStatus{
		JobID:            jobId,
		Status:           StatusStarting,
		StartUnixTimeSec: now,
		OtherLogFiles:    []string{},
		JobType:          jobType,
		JobItemID:        jobItemId,
		Name:             jobName,
		RequestorUserID:  requestorUserId,
	}

	if !registerActiveJob(jobId) {
		return job, errors.New("Job already exists: " + jobId)
	}

	coll := db.Collection(dbCollections.JobStatusName)
	result, err := coll.InsertOne(context.TODO(), job, options.InsertOne())
	if err != nil {
		clearActiveJob(jobId)
		return job, err
	}

	if result.InsertedID != jobId {
		logger.Errorf("Inserted job %v doesn't match db id %v", jobId, result.InsertedID)
	}

	go watchJob(jobId, now+jobTimeoutSec, db, logger, ts, sendUpdate)

	logger.Infof("AddJob: %v of type: %v working on item id: %v", jobId, jobType, jobItemId)
	return job, nil
}

// Claims the job id for this instance. False means something already holds it
func registerActiveJob(jobId string) bool {
	activeJobLock.Lock()
	defer activeJobLock.Unlock()

	if active, exists := activeJobs[jobId]; exists && active {
		return false
	}
	activeJobs[jobId] = true
	return true
}

func clearActiveJob(jobId string) {
	activeJobLock.Lock()
	defer activeJobLock.Unlock()
	activeJobs[jobId] = false
}

func watchJob(jobId string, watchUntilUnixSec uint32, db *mongo.Database, logger logger.ILogger, ts timestamper.ITimeStamper, sendUpdate func(*JobStatus)) {
	logger.Infof(">> Start watching job: %v...", jobId)
	defer logger.Infof(">> Finish watching job: %v...", jobId)
	defer clearActiveJob(jobId)

	// A change stream over the whole collection, we filter for our job as
	// events come through. Every event is also a chance to notice we've been
	// waiting past the deadline
	ctx := context.TODO()
	coll := db.Collection(dbCollections.JobStatusName)

	stream, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		logger.Errorf("Failed to watch job status: %v, no notifications will be sent. Error: %v", jobId, err)
		return
	}

	for stream.Next(ctx) {
		event := jobChangeEvent{}
		if err := stream.Decode(&event); err != nil {
			logger.Errorf("Failed to decode change stream for job status while watching for job: %v", jobId)
			continue
		}

		if event.FullDocument == nil || event.DocumentKey.Id != jobId {
			// Someone else's job changed. If ours has gone quiet past the
			// deadline, report the timeout and stop watching
			if ts.GetTimeNowSec() > int64(watchUntilUnixSec) {
				sendUpdate(&JobStatus{
					JobID:          jobId,
					Status:         StatusError,
					Message:        "Timed out while waiting for status update",
					EndUnixTimeSec: uint32(ts.GetTimeNowSec()),
					OutputFilePath: "",
					OtherLogFiles:  []string{},
				})
				break
			}
			continue
		}

		sendUpdate(event.FullDocument)

		if event.FullDocument.Status == StatusComplete || event.FullDocument.Status == StatusError {
			break
		}
	}
}

func readJobStatus(jobId string, coll *mongo.Collection) (*JobStatus, error) {
	dbStatusResult := coll.FindOne(context.TODO(), bson.M{"_id": jobId})
	if dbStatusResult.Err() != nil {
		return nil, dbStatusResult.Err()
	}

	dbStatus := &JobStatus{}
	err := dbStatusResult.Decode(&dbStatus)
	return dbStatus, err
}

// GetJobStatus reads the stored state of any job, running or done. For API status requests
func GetJobStatus(jobId string, db *mongo.Database) (*JobStatus, error) {
	return readJobStatus(jobId, db.Collection(dbCollections.JobStatusName))
}
