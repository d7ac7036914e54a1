package job

import (
	"context"
	"strings"

	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/core/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// This is here to monitor externally triggered jobs. The rest of the job code expects AddJob to be called within the
// API and then we start a thread to listen to those jobs for their duration. Here we also trigger a thread to listen
// to job updates, but only care about IDs with a special prefix marking them as externally triggered.
// An example of this is a stitch job started by the annotation upload lambda - those jobs run outside any API
// instance, so each API instance listens for their DB updates here and pushes them out to connected clients

func ListenForExternalTriggeredJobs(prefix string, callback func(*JobStatus), db *mongo.Database, logger logger.ILogger) {
	ctx := context.TODO()
	coll := db.Collection(dbCollections.JobStatusName)

	stream, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		logger.Errorf("Failed to watch job statuses prefixed by: %v, no notifications will be sent. Error: %v", prefix, err)
		return
	}

	logger.Infof("Listening for externally triggered stitch jobs...")
	for stream.Next(ctx) {
		event := jobChangeEvent{}
		if err := stream.Decode(&event); err != nil {
			logger.Errorf("Failed to decode change stream for job status while watching for job statuses prefixed by: %v", prefix)
			continue
		}

		if event.FullDocument == nil || !strings.HasPrefix(event.DocumentKey.Id, prefix) {
			continue
		}

		logger.Infof("Detected externally triggered stitch job update: %v", event.DocumentKey.Id)
		callback(event.FullDocument)
	}
}
