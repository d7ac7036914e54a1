package ws

import (
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/core/logger"
)

type jobUpdateMessage struct {
	JobUpdate *job.JobStatus `json:"jobUpdate"`
}

// WSJobNotifier - pushes stitch job status changes out to every connected
// session. There's no per-user filtering, job lists are small and the UI
// drops updates for jobs it isn't showing
type WSJobNotifier struct {
	Melody *melody.Melody
	Log    logger.ILogger
}

func (n WSJobNotifier) NotifyJobUpdate(status *job.JobStatus) {
	msg, err := json.Marshal(jobUpdateMessage{JobUpdate: status})
	if err != nil {
		n.Log.Errorf("Failed to form job update message for job %v: %v", status.JobID, err)
		return
	}

	err = n.Melody.Broadcast(msg)
	if err != nil {
		n.Log.Errorf("Failed to broadcast update for job %v: %v", status.JobID, err)
	}
}
