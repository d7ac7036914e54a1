package services

import "github.com/microstitch/core/api/job"

type INotifier interface {
	// When a stitch job is created, changes status, or completes
	NotifyJobUpdate(status *job.JobStatus)
}

// NullNotifier - for lambdas and command line tools, where nothing is listening
type NullNotifier struct{}

func (n NullNotifier) NotifyJobUpdate(status *job.JobStatus) {
}
