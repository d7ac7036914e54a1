package main

import (
	"context"
	"flag"
	"os"

	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitcher/stitchRunner"
	"github.com/microstitch/core/core/awsutil"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/timestamper"
)

// The binary a kubernetes stitch pod runs. Work arrives as JSON in the pod
// environment, composites go straight to S3, and the exit code is all the
// pod watcher looks at.
func main() {
	var argParams = flag.String("params", "", "Node params JSON, overrides the "+stitchRunner.StitchNodeParamsEnvVar+" env var")
	flag.Parse()

	iLog := &logger.StdOutLogger{}

	paramStr := *argParams
	if len(paramStr) <= 0 {
		paramStr = os.Getenv(stitchRunner.StitchNodeParamsEnvVar)
	}

	params, err := stitchRunner.ReadNodeParams(paramStr)
	if err != nil {
		iLog.Errorf("%v", err)
		os.Exit(1)
	}

	iLog.Infof("Stitch node starting: job %v, %v merge requests", params.JobID, len(params.Requests))

	sess, err := awsutil.GetSession()
	if err != nil {
		iLog.Errorf("Failed to create AWS session: %v", err)
		os.Exit(1)
	}
	s3svc, err := awsutil.GetS3(sess)
	if err != nil {
		iLog.Errorf("Failed to create AWS S3 service: %v", err)
		os.Exit(1)
	}

	svcs := services.APIServices{
		Config: config.APIConfig{
			MosaicBucket:     params.MosaicBucket,
			StitchJobsBucket: params.JobsBucket,
			StitchExecutor:   "image",
		},
		Log:         iLog,
		S3:          s3svc,
		FS:          fileaccess.MakeS3Access(s3svc),
		Notifier:    services.NullNotifier{},
		TimeStamper: &timestamper.UnixTimeNowStamper{},
	}

	engine, err := stitchRunner.GetStitchEngine("image", &svcs)
	if err != nil {
		iLog.Errorf("Failed to start stitch engine: %v", err)
		os.Exit(1)
	}

	failed := 0
	for _, req := range params.Requests {
		err = engine.Merge(context.Background(), req)
		if err != nil {
			iLog.Errorf("Merge failed for annotation %v: %v", req.AnnotationID, err)
			failed++
		} else {
			iLog.Infof("Stitched annotation %v to %v", req.AnnotationID, req.OutputPath)
		}
	}

	if failed > 0 {
		iLog.Errorf("%v of %v merges failed", failed, len(params.Requests))
		os.Exit(1)
	}

	iLog.Infof("----- DONE: %v merges -----", len(params.Requests))
}
