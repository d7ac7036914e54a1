package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitcher"
	"github.com/microstitch/core/core/awsutil"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/logger"
	"github.com/microstitch/core/core/mongoDBConnection"
	"github.com/microstitch/core/core/timestamper"
)

func main() {
	fmt.Println("================================")
	fmt.Println("=  MicroStitch batch stitcher  =")
	fmt.Println("================================")

	var argSource = flag.String("source", "local", "Where mosaics and outputs live: local or cloud")
	var argMosaicBucket = flag.String("mosaic-bucket", "", "Mosaic bucket name, or for -source local the root directory holding mosaics")
	var argJobsBucket = flag.String("jobs-bucket", "", "Stitch jobs bucket name, or for -source local the output root directory")
	var argMosaicID = flag.String("mosaic-id", "", "Mosaic to stitch")
	var argAnnotationsPath = flag.String("annotations-path", "", "Annotation file path, defaults to <mosaic-id>/annotations.json")
	var argLandmarksPath = flag.String("landmarks-path", "", "Landmark pair file path, overrides pairs embedded in the annotation file")
	var argMongoSecret = flag.String("mongo-secret", "", "Mongo connection secret, cloud only. Leave empty to run without job/catalog persistence")
	var argEnvName = flag.String("env-name", "local", "Environment name, selects the mongo database")
	var argExecutor = flag.String("executor", "image", "Stitch engine: image or null")
	var argWorkers = flag.Int("workers", 0, "Worker count override")
	var argCropHalfExtent = flag.Int("crop-half-extent", 0, "Composite crop half extent override, pixels")
	var argEightBit = flag.Bool("eight-bit", false, "Write composites as 8 bit grayscale")

	flag.Parse()

	if len(*argMosaicID) <= 0 || len(*argMosaicBucket) <= 0 || len(*argJobsBucket) <= 0 {
		fmt.Println("Required: -mosaic-id, -mosaic-bucket, -jobs-bucket")
		flag.PrintDefaults()
		os.Exit(1)
	}

	iLog := &logger.StdOutLogger{}

	cfg := config.APIConfig{
		MosaicBucket:      *argMosaicBucket,
		StitchJobsBucket:  *argJobsBucket,
		EnvironmentName:   *argEnvName,
		MongoSecret:       *argMongoSecret,
		StitchExecutor:    *argExecutor,
		MaxStitchWorkers:  int32(*argWorkers),
		CropHalfExtentPix: int32(*argCropHalfExtent),
		EightBitOutput:    *argEightBit,
	}
	config.ApplyDefaults(&cfg)

	svcs := services.APIServices{
		Config:      cfg,
		Log:         iLog,
		Notifier:    services.NullNotifier{},
		TimeStamper: &timestamper.UnixTimeNowStamper{},
	}

	if *argSource == "cloud" {
		sess, err := awsutil.GetSession()
		if err != nil {
			fatal("Failed to create AWS session: %v", err)
		}
		s3svc, err := awsutil.GetS3(sess)
		if err != nil {
			fatal("Failed to create AWS S3 service: %v", err)
		}

		svcs.S3 = s3svc
		svcs.FS = fileaccess.MakeS3Access(s3svc)

		// Without a secret we run DB-less, the catalog CSV is then the only
		// record of the batch
		if len(*argMongoSecret) > 0 {
			mongoClient, err := mongoDBConnection.Connect(sess, *argMongoSecret, iLog)
			if err != nil {
				fatal("Failed to connect to mongo: %v", err)
			}

			dbName := mongoDBConnection.GetDatabaseName("microstitch", *argEnvName)
			svcs.MongoDB = mongoClient.Database(dbName)
			dbCollections.InitCollections(svcs.MongoDB, iLog)
		}
	} else if *argSource == "local" {
		svcs.FS = &fileaccess.FSAccess{}
	} else {
		fatal("Unknown -source: %v", *argSource)
	}

	startUnix := time.Now().Unix()
	params := stitcher.StitchParams{
		JobID:            fmt.Sprintf("batch-%v", startUnix),
		MosaicID:         *argMosaicID,
		AnnotationsPath:  *argAnnotationsPath,
		LandmarksPath:    *argLandmarksPath,
		Name:             "batch " + *argMosaicID,
		RequestorUserID:  "cmd-line",
		StartUnixTimeSec: uint32(startUnix),
	}

	iLog.Infof("----- Stitching mosaic %v as job %v -----", params.MosaicID, params.JobID)

	stitcher.RunStitchBatch(context.Background(), params, &svcs)

	err := printSummary(svcs.FS, cfg.StitchJobsBucket, params.JobID)
	if err != nil {
		fatal("Failed to read back catalog: %v", err)
	}
}

func fatal(format string, a ...interface{}) {
	fmt.Printf(format+"\n", a...)
	os.Exit(1)
}

// Reads the catalog CSVs the batch just wrote and tallies composites by
// status, so a run's outcome is visible without digging through logs
func printSummary(fs fileaccess.FileAccess, jobsBucket string, jobID string) error {
	catalogPrefix := path.Join(jobID, "catalog") + "/"
	files, err := fs.ListObjects(jobsBucket, catalogPrefix)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	total := 0

	for _, file := range files {
		if !strings.HasSuffix(file, ".csv") {
			continue
		}

		data, err := fs.ReadObject(jobsBucket, file)
		if err != nil {
			return err
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			return fmt.Errorf("bad catalog CSV %v: %v", file, err)
		}
		if len(rows) < 1 {
			continue
		}

		// First row is the header, status is its 12th column
		for _, row := range rows[1:] {
			counts[row[11]]++
			total++
		}
	}

	statuses := []string{}
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	fmt.Println("----- Catalog summary -----")
	for _, status := range statuses {
		fmt.Printf("%-20v%v\n", status, counts[status])
	}
	fmt.Printf("%-20v%v\n", "total", total)

	return nil
}
