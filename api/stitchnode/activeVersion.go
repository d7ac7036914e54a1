package stitchnode

import (
	"context"

	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/core/errorwithstatus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The stitch-node container version deployed with the API sits in the config
// bucket as VersionFileName. An operator can roll out a newer node build
// without an API redeploy by storing an override record in mongo, which wins
// over the bucket file when present.

const VersionFileName = "stitch-node-version.json"

type StitchNodeVersion struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	Version         string `json:"version" bson:"version"`
	ModifiedUnixSec uint32 `json:"modifiedUnixSec" bson:"modifiedUnixSec"`
}

// GetStitchNodeVersion - the container image stitch pods should run
func GetStitchNodeVersion(svcs *services.APIServices) (StitchNodeVersion, error) {
	ver := StitchNodeVersion{}

	// Look up an override set in DB first. DB-less runs go straight to the
	// deployed config file
	if svcs.MongoDB != nil {
		result := svcs.MongoDB.Collection(dbCollections.StitchNodeVersionName).FindOne(context.TODO(), bson.M{"_id": "current"})
		if result.Err() == nil {
			err := result.Decode(&ver)
			return ver, err
		}

		if result.Err() != mongo.ErrNoDocuments {
			return ver, result.Err()
		}
	}

	// No override stored, use the version deployed alongside the API
	err := svcs.FS.ReadJSON(svcs.Config.ConfigBucket, VersionFileName, &ver, false)
	if err != nil {
		if svcs.FS.IsNotFoundError(err) {
			return ver, errorwithstatus.MakeNotFoundError("stitch-node version")
		}
		return ver, err
	}

	return ver, nil
}

// SetStitchNodeVersion - stores an override, read back by the next job start
func SetStitchNodeVersion(version string, svcs *services.APIServices) error {
	ver := StitchNodeVersion{
		ID:              "current",
		Version:         version,
		ModifiedUnixSec: uint32(svcs.TimeStamper.GetTimeNowSec()),
	}

	opt := options.Replace().SetUpsert(true)
	_, err := svcs.MongoDB.Collection(dbCollections.StitchNodeVersionName).ReplaceOne(context.TODO(), bson.M{"_id": "current"}, ver, opt)
	return err
}
