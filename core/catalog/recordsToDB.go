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

package catalog

import (
	"context"

	"github.com/microstitch/core/api/dbCollections"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobRecord - a catalog record as stored in the catalogRecords collection.
// Records from every job share the collection so rows carry the job ID, and
// Seq preserves catalog order across reads.
type JobRecord struct {
	JobID  string `bson:"jobId"`
	Seq    int    `bson:"seq"`
	Record `bson:",inline"`
}

func SaveRecords(db *mongo.Database, jobID string, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	docs := []interface{}{}
	for i, r := range recs {
		docs = append(docs, JobRecord{JobID: jobID, Seq: i, Record: r})
	}

	_, err := db.Collection(dbCollections.CatalogRecordsName).InsertMany(context.TODO(), docs)
	return err
}

func ReadRecords(db *mongo.Database, jobID string) ([]Record, error) {
	ctx := context.TODO()

	opts := options.Find().SetSort(bson.M{"seq": 1})
	cursor, err := db.Collection(dbCollections.CatalogRecordsName).Find(ctx, bson.M{"jobId": jobID}, opts)
	if err != nil {
		return nil, err
	}

	jobRecs := []JobRecord{}
	if err := cursor.All(ctx, &jobRecs); err != nil {
		return nil, err
	}

	recs := []Record{}
	for _, jr := range jobRecs {
		recs = append(recs, jr.Record)
	}
	return recs, nil
}
