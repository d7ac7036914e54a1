// Copyright (c) 2018-2022 California Institute of Technology (“Caltech”). U.S.
// Government sponsorship acknowledged.
// All rights reserved.
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
// * Neither the name of Caltech nor its operating division, the Jet Propulsion
//   Laboratory, nor the names of its contributors may be used to endorse or
//   promote products derived from this software without specific prior written
//   permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT OWNER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package awsutil

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/pkg/errors"
)

type eventType int

const (
	unknownEventType eventType = iota
	s3EventType
	snsEventType
	sqsEventType
)

// Record - one notification record, flattened so lambda handlers don't have
// to care which transport delivered it
type Record struct {
	EventSource    string
	EventSourceArn string
	AWSRegion      string
	S3             events.S3Entity
	SQS            events.SQSMessage
	SNS            events.SNSEntity
}

// Event - what our lambdas receive. Annotation uploads can notify us straight
// from S3, or via an SNS topic or SQS queue depending on how the mosaic
// bucket is configured, so we sniff the records and decode accordingly
type Event struct {
	Records []Record
}

// getEventType - Sniff which AWS service sent this, from the first record's
// event source field. S3 and SQS lower-case the field name, SNS doesn't
func (event *Event) getEventType(data []byte) eventType {
	var probe struct {
		Records []map[string]interface{}
	}
	json.Unmarshal(data, &probe)

	if len(probe.Records) <= 0 {
		return unknownEventType
	}

	eventSource, _ := probe.Records[0]["EventSource"].(string)
	if len(eventSource) <= 0 {
		eventSource, _ = probe.Records[0]["eventSource"].(string)
	}

	switch eventSource {
	case "aws:s3":
		return s3EventType
	case "aws:sns":
		return snsEventType
	case "aws:sqs":
		return sqsEventType
	}

	return unknownEventType
}

// S3 notifying the lambda directly
func flattenS3Record(r events.S3EventRecord) Record {
	return Record{
		EventSource:    r.EventSource,
		EventSourceArn: r.S3.Bucket.Arn,
		AWSRegion:      r.AWSRegion,
		S3:             r.S3,
	}
}

// Notification arriving through an SNS topic. The region isn't a field of
// its own, it comes out of the topic ARN
func flattenSNSRecord(r events.SNSEventRecord) (Record, error) {
	topicArn, err := arn.Parse(r.SNS.TopicArn)
	if err != nil {
		return Record{}, err
	}

	return Record{
		EventSource:    r.EventSource,
		EventSourceArn: r.SNS.TopicArn,
		AWSRegion:      topicArn.Region,
		SNS:            r.SNS,
	}, nil
}

// Notification delivered through an SQS queue, where each queue message body
// is itself a whole S3 event
func flattenSQSRecord(r events.SQSMessage) ([]Record, error) {
	s3Event := events.S3Event{}
	if err := json.Unmarshal([]byte(r.Body), &s3Event); err != nil {
		return nil, errors.Wrap(err, "Failed to decode sqs body to an S3 event")
	}

	if len(s3Event.Records) == 0 {
		return nil, errors.New("S3 Event Records is empty")
	}

	records := []Record{}
	for _, s3Record := range s3Event.Records {
		records = append(records, Record{
			EventSource:    r.EventSource,
			EventSourceArn: r.EventSourceARN,
			AWSRegion:      r.AWSRegion,
			SQS:            r,
			S3:             s3Record.S3,
		})
	}
	return records, nil
}

// UnmarshalJSON - Decode the JSON to the correct Event type. An event we
// don't recognize decodes to zero records, not an error
func (event *Event) UnmarshalJSON(data []byte) error {
	switch event.getEventType(data) {
	case s3EventType:
		s3Event := events.S3Event{}
		if err := json.Unmarshal(data, &s3Event); err != nil {
			return err
		}

		event.Records = make([]Record, 0)
		for _, r := range s3Event.Records {
			event.Records = append(event.Records, flattenS3Record(r))
		}

	case snsEventType:
		snsEvent := events.SNSEvent{}
		if err := json.Unmarshal(data, &snsEvent); err != nil {
			return err
		}

		event.Records = make([]Record, 0)
		for _, r := range snsEvent.Records {
			rec, err := flattenSNSRecord(r)
			if err != nil {
				return err
			}
			event.Records = append(event.Records, rec)
		}

	case sqsEventType:
		sqsEvent := events.SQSEvent{}
		if err := json.Unmarshal(data, &sqsEvent); err != nil {
			return err
		}

		event.Records = make([]Record, 0)
		for _, r := range sqsEvent.Records {
			recs, err := flattenSQSRecord(r)
			if err != nil {
				return err
			}
			event.Records = append(event.Records, recs...)
		}
	}

	return nil
}
