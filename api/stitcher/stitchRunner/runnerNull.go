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

package stitchRunner

import (
	"context"
	"fmt"
	"sync"
	"time"
)

///////////////////////////////////////////////////////////////////////////////////////////
// Null engine. Records every merge it was asked for and writes nothing, so a
// whole batch can be dry-run against real mosaics. Tests script failures into
// it the same way the mock S3 backend queues responses.

type NullStitchEngine struct {
	// FailuresLeft says how many times Merge should fail for a given
	// annotation ID before succeeding. MergeDelay makes each attempt take
	// that long, honouring context cancellation while it waits.
	FailuresLeft map[string]int
	FailErr      error
	MergeDelay   time.Duration

	mu       sync.Mutex
	requests []MergeRequest
}

func (r *NullStitchEngine) Merge(ctx context.Context, req MergeRequest) error {
	r.mu.Lock()
	r.requests = append(r.requests, req)

	fail := false
	if left, ok := r.FailuresLeft[req.AnnotationID]; ok && left > 0 {
		r.FailuresLeft[req.AnnotationID] = left - 1
		fail = true
	}
	r.mu.Unlock()

	if r.MergeDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.MergeDelay):
		}
	}

	if fail {
		if r.FailErr != nil {
			return r.FailErr
		}
		return fmt.Errorf("scripted merge failure for annotation %v", req.AnnotationID)
	}

	return nil
}

// Requests - the merges attempted so far, in the order the engine saw them
func (r *NullStitchEngine) Requests() []MergeRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	reqs := make([]MergeRequest, len(r.requests))
	copy(reqs, r.requests)
	return reqs
}
