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
	"encoding/json"
	"fmt"
)

// StitchNodeParamsEnvVar - stitch-node containers read their work list from this env var
var StitchNodeParamsEnvVar = "STITCH_NODE_PARAMS"

// NodeParams - everything one stitch node needs to do its share of a job,
// passed as JSON in the pod environment
type NodeParams struct {
	JobID        string         `json:"jobId"`
	JobsBucket   string         `json:"jobsBucket"`
	MosaicBucket string         `json:"mosaicBucket"`
	Requests     []MergeRequest `json:"requests"`
}

// ReadNodeParams - decodes the params string a node was started with
func ReadNodeParams(paramStr string) (NodeParams, error) {
	params := NodeParams{}

	if len(paramStr) <= 0 {
		return params, fmt.Errorf("%v env var not set", StitchNodeParamsEnvVar)
	}

	err := json.Unmarshal([]byte(paramStr), &params)
	if err != nil {
		return params, fmt.Errorf("Failed to parse env var %v: %v", StitchNodeParamsEnvVar, err)
	}

	return params, nil
}
