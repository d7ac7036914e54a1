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
	"image"

	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/stitchnode"
	"github.com/microstitch/core/core/region"
)

///////////////////////////////////////////////////////////////////////////////////////////
// Stitch engines. The batch orchestrator doesn't care how a composite gets
// built, it hands each one to whatever engine the config selected. The image
// engine merges in-process, the kubernetes engine gives each merge to a
// stitch-node pod, and the null engine just records what it was asked to do.

// MergeRequest - one composite to produce. Carries everything an engine (or a
// remote stitch node) needs, so it can be serialised into a pod environment.
type MergeRequest struct {
	JobID           string            `json:"jobId"`
	AnnotationID    string            `json:"annotationId"`
	RequestorUserID string            `json:"requestorUserId"`
	Target          image.Rectangle   `json:"target"`
	Crops           []region.TileCrop `json:"crops"`
	OutputPath      string            `json:"outputPath"`
	EightBit        bool              `json:"eightBit"`
}

// StitchEngine - executes a single composite merge. Merge returns nil once the
// output object exists. Retry and timeout policy belongs to the caller, so an
// engine makes one attempt and reports how it went.
type StitchEngine interface {
	Merge(ctx context.Context, req MergeRequest) error
}

// GetStitchEngine - returns the engine the config asked for, or an error for
// executor names we don't recognise
func GetStitchEngine(executor string, svcs *services.APIServices) (StitchEngine, error) {
	switch executor {
	case "image":
		return &imageStitchEngine{
			fs:           svcs.FS,
			mosaicBucket: svcs.Config.MosaicBucket,
			jobsBucket:   svcs.Config.StitchJobsBucket,
			log:          svcs.Log,
		}, nil
	case "kubernetes":
		ver, err := stitchnode.GetStitchNodeVersion(svcs)
		if err != nil {
			return nil, fmt.Errorf("failed to get stitch-node version: %v", err)
		}

		r := &kubernetesRunner{
			dockerImage: ver.Version,
			fs:          svcs.FS,
			cfg:         svcs.Config,
		}
		r.kubeHelper.Kubeconfig = svcs.Config.KubeConfig
		r.kubeHelper.Bootstrap(svcs.Config.KubernetesLocation, svcs.Log)
		return r, nil
	case "null":
		return &NullStitchEngine{}, nil
	}

	return nil, fmt.Errorf("unknown stitch executor: %v", executor)
}
