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

package endpoints

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/api/stitchnode"
	"github.com/microstitch/core/core/errorwithstatus"
)

type stitchNodeVersionConfigPut struct {
	Version string `json:"version"`
}

func registerStitchNodeVersionHandler(router *apiRouter.ApiObjectRouter) {
	const pathPrefix = "stitch-node-version"

	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix), apiRouter.MakeMethodPermission("GET", permission.PermReadStitchJobs), stitchNodeVersionGet)

	// Rolling out a new node build is a config change, so it's gated
	// separately from job permissions
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix), apiRouter.MakeMethodPermission("PUT", permission.PermWriteStitchConfig), stitchNodeVersionPut)
}

func stitchNodeVersionGet(params handlers.ApiHandlerParams) (interface{}, error) {
	ver, err := stitchnode.GetStitchNodeVersion(params.Svcs)
	if err != nil {
		return nil, err
	}

	return &ver, nil
}

func stitchNodeVersionPut(params handlers.ApiHandlerParams) (interface{}, error) {
	body, err := io.ReadAll(params.Request.Body)
	if err != nil {
		return nil, err
	}

	verBody := stitchNodeVersionConfigPut{}
	err = json.Unmarshal(body, &verBody)
	if err != nil {
		return nil, errorwithstatus.MakeBadRequestError(err)
	}

	if len(verBody.Version) <= 0 {
		return nil, errorwithstatus.MakeBadRequestError(errors.New("Version was not supplied"))
	}

	// Next job start reads this back, nodes already running keep the build
	// they launched with
	return nil, stitchnode.SetStitchNodeVersion(verBody.Version, params.Svcs)
}
