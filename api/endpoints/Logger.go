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
	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/core/errorwithstatus"
	"github.com/microstitch/core/core/logger"
)

const logLevelId = "logLevel"

func registerLoggerHandler(router *apiRouter.ApiObjectRouter) {
	const pathPrefix = "logger"

	// Log level is deployment tuning, so both directions sit behind the
	// stitch config permission
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix+"/level"), apiRouter.MakeMethodPermission("GET", permission.PermWriteStitchConfig), getLogLevel)
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix+"/level", logLevelId), apiRouter.MakeMethodPermission("PUT", permission.PermWriteStitchConfig), putLogLevel)
}

func getLogLevel(params handlers.ApiHandlerParams) (interface{}, error) {
	return logger.GetLogLevelName(params.Svcs.Log.GetLogLevel())
}

func putLogLevel(params handlers.ApiHandlerParams) (interface{}, error) {
	logLevelName := params.PathParams[logLevelId]

	logLevel, err := logger.GetLogLevel(logLevelName)
	if err != nil {
		return nil, errorwithstatus.MakeBadRequestError(err)
	}

	// Also set it on the actual logger
	params.Svcs.Log.SetLogLevel(logLevel)

	// Not really an error, but we log in this level to ensure it always gets printed
	params.Svcs.Log.Errorf("User %v request changed log level to: %v", params.UserInfo.UserID, logLevelName)

	return nil, nil
}
