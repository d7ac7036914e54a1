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
	"path"

	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/api/stitcher"
	"github.com/microstitch/core/core/annotation"
	"github.com/microstitch/core/core/errorwithstatus"
	"github.com/microstitch/core/core/mosaic"
)

const mosaicIdentifier = "mosaicId"

func registerMosaicHandler(router *apiRouter.ApiObjectRouter) {
	const pathPrefix = "mosaic"

	// Tile layout and display name of one mosaic
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix, mosaicIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermReadMosaics), mosaicGet)

	// The annotations the viewer recorded against it
	router.AddJSONHandler(handlers.MakeEndpointPath(pathPrefix+"/annotations", mosaicIdentifier), apiRouter.MakeMethodPermission("GET", permission.PermReadMosaics), mosaicAnnotationsGet)
}

func mosaicGet(params handlers.ApiHandlerParams) (interface{}, error) {
	mosaicID := params.PathParams[mosaicIdentifier]

	meta, err := permission.UserCanAccessMosaicWithMetaDownload(params.Svcs.FS, params.UserInfo, params.Svcs.Config.MosaicBucket, mosaicID)
	if err != nil {
		return nil, err
	}

	return &meta, nil
}

func mosaicAnnotationsGet(params handlers.ApiHandlerParams) (interface{}, error) {
	mosaicID := params.PathParams[mosaicIdentifier]

	// Same tolerance as stitch creation, mosaics predating metadata files
	// aren't group restricted
	meta, err := mosaic.ReadMetadata(params.Svcs.FS, params.Svcs.Config.MosaicBucket, mosaicID)
	if err == nil {
		if err = permission.UserCanAccessMosaic(params.UserInfo, meta); err != nil {
			return nil, err
		}
	} else if !params.Svcs.FS.IsNotFoundError(err) {
		return nil, err
	}

	annFile := annotation.AnnotationFile{}
	annPath := path.Join(mosaicID, stitcher.AnnotationsFileName)
	err = params.Svcs.FS.ReadJSON(params.Svcs.Config.MosaicBucket, annPath, &annFile, false)
	if err != nil {
		if params.Svcs.FS.IsNotFoundError(err) {
			return nil, errorwithstatus.MakeNotFoundError(mosaicID)
		}
		return nil, err
	}

	return &annFile, nil
}
