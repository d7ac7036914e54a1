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

package permission

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/microstitch/core/core/errorwithstatus"
	"github.com/microstitch/core/core/fileaccess"
	"github.com/microstitch/core/core/jwtparser"
	"github.com/microstitch/core/core/mosaic"
)

// We have a few public things, mainly getting the API version...
const PermPublic = "public"

// Permissions for routes - these should match the permissions defined
// in Auth0 JWT tokens that come in with requests

// Starting stitch jobs and watching their status
const PermReadStitchJobs = "read:stitch-jobs"
const PermWriteStitchJobs = "write:stitch-jobs"

// Mosaic metadata and uploaded annotations
const PermReadMosaics = "read:mosaics"

// Stitch node deployment configuration
const PermWriteStitchConfig = "write:stitch-config"

// Downloading composite images and catalog exports
const PermDownloadComposites = "download:composites"

func GetAccessibleGroups(permissions map[string]bool) map[string]bool {
	result := map[string]bool{}

	const accessPrefix = "access:"
	for perm := range permissions {
		// Make sure if the permission is just "access:", we don't store "" as a valid group
		if strings.HasPrefix(perm, accessPrefix) && len(perm) > len(accessPrefix) {
			group := perm[len(accessPrefix):]
			result[group] = true
		}
	}

	return result
}

// Returns nil if user CAN access it, otherwise a StatusError with the right HTTP error code
func UserCanAccessMosaic(userInfo jwtparser.JWTUserInfo, meta mosaic.Metadata) error {
	if len(meta.Group) <= 0 {
		// Not restricted to a group
		return nil
	}

	userAllowedGroups := GetAccessibleGroups(userInfo.Permissions)
	if !userAllowedGroups[meta.Group] {
		// User is not allowed to see this
		return errorwithstatus.MakeStatusError(http.StatusForbidden, fmt.Errorf("mosaic %v not permitted", meta.ID))
	}
	return nil
}

func UserCanAccessMosaicWithMetaDownload(fs fileaccess.FileAccess, userInfo jwtparser.JWTUserInfo, mosaicBucket string, mosaicID string) (mosaic.Metadata, error) {
	meta, err := mosaic.ReadMetadata(fs, mosaicBucket, mosaicID)
	if err != nil {
		if fs.IsNotFoundError(err) {
			return meta, errorwithstatus.MakeNotFoundError(mosaicID)
		} else {
			return meta, errors.New("failed to verify mosaic group permission")
		}
	}

	return meta, UserCanAccessMosaic(userInfo, meta)
}
