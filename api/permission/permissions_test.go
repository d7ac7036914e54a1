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
	"net/http"
	"testing"

	"github.com/microstitch/core/core/errorwithstatus"
	"github.com/microstitch/core/core/jwtparser"
	"github.com/microstitch/core/core/mosaic"
)

func Test_GetAccessibleGroups(t *testing.T) {
	groups := GetAccessibleGroups(map[string]bool{
		"read:mosaics":     true,
		"access:GroupA":    true,
		"access:Group2021": true,
		"access:":          true, // no group name, should be ignored
	})

	if len(groups) != 2 {
		t.Errorf("Expected 2 groups, got: %v", groups)
	}
	if !groups["GroupA"] || !groups["Group2021"] {
		t.Errorf("Missing expected groups: %v", groups)
	}
}

func Test_UserCanAccessMosaic(t *testing.T) {
	user := jwtparser.JWTUserInfo{
		Name:   "Niko Bellic",
		UserID: "600f2a0806b6c70071d3d174",
		Permissions: map[string]bool{
			"read:mosaics":  true,
			"access:GroupA": true,
		},
	}

	// No group set on the mosaic, anyone can see it
	err := UserCanAccessMosaic(user, mosaic.Metadata{ID: "mos-1"})
	if err != nil {
		t.Errorf("Unrestricted mosaic refused: %v", err)
	}

	// Group the user has access to
	err = UserCanAccessMosaic(user, mosaic.Metadata{ID: "mos-2", Group: "GroupA"})
	if err != nil {
		t.Errorf("GroupA mosaic refused: %v", err)
	}

	// Group the user lacks
	err = UserCanAccessMosaic(user, mosaic.Metadata{ID: "mos-3", Group: "GroupB"})
	if err == nil {
		t.Fatal("GroupB mosaic allowed")
	}
	statusErr, ok := err.(errorwithstatus.StatusError)
	if !ok {
		t.Fatalf("Expected StatusError, got: %v", err)
	}
	if statusErr.Status() != http.StatusForbidden {
		t.Errorf("Expected forbidden, got: %v", statusErr.Status())
	}
	if statusErr.Error() != "mosaic mos-3 not permitted" {
		t.Errorf("Unexpected error text: %v", statusErr.Error())
	}
}
