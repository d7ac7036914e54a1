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
	"bytes"
	"fmt"
	"net/http"

	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/core/mosaic"
)

// Paths through stitch creation that never reach job storage, the rest is
// covered by the stitcher package tests
func Example_stitchPost_RequestChecks() {
	svcs := services.MakeMockSvcs(nil, nil, nil)

	svcs.FS.WriteJSON(svcs.Config.MosaicBucket, "moss-0099/mosaic.json", mosaic.Metadata{
		ID:    "moss-0099",
		Name:  "Restricted plate",
		Group: "mcr-lab",
	})

	apiRouter := MakeRouter(svcs)

	// No mosaic named
	req, _ := http.NewRequest("POST", "/stitch", bytes.NewReader([]byte(`{"name": "overnight run"}`)))
	resp := executeRequest(req, apiRouter.Router)

	fmt.Println(resp.Code)
	fmt.Println(resp.Body)

	// Mosaic the requestor can't see
	req, _ = http.NewRequest("POST", "/stitch", bytes.NewReader([]byte(`{"mosaicId": "moss-0099"}`)))
	resp = executeRequest(req, apiRouter.Router)

	fmt.Println(resp.Code)
	fmt.Println(resp.Body)

	// Output:
	// 400
	// MosaicId was not supplied
	//
	// 403
	// mosaic moss-0099 not permitted
}
