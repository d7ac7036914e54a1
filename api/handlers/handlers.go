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

// The handler types endpoints are built from. This file only carries what is
// shared, the handler flavours live in their own files
package handlers

import (
	"strings"
)

// How long we tell browsers to cache downloaded files for, in sec
const downloadCacheMaxAgeSec = 604800

// MakeEndpointPath - builds mux route paths like /stitch/{jobId} from a
// prefix and the path parameter names a handler wants filled in
func MakeEndpointPath(pathPrefix string, pathParamNames ...string) string {
	sb := strings.Builder{}
	sb.WriteString("/" + pathPrefix)

	for _, param := range pathParamNames {
		sb.WriteString("/{" + strings.Trim(param, "/") + "}")
	}

	return sb.String()
}
