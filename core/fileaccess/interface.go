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

package fileaccess

import "strings"

// Generic interface for reading/writing objects. The stitching pipeline talks
// to tile storage and its output location only through this, so the same code
// runs against S3 in the cloud and a plain directory on a lab workstation.
// The first parameter is a bucket name for S3, a root directory for local.

type FileAccess interface {
	ListObjects(bucket string, prefix string) ([]string, error)

	ObjectExists(bucket string, path string) (bool, error)

	ReadObject(bucket string, path string) ([]byte, error)
	WriteObject(bucket string, path string, data []byte) error

	ReadJSON(bucket string, path string, itemsPtr interface{}, emptyIfNotFound bool) error
	WriteJSON(bucket string, path string, itemsPtr interface{}) error
	// Catalog CSV sidecar files and node params are written compact, so
	// there's a no-indent variant. Searching for WriteJSON still finds these!
	WriteJSONNoIndent(bucket string, path string, itemsPtr interface{}) error

	DeleteObject(bucket string, path string) error

	CopyObject(srcBucket string, srcPath string, dstBucket string, dstPath string) error

	IsNotFoundError(err error) bool
}

// MakeValidObjectName - annotation categories and names come from user-entered
// viewer fields, clean them up before they form part of an object path
func MakeValidObjectName(name string) string {
	name = strings.ReplaceAll(name, "?", "")
	name = strings.ReplaceAll(name, "$", "")
	name = strings.ReplaceAll(name, "#", "")
	name = strings.ReplaceAll(name, "!", "")
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")

	return name
}

func IsValidObjectName(name string) bool {
	if len(name) <= 0 {
		return false
	}

	if strings.ContainsAny(name, "\"") {
		return false
	}

	return true
}
