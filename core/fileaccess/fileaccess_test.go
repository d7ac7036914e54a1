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

import (
	"fmt"
	"os"
)

type testData struct {
	Name        string `json:"name"`
	Value       int    `json:"value"`
	Description string `json:"description"`
}

// Scenario shared by every FileAccess implementation. The printed output must
// be identical for each one, so code written against the interface behaves
// the same no matter where the objects live.
func runTest(fs FileAccess, bucket string) {
	// Write pretty printed JSON
	fmt.Printf("JSON: %v\n", fs.WriteJSON(bucket, "the-files/pretty.json", testData{Name: "Hello", Value: 778, Description: "World"}))

	// Write non-indented JSON
	fmt.Printf("JSON no-indent: %v\n", fs.WriteJSONNoIndent(bucket, "the-files/subdir/ugly.json", testData{Name: "Hello", Value: 778, Description: "World"}))

	// Check file exists, should fail
	exists, err := fs.ObjectExists(bucket, "the-files/data.bin")
	fmt.Printf("Exists1: %v|%v\n", exists, err)

	// Write binary data
	fmt.Printf("Binary: %v\n", fs.WriteObject(bucket, "the-files/data.bin", []byte{250, 130, 10, 0, 33}))

	// Check file exists, should exist now...
	exists, err = fs.ObjectExists(bucket, "the-files/data.bin")
	fmt.Printf("Exists2: %v|%v\n", exists, err)

	// Copy a file
	fmt.Printf("Copy: %v\n", fs.CopyObject(bucket, "the-files/pretty.json", bucket, "the-files/subdir/copied.json"))

	// Copy a file, bad path
	err = fs.CopyObject(bucket, "the-files/prettyzzz.json", bucket, "the-files/subdir/copied2.json")
	fmt.Printf("Copy bad path, got not found error: %v\n", fs.IsNotFoundError(err)) // Don't print aws error because it changes between tests (contains req id)

	// Read each back/verify their contents
	var contents testData
	err = fs.ReadJSON(bucket, "the-files/pretty.json", &contents, false)
	fmt.Printf("Read JSON: %v, %v\n", err, contents)

	contents = testData{}
	err = fs.ReadJSON(bucket, "the-files/subdir/ugly.json", &contents, false)
	fmt.Printf("Read JSON no-indent: %v, %v\n", err, contents)

	data, err := fs.ReadObject(bucket, "the-files/data.bin")
	fmt.Printf("Read Binary: %v, %v\n", err, data)

	// Read bad path, then check that this is a not found error
	err = fs.ReadJSON(bucket, "the-files/prettyzzz.json", &contents, false)
	fmt.Printf("Read bad path, got not found error: %v\n", fs.IsNotFoundError(err))

	// Read bad path again but tolerating not-found, item must be left untouched
	preserved := testData{Name: "untouched"}
	err = fs.ReadJSON(bucket, "the-files/prettyzzz.json", &preserved, true)
	fmt.Printf("Read bad path tolerated: %v, %v\n", err, preserved.Name)

	// Read the binary file as JSON, should fail to deserialise and get a different error code
	err = fs.ReadJSON(bucket, "the-files/data.bin", &contents, false)
	fmt.Printf("Read bad JSON: %v\n", err)

	// Check this is not seen as a "not found" error
	fmt.Printf("Not a \"not found\" error: %v\n", !fs.IsNotFoundError(err))

	// List files
	listing, err := fs.ListObjects(bucket, "the-files/")
	fmt.Printf("Listing: %v, %v\n", err, listing)

	listing, err = fs.ListObjects(bucket, "the-files/subdir")
	fmt.Printf("Listing subdir: %v, %v\n", err, listing)

	// Listing with a prefix
	listing, err = fs.ListObjects(bucket, "the-files/subdir/ug")
	fmt.Printf("Listing with prefix: %v, %v\n", err, listing)

	// Listing with bad path
	listing, err = fs.ListObjects(bucket, "the-files/non-existant-path/ug")
	fmt.Printf("Listing bad path: %v, %v\n", err, listing)

	// Delete the copy
	fmt.Printf("Delete copy: %v\n", fs.DeleteObject(bucket, "the-files/subdir/copied.json"))

	// Delete bin file
	fmt.Printf("Delete bin: %v\n", fs.DeleteObject(bucket, "the-files/data.bin"))

	// Check listing changed
	listing, err = fs.ListObjects(bucket, "the-files/")
	fmt.Printf("Listing2: %v, %v\n", err, listing)

	listing, err = fs.ListObjects(bucket, "the-files/subdir")
	fmt.Printf("Listing subdir2: %v, %v\n", err, listing)
}

func Example_localFileSystem() {
	// First, clear any files we may have there already
	fmt.Printf("Setup: %v\n", os.RemoveAll("./test-output/"))

	// Now run the tests
	runTest(&FSAccess{}, "./test-output")

	// NOTE: test output must match Example_memoryAccess (except setup step)

	// Output:
	// Setup: <nil>
	// JSON: <nil>
	// JSON no-indent: <nil>
	// Exists1: false|<nil>
	// Binary: <nil>
	// Exists2: true|<nil>
	// Copy: <nil>
	// Copy bad path, got not found error: true
	// Read JSON: <nil>, {Hello 778 World}
	// Read JSON no-indent: <nil>, {Hello 778 World}
	// Read Binary: <nil>, [250 130 10 0 33]
	// Read bad path, got not found error: true
	// Read bad path tolerated: <nil>, untouched
	// Read bad JSON: invalid character 'ú' looking for beginning of value
	// Not a "not found" error: true
	// Listing: <nil>, [the-files/data.bin the-files/pretty.json the-files/subdir/copied.json the-files/subdir/ugly.json]
	// Listing subdir: <nil>, [the-files/subdir/copied.json the-files/subdir/ugly.json]
	// Listing with prefix: <nil>, [the-files/subdir/ugly.json]
	// Listing bad path: <nil>, []
	// Delete copy: <nil>
	// Delete bin: <nil>
	// Listing2: <nil>, [the-files/pretty.json the-files/subdir/ugly.json]
	// Listing subdir2: <nil>, [the-files/subdir/ugly.json]
}

func Example_memoryAccess() {
	runTest(MakeMemoryAccess(), "test-bucket")

	// Output:
	// JSON: <nil>
	// JSON no-indent: <nil>
	// Exists1: false|<nil>
	// Binary: <nil>
	// Exists2: true|<nil>
	// Copy: <nil>
	// Copy bad path, got not found error: true
	// Read JSON: <nil>, {Hello 778 World}
	// Read JSON no-indent: <nil>, {Hello 778 World}
	// Read Binary: <nil>, [250 130 10 0 33]
	// Read bad path, got not found error: true
	// Read bad path tolerated: <nil>, untouched
	// Read bad JSON: invalid character 'ú' looking for beginning of value
	// Not a "not found" error: true
	// Listing: <nil>, [the-files/data.bin the-files/pretty.json the-files/subdir/copied.json the-files/subdir/ugly.json]
	// Listing subdir: <nil>, [the-files/subdir/copied.json the-files/subdir/ugly.json]
	// Listing with prefix: <nil>, [the-files/subdir/ugly.json]
	// Listing bad path: <nil>, []
	// Delete copy: <nil>
	// Delete bin: <nil>
	// Listing2: <nil>, [the-files/pretty.json the-files/subdir/ugly.json]
	// Listing subdir2: <nil>, [the-files/subdir/ugly.json]
}

func Example_makeValidObjectName() {
	fmt.Println(MakeValidObjectName("Dust on lens?"))
	fmt.Println(MakeValidObjectName("cell/cluster #4"))
	fmt.Println(MakeValidObjectName("plain-name_01"))
	fmt.Println(IsValidObjectName(""), IsValidObjectName("cell_cluster_4"))

	// Output:
	// Dust_on_lens
	// cell_cluster_4
	// plain-name_01
	// false true
}

func Example_s3Urls() {
	b, err := GetBucketFromS3Url("s3://mosaic-tiles-prod/mosaics/m0042/tiles.json")
	fmt.Printf("%v|%v\n", b, err)

	p, err := GetPathFromS3Url("s3://mosaic-tiles-prod/mosaics/m0042/tiles.json")
	fmt.Printf("%v|%v\n", p, err)

	b, err = GetBucketFromS3Url("https://not-s3/thing")
	fmt.Printf("%v|%v\n", b, err)

	// Output:
	// mosaic-tiles-prod|<nil>
	// mosaics/m0042/tiles.json|<nil>
	// |GetBucketFromS3Url parameter was not a valid S3 url: https://not-s3/thing
}
