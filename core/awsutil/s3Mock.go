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

package awsutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/microstitch/core/core/utils"
)

type MockSigner struct {
	Urls []string
}

func (m *MockSigner) GetSignedURL(s3iface.S3API, string, string, time.Duration) (string, error) {
	if len(m.Urls) > 0 {
		url := m.Urls[0]
		m.Urls = m.Urls[1:]
		return url, nil
	}
	return "NO_SIGNED_URL_DEFINED", errors.New("NO_SIGNED_URL_DEFINED")
}

// MockS3Client - mock S3 client for unit tests. Don't forget to call FinishTest() at the end of your test to check
// that all calls to S3 were made, and there were no unexpected calls!
type MockS3Client struct {
	mutex sync.Mutex

	s3iface.S3API

	// Expected requests
	ExpListObjectsV2Input []s3.ListObjectsV2Input
	ExpGetObjectInput     []s3.GetObjectInput
	ExpPutObjectInput     []s3.PutObjectInput
	ExpDeleteObjectInput  []s3.DeleteObjectInput
	ExpCopyObjectInput    []s3.CopyObjectInput

	// Responses replayed as each request comes in
	QueuedListObjectsV2Output []*s3.ListObjectsV2Output
	QueuedGetObjectOutput     []*s3.GetObjectOutput
	QueuedPutObjectOutput     []*s3.PutObjectOutput
	QueuedDeleteObjectOutput  []*s3.DeleteObjectOutput
	QueuedCopyObjectOutput    []*s3.CopyObjectOutput

	// Stitch workers pull tiles and write composites concurrently, so request
	// order isn't deterministic there
	AllowGetInAnyOrder    bool
	AllowPutInAnyOrder    bool
	AllowDeleteInAnyOrder bool

	// Put bodies to skip comparing (eg compressed images)
	SkipPutCheckNames []string
}

// NOTE: This function MUST be called at the end of a unit test/example test. Use defer when declaring MockS3Client!
func (m *MockS3Client) FinishTest() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.getFinishTestResult()

	// If we found something unexpected, print an error so any example tests get this in their input
	// Unit tests which aren't example based will still get our return value
	if err != nil {
		fmt.Println(err)
	}

	return err
}

func (m *MockS3Client) getFinishTestResult() error {
	// Expecting no inputs left
	if len(m.ExpListObjectsV2Input) > 0 {
		return errors.New("Test expected more ListObjectsV2 calls to func")
	}
	if len(m.ExpGetObjectInput) > 0 {
		return errors.New("Test expected more GetObject calls to func")
	}
	if len(m.ExpPutObjectInput) > 0 {
		return errors.New("Test expected more PutObject calls to func")
	}
	if len(m.ExpDeleteObjectInput) > 0 {
		return errors.New("Test expected more DeleteObject calls to func")
	}
	if len(m.ExpCopyObjectInput) > 0 {
		return errors.New("Test expected more CopyObject calls to func")
	}

	// Expecting nothing left to output
	if len(m.QueuedListObjectsV2Output) > 0 {
		return errors.New("Remaining output ListObjectsV2 for func")
	}
	if len(m.QueuedGetObjectOutput) > 0 {
		return errors.New("Remaining output GetObject for func")
	}
	if len(m.QueuedPutObjectOutput) > 0 {
		return errors.New("Remaining output PutObject for func")
	}
	if len(m.QueuedDeleteObjectOutput) > 0 {
		return errors.New("Remaining output DeleteObject for func")
	}
	if len(m.QueuedCopyObjectOutput) > 0 {
		return errors.New("Remaining output CopyObject for func")
	}

	return nil
}

const ErrNoMoreInputsExpected = "No more inputs expected for "
const ErrWrongInput = "Incorrect input in "
const ErrNothingToReturn = "Nothing to return from "
const ErrReturningError = "Returning error from "

func (m *MockS3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "ListObjectsV2"
	expList := &m.ExpListObjectsV2Input
	outputs := &m.QueuedListObjectsV2Output

	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	expStr := (*expList)[0].String()

	// Don't need this any more!
	(*expList) = (*expList)[1:]

	// Check it matches the top one
	inpStr := input.String()
	if expStr != inpStr {
		return nil, fmt.Errorf("%v expected: \"%v\" S3 recvd: \"%v\"\n", ErrWrongInput+name, expStr, inpStr)
	}

	// Return something
	if len(*outputs) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := (*outputs)[0]

	// Don't need this any more!
	(*outputs) = (*outputs)[1:]

	if result == nil {
		return nil, errors.New(ErrReturningError + name)
	}

	return result, nil
}

// takeExpectedIndex - finds inpStr in the expected list (only at the head unless
// anyOrder set), removes it, and returns the index it sat at, else -1
func takeExpectedIndex[T fmt.Stringer](expList *[]T, inpStr string, anyOrder bool) int {
	if len(*expList) <= 0 {
		return -1
	}

	if anyOrder {
		// Multiple workers are calling in, so search for a matching expected item
		for c, expItem := range *expList {
			if inpStr == expItem.String() {
				(*expList) = append((*expList)[:c], (*expList)[c+1:]...)
				return c
			}
		}
		return -1
	}

	// Expecting them to come in in the order defined, so only look at the next one
	if inpStr != (*expList)[0].String() {
		return -1
	}

	(*expList) = (*expList)[1:]
	return 0
}

func takeQueuedOutput[T any](outputs *[]T, idx int) T {
	result := (*outputs)[idx]
	if idx == 0 {
		(*outputs) = (*outputs)[1:]
	} else {
		(*outputs) = append((*outputs)[:idx], (*outputs)[idx+1:]...)
	}
	return result
}

func (m *MockS3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "GetObject"
	expList := &m.ExpGetObjectInput
	outputs := &m.QueuedGetObjectOutput

	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	inpStr := input.String()
	expListIdx := takeExpectedIndex(expList, inpStr, m.AllowGetInAnyOrder)
	if expListIdx < 0 {
		return nil, fmt.Errorf("%v expected: \"%v\" S3 recvd: \"%v\"\n", ErrWrongInput+name, (*expList)[0].String(), inpStr)
	}

	// Return something
	if len(*outputs) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := takeQueuedOutput(outputs, expListIdx)

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, ErrReturningError+name, nil)
	}

	return result, nil
}

func getAsStr(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil {
		return "ERROR GETTING DATA"
	}
	return string(data)
}

func (m *MockS3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "PutObject"
	expList := &m.ExpPutObjectInput
	outputs := &m.QueuedPutObjectOutput

	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	expItemIdx := 0
	if m.AllowPutInAnyOrder {
		expItemIdx = -1
		for c, expItem := range *expList {
			if *input.Bucket == *expItem.Bucket && *input.Key == *expItem.Key {
				expItemIdx = c
				break
			}
		}
		if expItemIdx < 0 {
			return nil, fmt.Errorf("%v %v - no expected put for: \"%v/%v\"\n", ErrWrongInput, name, *input.Bucket, *input.Key)
		}
	}

	expItem := (*expList)[expItemIdx]
	if expItemIdx == 0 {
		(*expList) = (*expList)[1:]
	} else {
		(*expList) = append((*expList)[:expItemIdx], (*expList)[expItemIdx+1:]...)
	}

	// Check it matches the top one
	if *input.Bucket != *expItem.Bucket {
		return nil, fmt.Errorf("%v %v - bucket\nexpected: \"%v\"\nS3 recvd: \"%v\"\n", ErrWrongInput, name, *expItem.Bucket, *input.Bucket)
	}

	if *input.Key != *expItem.Key {
		return nil, fmt.Errorf("%v %v - key\nexpected: \"%v\"\nS3 recvd: \"%v\"\n", ErrWrongInput, name, *expItem.Key, *input.Key)
	}

	if !utils.ItemInSlice(*input.Key, m.SkipPutCheckNames) {
		inpBody := getAsStr(input.Body)
		expBody := getAsStr(expItem.Body)
		if inpBody != expBody {
			// Report the first line that differs, image/CSV bodies are too big to dump whole
			inpBodyLines := strings.Split(inpBody, "\n")
			expBodyLines := strings.Split(expBody, "\n")

			loopToIdx := len(inpBodyLines)
			if l := len(expBodyLines); l > loopToIdx {
				loopToIdx = l
			}

			expLine := ""
			inpLine := ""

			c := 0
			for ; c < loopToIdx; c++ {
				if c >= len(inpBodyLines) || c >= len(expBodyLines) || inpBodyLines[c] != expBodyLines[c] {
					if c < len(inpBodyLines) {
						inpLine = inpBodyLines[c]
					}
					if c < len(expBodyLines) {
						expLine = expBodyLines[c]
					}
					break
				}
			}

			return nil, fmt.Errorf("%v %v - body\nline %v\nexpected: \"%v\"\nS3 recvd: \"%v\"\n", ErrWrongInput, name, c+1, expLine, inpLine)
		}
	}
	// Return something
	if len(*outputs) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := takeQueuedOutput(outputs, 0)

	if result == nil {
		return nil, errors.New(ErrReturningError + name)
	}

	return result, nil
}

func (m *MockS3Client) DeleteObject(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "DeleteObject"
	expList := &m.ExpDeleteObjectInput
	outputs := &m.QueuedDeleteObjectOutput

	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	inpStr := input.String()
	expListIdx := takeExpectedIndex(expList, inpStr, m.AllowDeleteInAnyOrder)
	if expListIdx < 0 {
		return nil, fmt.Errorf("%v %v: expected \"%v\" S3 recvd \"%v\"\n", ErrWrongInput, name, (*expList)[0].String(), inpStr)
	}

	// Return something
	if len(*outputs) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := takeQueuedOutput(outputs, expListIdx)

	if result == nil {
		return nil, errors.New(ErrReturningError + name)
	}

	return result, nil
}

func (m *MockS3Client) CopyObject(input *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "CopyObject"
	expList := &m.ExpCopyObjectInput
	outputs := &m.QueuedCopyObjectOutput

	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	expStr := (*expList)[0].String()

	// Don't need this any more!
	(*expList) = (*expList)[1:]

	// Check it matches the top one
	inpStr := input.String()
	if expStr != inpStr {
		return nil, fmt.Errorf("%v expected: \"%v\" S3 recvd: \"%v\"\n", ErrWrongInput+name, expStr, inpStr)
	}

	// Return something
	if len(*outputs) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := takeQueuedOutput(outputs, 0)

	if result == nil {
		return nil, errors.New(ErrReturningError + name)
	}

	return result, nil
}

func (m *MockS3Client) SkipPutChecks(path []string) {
	m.SkipPutCheckNames = path
}
