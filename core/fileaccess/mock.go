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
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/microstitch/core/core/utils"
)

var errMockNotFound = errors.New("mock object not found")

// In-memory implementation for unit tests. Safe for concurrent use because
// batch tests hit it from multiple workers at once.
type MemoryAccess struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func MakeMemoryAccess() *MemoryAccess {
	return &MemoryAccess{buckets: map[string]map[string][]byte{}}
}

func (m *MemoryAccess) ListObjects(bucket string, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []string{}
	for path := range m.buckets[bucket] {
		if strings.HasPrefix(path, prefix) {
			result = append(result, path)
		}
	}

	// Map order is random, S3 listings are lexical
	sort.Strings(result)
	return result, nil
}

func (m *MemoryAccess) ObjectExists(bucket string, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.buckets[bucket][path]
	return ok, nil
}

func (m *MemoryAccess) ReadObject(bucket string, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.buckets[bucket][path]
	if !ok {
		return nil, errMockNotFound
	}
	return data, nil
}

func (m *MemoryAccess) WriteObject(bucket string, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets[bucket] == nil {
		m.buckets[bucket] = map[string][]byte{}
	}
	saved := make([]byte, len(data))
	copy(saved, data)
	m.buckets[bucket][path] = saved
	return nil
}

func (m *MemoryAccess) ReadJSON(bucket string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := m.ReadObject(bucket, path)
	if err != nil {
		if emptyIfNotFound && m.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (m *MemoryAccess) WriteJSON(bucket string, path string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return m.WriteObject(bucket, path, fileData)
}

func (m *MemoryAccess) WriteJSONNoIndent(bucket string, path string, itemsPtr interface{}) error {
	fileData, err := json.Marshal(itemsPtr)
	if err != nil {
		return err
	}

	return m.WriteObject(bucket, path, fileData)
}

func (m *MemoryAccess) DeleteObject(bucket string, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket][path]; !ok {
		return errMockNotFound
	}
	delete(m.buckets[bucket], path)
	return nil
}

func (m *MemoryAccess) CopyObject(srcBucket string, srcPath string, dstBucket string, dstPath string) error {
	data, err := m.ReadObject(srcBucket, srcPath)
	if err != nil {
		return err
	}
	return m.WriteObject(dstBucket, dstPath, data)
}

func (m *MemoryAccess) IsNotFoundError(err error) bool {
	return errors.Is(err, errMockNotFound)
}
