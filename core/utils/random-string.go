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

package utils

import (
	"math/rand"
)

// RandomStringChars - lowercase+digits only, the strings end up in S3 paths
// and job ids where mixed case would invite trouble
const RandomStringChars = "abcdefghijklmnopqrstuvwxyz1234567890"

// RandomString - random id of length n. Not crypto grade, connect tokens are
// short lived and single use, job ids just need to not collide
func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = RandomStringChars[rand.Intn(len(RandomStringChars))]
	}
	return string(b)
}
