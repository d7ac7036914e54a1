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

// Small helper functions shared across packages - slice/set/map operations,
// random strings and image file helpers
package utils

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// When we write "pretty" JSON anywhere, use this indent so files diff cleanly
const PrettyPrintIndentForJSON = "    "

func ItemInSlice[T comparable](a T, list []T) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

func SlicesEqual[T comparable](test []T, ans []T) bool {
	if len(test) != len(ans) {
		return false
	}

	for c := range test {
		if test[c] != ans[c] {
			return false
		}
	}

	return true
}

func AddItemsToSet[K comparable](keys []K, theSet map[K]bool) {
	for _, key := range keys {
		theSet[key] = true
	}
}

func GetMapKeys[K comparable, V any](theMap map[K]V) []K {
	result := []K{}

	for key := range theMap {
		result = append(result, key)
	}

	return result
}

// GetSortedMapKeys - map iteration order is random, this gives a stable one
func GetSortedMapKeys[K constraints.Ordered, V any](theMap map[K]V) []K {
	result := GetMapKeys(theMap)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func ConvertIntSlice[T constraints.Integer, F constraints.Integer](from []F) []T {
	res := make([]T, len(from))
	for i, e := range from {
		res[i] = T(e)
	}
	return res
}

func MinOf[T constraints.Ordered](a T, b T) T {
	if a < b {
		return a
	}
	return b
}

func MaxOf[T constraints.Ordered](a T, b T) T {
	if a > b {
		return a
	}
	return b
}

func AbsI64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
