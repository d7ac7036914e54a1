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

package jwtparser

import "fmt"

// ReadPermissions builds a permission lookup from the "permissions" claim
// Auth0 puts in access tokens. Anything non-string in the claim is skipped
func ReadPermissions(claims map[string]interface{}) (map[string]bool, error) {
	result := map[string]bool{}

	claimPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return result, fmt.Errorf("Failed to get permissions from request JWT")
	}

	for _, claimPerm := range claimPermissions {
		if claimPermStr, ok := claimPerm.(string); ok {
			result[claimPermStr] = true
		}
	}

	return result, nil
}
