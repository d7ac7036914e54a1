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

import (
	"net/http"

	"gopkg.in/square/go-jose.v2/jwt"
)

// MockJWTValidator - hands out the configured claims for any request, so
// endpoint tests don't need real signed tokens
type MockJWTValidator struct {
	UserID      string
	Name        string
	Email       string
	Permissions []string
}

func (v *MockJWTValidator) ValidateRequest(r *http.Request) (*jwt.JSONWebToken, error) {
	return nil, nil
}

func (v *MockJWTValidator) Claims(r *http.Request, token *jwt.JSONWebToken, values ...interface{}) error {
	perms := []interface{}{}
	for _, p := range v.Permissions {
		perms = append(perms, p)
	}

	claims := map[string]interface{}{}
	claims["sub"] = v.UserID
	claims["https://microstitch.org/username"] = v.Name
	claims["https://microstitch.org/email"] = v.Email
	claims["permissions"] = perms

	for _, d := range values {
		if m, ok := d.(*map[string]interface{}); ok {
			for k, val := range claims {
				(*m)[k] = val
			}
		}
	}
	return nil
}
