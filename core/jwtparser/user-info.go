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
	"fmt"
	"net/http"
	"strings"
)

// Claims our Auth0 rules add to tokens, namespaced as Auth0 requires
const usernameClaim = "https://microstitch.org/username"
const emailClaim = "https://microstitch.org/email"

type JWTUserInfo struct {
	Name        string          `json:"name"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Permissions map[string]bool `json:"-" bson:"-"` // This is a lookup - we don't want this in JSON sent out of API though!
}

// IJWTReader - User info getter from HTTP request
type IJWTReader interface {
	GetSimpleUserInfo(r *http.Request) (JWTUserInfo, error)
	GetUserInfo(r *http.Request) (JWTUserInfo, error)
	GetValidator() JWTInterface
}

// RealJWTReader - Reader
type RealJWTReader struct {
	Validator JWTInterface
}

func (j RealJWTReader) GetValidator() JWTInterface {
	return j.Validator
}

// GetSimpleUserInfo - just the user id and name, no permission parsing
func (j RealJWTReader) GetSimpleUserInfo(r *http.Request) (JWTUserInfo, error) {
	result := JWTUserInfo{}

	claims, err := j.readClaims(r)
	if err != nil {
		return result, err
	}

	result.Name, err = claimString(claims, usernameClaim)
	if err != nil {
		return result, err
	}

	result.UserID, err = claimSubject(claims)
	return result, err
}

// GetUserInfo - everything GetSimpleUserInfo reads plus the email address
// and permission set, for handlers that gate on them
func (j RealJWTReader) GetUserInfo(r *http.Request) (JWTUserInfo, error) {
	result := JWTUserInfo{}

	claims, err := j.readClaims(r)
	if err != nil {
		return result, err
	}

	result.Name, err = claimString(claims, usernameClaim)
	if err != nil {
		return result, err
	}

	result.Email, err = claimString(claims, emailClaim)
	if err != nil {
		return result, err
	}

	result.UserID, err = claimSubject(claims)
	if err != nil {
		return result, err
	}

	result.Permissions, err = ReadPermissions(claims)
	return result, err
}

func (j RealJWTReader) readClaims(r *http.Request) (map[string]interface{}, error) {
	token, err := j.Validator.ValidateRequest(r)
	if err != nil {
		return nil, err
	}

	claims := map[string]interface{}{}
	err = j.Validator.Claims(r, token, &claims)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

func claimString(claims map[string]interface{}, claim string) (string, error) {
	obj, ok := claims[claim]
	if !ok {
		return "", fmt.Errorf("JWT missing claim: %v", claim)
	}

	str, ok := obj.(string)
	if !ok {
		return "", fmt.Errorf("JWT claim is not a string: %v", claim)
	}

	return str, nil
}

// The sub claim arrives as auth0|<id>, we only store the id part
func claimSubject(claims map[string]interface{}) (string, error) {
	sub, err := claimString(claims, "sub")
	if err != nil {
		return "", err
	}

	if pipePos := strings.Index(sub, "|"); pipePos > -1 {
		sub = sub[pipePos+1:]
	}

	return sub, nil
}
