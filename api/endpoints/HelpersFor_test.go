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

package endpoints

import (
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	"github.com/microstitch/core/core/jwtparser"
)

// NOTE: The following came from https://semaphoreci.com/community/tutorials/building-and-testing-a-rest-api-in-go-with-gorilla-mux-and-postgresql
func executeRequest(req *http.Request, router *mux.Router) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

type MockJWTReader struct {
	InfoToReturn *jwtparser.JWTUserInfo
}

func (m MockJWTReader) GetUserInfo(*http.Request) (jwtparser.JWTUserInfo, error) {
	if m.InfoToReturn != nil {
		return *m.InfoToReturn, nil
	}
	//This user id is real don't change it....
	return jwtparser.JWTUserInfo{
		Name:        "Niko Bellic",
		UserID:      "600f2a0806b6c70071d3d174",
		Email:       "niko@spicule.co.uk",
		Permissions: map[string]bool{},
	}, nil
}

func (m MockJWTReader) GetSimpleUserInfo(r *http.Request) (jwtparser.JWTUserInfo, error) {
	return m.GetUserInfo(r)
}

func (m MockJWTReader) GetValidator() jwtparser.JWTInterface {
	return nil
}
