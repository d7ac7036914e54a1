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
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/api/services"
)

func Example_loggerLevel() {
	svcs := services.MakeMockSvcs(nil, nil, nil)
	router := apiRouter.NewAPIRouter(&svcs, mux.NewRouter())
	registerLoggerHandler(&router)

	// Mock logger starts out in debug
	req, _ := http.NewRequest("GET", "/logger/level", nil)
	resp := executeRequest(req, router.Router)
	fmt.Println(resp.Code)
	fmt.Println(resp.Body.String())

	req, _ = http.NewRequest("PUT", "/logger/level/ERROR", nil)
	resp = executeRequest(req, router.Router)
	fmt.Println(resp.Code)
	fmt.Println(resp.Body.String())

	req, _ = http.NewRequest("GET", "/logger/level", nil)
	resp = executeRequest(req, router.Router)
	fmt.Println(resp.Code)
	fmt.Println(resp.Body.String())

	req, _ = http.NewRequest("PUT", "/logger/level/SHOUTING", nil)
	resp = executeRequest(req, router.Router)
	fmt.Println(resp.Code)
	fmt.Println(resp.Body.String())

	// Output:
	// 200
	// "DEBUG"
	//
	// 200
	//
	// 200
	// "ERROR"
	//
	// 400
	// Invalid log level name: SHOUTING
}
