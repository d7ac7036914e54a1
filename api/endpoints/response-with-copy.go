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
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"strconv"
)

// Wraps an http.ResponseWriter and keeps a copy of the status code and body
// bytes, so the logging middleware has something to print after the handler ran
type teeResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *teeResponseWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *teeResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// The websocket upgrade on /ws passes through the logging middleware, so the
// wrapper has to keep the underlying connection hijackable
func (w *teeResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// Handlers that never call WriteHeader leave status 0, meaning net/http sent 200
func (w *teeResponseWriter) statusText() string {
	if w.status == 0 {
		return "OK"
	}
	return strconv.Itoa(w.status)
}
