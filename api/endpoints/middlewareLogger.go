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
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/core/logger"
)

// How many chars of request body to display in logs
const bodyTextReqLogLength = 200

// How many chars of resp body to display in logs
const bodyTextRespLogHeadLength = 600

// How many chars of resp body to display in logs
const bodyTextRespLogTailLength = 300

// If req/resp body is longer than the limits, we print this to show it was cut off
const logSnipIndicator = "\n    ---- >8 -------- >8 -------- >8 -------- >8 ----\n"

type LoggerMiddleware struct {
	*services.APIServices
}

func (h *LoggerMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Read the HTTP body. We can log it here if required, and then we pass it into the next in chain
		bodyBytes, err := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		reqBodyText := "REQ BODY ERROR"

		if err == nil {
			reqBodyText = string(bodyBytes)
		}
		// Display a part of the body
		if len(reqBodyText) > bodyTextReqLogLength {
			reqBodyText = reqBodyText[0:bodyTextReqLogLength] + logSnipIndicator
		}

		// Wrap the writer, so we get a copy of the response to log
		w2 := &teeResponseWriter{ResponseWriter: w}

		next.ServeHTTP(w2, r)

		// We only log if we're in debug log level OR we detected an error
		hadError := w2.status != 0 && w2.status != http.StatusOK && w2.status != http.StatusNotModified

		respBodyTxt := w2.body.String()
		if len(respBodyTxt) > bodyTextRespLogHeadLength+bodyTextRespLogTailLength {
			respBodyTxt = respBodyTxt[0:bodyTextRespLogHeadLength] +
				logSnipIndicator +
				respBodyTxt[len(respBodyTxt)-bodyTextRespLogTailLength:]
		}

		level := logger.LogDebug
		if hadError {
			level = logger.LogError

			requestingUser, _ := h.APIServices.JWTReader.GetSimpleUserInfo(r)

			msg := fmt.Sprintf("API returned %v for %v \"%v %v\", query params: %v. Requesting user id: \"%v\", name: \"%v\". Response body: \"%v\"",
				w2.status,
				r.Method,
				r.Host,
				r.URL,
				r.URL.Query(),
				requestingUser.UserID,
				requestingUser.Name,
				respBodyTxt,
			)
			sentry.CaptureMessage(msg)
		}

		// Don't log requests to / as some load balancer seems to be doing this constantly, so we lose all other logs
		// in the sea of requests to /
		// NOTE: we ask the logger for its level, not the config, so runtime
		// changes through the log level endpoint take effect here too
		if r.URL.Path != "/" && (hadError || h.Log.GetLogLevel() == logger.LogDebug) {
			h.Log.Printf(level, "Request: %v (%v), body: %v\nResponse status: %v, body: %v", r.URL, r.Method, reqBodyText, w2.statusText(), respBodyTxt)
		}
	})
}
