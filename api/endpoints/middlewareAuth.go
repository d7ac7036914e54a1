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
	"strings"

	"github.com/microstitch/core/api/permission"
	"github.com/microstitch/core/core/jwtparser"
	"github.com/microstitch/core/core/logger"
)

// JWT auth middleware. Every route the router registered carries a
// permission in RoutePermissionsRequired, keyed "METHOD/path/{var}". Public
// routes pass straight through, everything else needs a valid token whose
// permission claims contain the route's permission.

type AuthMiddleWareData struct {
	RoutePermissionsRequired map[string]string
	JWTValidator             jwtparser.JWTInterface
	Logger                   logger.ILogger
}

var routeKeyMethods = []string{"GET", "POST", "PUT", "DELETE"}

// Splits "GET/stitch/{jobId}" into the method and path segments. Anything
// not starting with a known method is not a route key.
func splitRouteKey(key string) (string, []string, bool) {
	for _, m := range routeKeyMethods {
		if strings.HasPrefix(key, m+"/") {
			return m, strings.Split(strings.Trim(key[len(m):], "/"), "/"), true
		}
	}
	return "", nil, false
}

// isMatch - does a request key match a registered route key, treating the
// route's {var} segments as wildcards. The first path segment is always
// matched literally. See unit tests for what we match
func isMatch(uri string, route string) bool {
	uriMethod, uriSegs, ok := splitRouteKey(uri)
	if !ok {
		return false
	}

	routeMethod, routeSegs, ok := splitRouteKey(route)
	if !ok || routeMethod != uriMethod {
		return false
	}

	if len(uriSegs) != len(routeSegs) {
		return false
	}

	for c, uriSeg := range uriSegs {
		routeSeg := routeSegs[c]

		// A blank segment means a stray slash, never a match
		if len(uriSeg) <= 0 || len(routeSeg) <= 0 {
			return false
		}

		isVar := len(routeSeg) > 2 && strings.HasPrefix(routeSeg, "{") && strings.HasSuffix(routeSeg, "}")
		if isVar && c > 0 {
			continue
		}

		if uriSeg != routeSeg {
			return false
		}
	}

	return true
}

func (a *AuthMiddleWareData) getPermissionsForURI(method string, uri string) (string, error) {
	// Query strings play no part in route permissions
	if q := strings.Index(uri, "?"); q >= 0 {
		uri = uri[:q]
	}

	// Literal routes hit the map directly
	if perm, ok := a.RoutePermissionsRequired[method+uri]; ok {
		return perm, nil
	}

	// Otherwise it may match a route with {vars} in it
	for route, perm := range a.RoutePermissionsRequired {
		if isMatch(method+uri, route) {
			return perm, nil
		}
	}

	return "", fmt.Errorf("Permissions not defined for route: %v %v", method, uri)
}

func (a *AuthMiddleWareData) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reject := func(publicMsg string) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized - " + publicMsg))
		}

		permissionRequired, err := a.getPermissionsForURI(r.Method, r.RequestURI)
		if err != nil {
			// Routes get registered with a permission or not at all, so this
			// request is for something we don't serve
			a.Logger.Errorf("No permission found for URI %v. %v", r.RequestURI, err)
			reject("Bad route permissions")
			return
		}

		if permissionRequired == permission.PermPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, err := a.JWTValidator.ValidateRequest(r)
		if err != nil {
			reject("Bad token")
			return
		}

		claims := map[string]interface{}{}
		if err := a.JWTValidator.Claims(r, token, &claims); err != nil {
			a.Logger.Errorf("Failed to read claims from JWT: %v", err)
			reject("Bad claims")
			return
		}

		permissions, err := jwtparser.ReadPermissions(claims)
		if err != nil {
			a.Logger.Errorf("No permissions defined in claims. Error: %v", err)
			reject("Bad claim permissions")
			return
		}

		if !permissions[permissionRequired] {
			a.Logger.Errorf("Claim permissions did not contain %v for route: %v", permissionRequired, r.RequestURI)
			reject("Route not permitted")
			return
		}

		next.ServeHTTP(w, r)
	})
}
