package main

import (
	"fmt"
	"sort"
	"strings"
)

type routePerm struct {
	method string
	path   string
	perm   string
}

// Dumps the route permission table on startup so a deployment's auth setup
// can be eyeballed in the logs
func printRoutePermissions(routePermissions map[string]string) {
	routes := []routePerm{}
	longestPath := 0

	for k, perm := range routePermissions {
		// Keys look like GET/stitch/{jobId}
		pathStart := strings.Index(k, "/")
		r := routePerm{method: k[0:pathStart], path: k[pathStart:], perm: perm}
		routes = append(routes, r)

		if len(r.path) > longestPath {
			longestPath = len(r.path)
		}
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].path != routes[j].path {
			return routes[i].path < routes[j].path
		}
		return routes[i].method < routes[j].method
	})

	fmt.Println("Route Permissions:")
	for _, r := range routes {
		fmt.Printf("%-7v%-*v -> %v\n", r.method, longestPath, r.path, r.perm)
	}
}
