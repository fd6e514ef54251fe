package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const runtimePrefix = "/_runtime/"

// route pairs a request predicate with the handler serving it. Routes are
// evaluated in order and the first match wins.
type route struct {
	name   string
	match  func(*http.Request) bool
	handle gin.HandlerFunc
}

func pathPrefix(prefix string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		return strings.HasPrefix(r.URL.Path, prefix)
	}
}

func matchAll(*http.Request) bool { return true }

func (s *Server) buildRoutes() []route {
	var routes []route

	if s.config.Server.RuntimeInfo {
		routes = append(routes, route{
			name:   "runtime",
			match:  pathPrefix(runtimePrefix),
			handle: s.handleRuntime,
		})
	}

	routes = append(routes,
		route{
			name:   "files-api",
			match:  pathPrefix(s.config.Server.APIPrefix),
			handle: s.handleListFiles,
		},
		route{
			name:   "static",
			match:  matchAll,
			handle: staticHandler(s.config.Server.Root),
		},
	)

	return routes
}

// dispatch runs the first route matching the request
func (s *Server) dispatch(c *gin.Context) {
	// gin presets 404 for unmatched requests; handlers that write without
	// an explicit status (directory listings) must not inherit it.
	c.Status(http.StatusOK)

	for _, rt := range s.routes {
		if rt.match(c.Request) {
			rt.handle(c)
			return
		}
	}

	c.Status(http.StatusNotFound)
}

func staticHandler(root string) gin.HandlerFunc {
	return gin.WrapH(http.FileServer(http.Dir(root)))
}
