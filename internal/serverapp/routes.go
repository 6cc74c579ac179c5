package serverapp

import (
	"net/http"
	"strings"
)

// RouteDoc describes one API route for the /api index.
type RouteDoc struct {
	Method      string `json:"method"`
	Pattern     string `json:"pattern"`
	Summary     string `json:"summary,omitempty"`
	ExampleBody string `json:"example_body,omitempty"`
}

type routeRegistry struct {
	routes []RouteDoc
}

func (rr *routeRegistry) list() []RouteDoc {
	out := make([]RouteDoc, len(rr.routes))
	copy(out, rr.routes)
	return out
}

// handle registers h on mux and records it in the index.
func (rr *routeRegistry) handle(mux *http.ServeMux, methodAndPattern, summary, exampleBody string, h http.Handler) {
	method, pattern, _ := strings.Cut(methodAndPattern, " ")
	rr.routes = append(rr.routes, RouteDoc{Method: method, Pattern: pattern, Summary: summary, ExampleBody: exampleBody})
	mux.Handle(methodAndPattern, h)
}
