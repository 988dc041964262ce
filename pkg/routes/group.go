package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/nunc/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		walk("", nil, group, func(path string, tags []string, route Route) {
			mux.HandleFunc(route.Method+" "+path, route.Handler)
		})
	}
}

// Describe adds the documented routes of the given groups to spec, with
// paths rooted at basePath. Routes without OpenAPI metadata are skipped.
func Describe(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, group := range groups {
		walk(basePath, nil, group, func(path string, tags []string, route Route) {
			if route.OpenAPI == nil {
				return
			}

			op := *route.OpenAPI
			if len(op.Tags) == 0 {
				op.Tags = tags
			}

			key := openapiPath(path)
			item, ok := spec.Paths[key]
			if !ok {
				item = &openapi.PathItem{}
				spec.Paths[key] = item
			}

			switch route.Method {
			case http.MethodGet:
				item.Get = &op
			case http.MethodPost:
				item.Post = &op
			case http.MethodPut:
				item.Put = &op
			case http.MethodDelete:
				item.Delete = &op
			}
		})
	}
}

func walk(parent string, parentTags []string, group Group, fn func(path string, tags []string, route Route)) {
	prefix := parent + group.Prefix
	tags := group.Tags
	if len(tags) == 0 {
		tags = parentTags
	}

	for _, route := range group.Routes {
		fn(prefix+route.Pattern, tags, route)
	}
	for _, child := range group.Children {
		walk(prefix, tags, child, fn)
	}
}

// openapiPath converts ServeMux wildcards such as {key...} into OpenAPI
// path parameters.
func openapiPath(pattern string) string {
	return strings.ReplaceAll(pattern, "...}", "}")
}
