// Package check holds the request predicates used by the content handlers.
// Every predicate reports a boolean and never panics.
package check

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// Request carries the route parameters of an incoming request.
type Request struct {
	Params map[string]any
}

// NewRequest builds a request from string parameters.
func NewRequest(params map[string]string) *Request {
	req := &Request{Params: make(map[string]any, len(params))}
	for k, v := range params {
		req.Params[k] = v
	}
	return req
}

// FromHTTP collects the chi URL parameters of r.
func FromHTTP(r *http.Request) *Request {
	req := &Request{Params: map[string]any{}}
	if r == nil {
		return req
	}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return req
	}
	for i, key := range rctx.URLParams.Keys {
		if i < len(rctx.URLParams.Values) {
			req.Params[key] = rctx.URLParams.Values[i]
		}
	}
	return req
}

func (r *Request) param(name string) (string, bool) {
	if r == nil || r.Params == nil {
		return "", false
	}
	s, ok := r.Params[name].(string)
	return s, ok
}

// ID reports whether the id parameter is a UUID in canonical 8-4-4-4-12 form.
func ID(req *Request) bool {
	id, ok := req.param("id")
	if !ok || len(id) != 36 {
		return false
	}
	return uuid.Validate(id) == nil
}

// Revision reports whether the revision parameter is a non-blank string.
func Revision(req *Request) bool {
	rev, ok := req.param("revision")
	return ok && strings.TrimSpace(rev) != ""
}

// Type reports whether t is a content type with a name and an id. The
// request is accepted for symmetry with the other checks and is not read.
func Type(req *Request, t any) bool {
	switch ct := t.(type) {
	case contenttype.ContentType:
		return ct.Name != "" && ct.ID != ""
	case *contenttype.ContentType:
		return ct != nil && ct.Name != "" && ct.ID != ""
	case map[string]any:
		name, _ := ct["name"].(string)
		id, _ := ct["id"].(string)
		return name != "" && id != ""
	default:
		return false
	}
}
