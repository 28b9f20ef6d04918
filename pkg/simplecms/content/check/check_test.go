package check

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		id   any
		want bool
	}{
		{"object", map[string]any{}, false},
		{"word", "foo", false},
		{"number", 123, false},
		{"empty", "", false},
		{"uuid", uuid.NewString(), true},
		{"uppercase uuid", "3F2504E0-4F89-41D3-9A0C-0305E82C3301", true},
		{"urn form", "urn:uuid:3f2504e0-4f89-41d3-9a0c-0305e82c3301", false},
		{"braced", "{3f2504e0-4f89-41d3-9a0c-0305e82c3301}", false},
		{"no hyphens", "3f2504e04f8941d39a0c0305e82c3301", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Params: map[string]any{"id": tt.id}}
			assert.Equal(t, tt.want, ID(req))
		})
	}

	assert.False(t, ID(&Request{}), "missing id")
	assert.False(t, ID(nil), "nil request")
}

func TestRevision(t *testing.T) {
	tests := []struct {
		name     string
		revision any
		want     bool
	}{
		{"object", map[string]any{}, false},
		{"number", 123, false},
		{"empty", "", false},
		{"blank", "   ", false},
		{"string", "foo", true},
		{"numeric string", "3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Params: map[string]any{"revision": tt.revision}}
			assert.Equal(t, tt.want, Revision(req))
		})
	}

	assert.False(t, Revision(&Request{}), "missing revision")
	assert.False(t, Revision(nil), "nil request")
}

func TestType(t *testing.T) {
	req := NewRequest(nil)

	assert.False(t, Type(req, nil))
	assert.False(t, Type(req, "foo"))
	assert.False(t, Type(req, map[string]any{"id": "services"}), "missing name")
	assert.False(t, Type(req, map[string]any{"name": "Services"}), "missing id")
	assert.False(t, Type(req, map[string]any{"name": 1, "id": "services"}))
	assert.True(t, Type(req, map[string]any{"name": "Services", "id": "services"}))

	ct := contenttype.ContentType{Name: "Services", ID: "services"}
	assert.True(t, Type(req, ct))
	assert.True(t, Type(req, &ct))

	var nilType *contenttype.ContentType
	assert.False(t, Type(req, nilType))
	assert.False(t, Type(req, contenttype.ContentType{Name: "Services"}))
	assert.True(t, Type(nil, ct), "only the type is checked")
	assert.False(t, Type(nil, nil))
}

func TestFromHTTP(t *testing.T) {
	id := uuid.NewString()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("type", "services")
	rctx.URLParams.Add("id", id)
	rctx.URLParams.Add("revision", "2")

	r := httptest.NewRequest(http.MethodGet, "/content/services/"+id+"/2", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	req := FromHTTP(r)
	assert.Equal(t, "services", req.Params["type"])
	assert.True(t, ID(req))
	assert.True(t, Revision(req))

	plain := FromHTTP(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ID(plain))
	assert.Empty(t, plain.Params)
}
