package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/content/check"
)

// Handler exposes content types and live content as MCP tools
type Handler struct {
	service simplecms.Service
}

// NewHandler creates a new instance of Handler
func NewHandler(service simplecms.Service) *Handler {
	return &Handler{service: service}
}

// RegisterTools registers the content tools with the MCP server
func (h *Handler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_content_types",
		mcp.WithDescription("Lists the registered content types with their attributes"),
	), h.handleListContentTypes)

	s.AddTool(mcp.NewTool("list_live_content",
		mcp.WithDescription("Lists the published content of a content type"),
		mcp.WithString("type", mcp.Required(), mcp.Description("Content type id")),
	), h.handleListLiveContent)

	s.AddTool(mcp.NewTool("get_live_content",
		mcp.WithDescription("Returns one published content item by id or by key slug"),
		mcp.WithString("type", mcp.Required(), mcp.Description("Content type id")),
		mcp.WithString("id", mcp.Description("Content id (UUID)")),
		mcp.WithString("key", mcp.Description("Key slug, used when id is empty")),
	), h.handleGetLiveContent)
}

func stringArg(request mcp.CallToolRequest, name string) string {
	if v, ok := request.GetArguments()[name]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// typeSummary is the list_content_types entry for one type
type typeSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Identifier  string   `json:"identifier"`
	Attributes  []string `json:"attributes"`
}

func (h *Handler) handleListContentTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types := h.service.Types()
	out := make([]typeSummary, 0, len(types))
	for _, ct := range types {
		attrs := make([]string, len(ct.Attributes))
		for i, attr := range ct.Attributes {
			attrs[i] = attr.ID
		}
		out = append(out, typeSummary{
			ID:          ct.ID,
			Name:        ct.Name,
			Description: ct.Description,
			Identifier:  ct.Identifier,
			Attributes:  attrs,
		})
	}
	return jsonResult(out)
}

func (h *Handler) handleListLiveContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID := stringArg(request, "type")
	if typeID == "" {
		return mcp.NewToolResultError("type is required"), nil
	}
	recs, err := h.service.ListLive(ctx, typeID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(recs)
}

func (h *Handler) handleGetLiveContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID := stringArg(request, "type")
	if typeID == "" {
		return mcp.NewToolResultError("type is required"), nil
	}

	id := stringArg(request, "id")
	if id != "" {
		if !check.ID(check.NewRequest(map[string]string{"id": id})) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid id %q", id)), nil
		}
		rec, err := h.service.Live(ctx, typeID, uuid.MustParse(id))
		if err != nil {
			return toolError(err)
		}
		return jsonResult(rec)
	}

	key := stringArg(request, "key")
	if key == "" {
		return mcp.NewToolResultError("id or key is required"), nil
	}
	rec, err := h.service.LiveByKey(ctx, typeID, key)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(rec)
}

// toolError reports lookup failures to the model and everything else to the client
func toolError(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, simplecms.ErrTypeNotFound) || errors.Is(err, simplecms.ErrContentNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}
