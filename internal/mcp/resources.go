package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/repcycle/internal/models"
)

func (h *handlers) landmarksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	landmarks, err := h.c.ListLandmarks(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, landmarks)
}

// activeMesocycleResource returns {"mesocycle": null} when nothing is active.
func (h *handlers) activeMesocycleResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	detail, err := h.c.GetActiveMesocycle(ctx, UserIDFromContext(ctx))
	if errors.Is(err, models.ErrNotFound) {
		return jsonContents(req.Params.URI, map[string]any{"mesocycle": nil})
	}
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, map[string]any{"mesocycle": detail})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
