// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can pull for context.
// They use URI-based addressing (aider://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aider-tools/aider-mcp/internal/aider"
	"github.com/aider-tools/aider-mcp/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages the aider resource endpoints.
type Handler struct {
	store  *history.Store
	locate func() (string, error)
}

// NewHandler creates a resource Handler. store may be nil; the
// history resource then reports that history is unavailable.
func NewHandler(store *history.Store) *Handler {
	return &Handler{store: store, locate: aider.Locate}
}

// statusPayload is the aider://status JSON shape.
type statusPayload struct {
	Installed  bool   `json:"installed"`
	Executable string `json:"executable,omitempty"`
	Root       string `json:"root"`
	LogPath    string `json:"log_path"`
	LogBytes   int64  `json:"log_bytes"`
}

// StatusResource returns the MCP resource definition for install and
// log status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"aider://status",
		"Aider Status",
		mcp.WithResourceDescription("Aider install location, resolved repository root, and conversation log path/size"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current install and log status as JSON.
// Resources have no arguments, so the root is resolved from the
// server's working directory.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	payload := statusPayload{
		Root:    aider.ResolveRoot(wd),
		LogPath: aider.HistoryPath(wd),
	}
	payload.LogBytes = aider.PreSize(payload.LogPath)
	if path, err := h.locate(); err == nil {
		payload.Installed = true
		payload.Executable = path
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// RecentResource returns the MCP resource definition for recent
// invocations.
func (h *Handler) RecentResource() mcp.Resource {
	return mcp.NewResource(
		"aider://history/recent",
		"Recent Aider Invocations",
		mcp.WithResourceDescription("The last 20 aider invocations with their reconciled outcomes"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRecent returns the newest invocation records as JSON.
func (h *Handler) HandleRecent(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.store == nil {
		return errorResource(req.Params.URI, "invocation history is unavailable"), nil
	}

	recs, err := h.store.Recent(20)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if recs == nil {
		recs = []history.Record{}
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling history: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
