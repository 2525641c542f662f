// Package mcp exposes thought records and draft sessions as MCP tools.
package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/thoughts/internal/config"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/lifecycle"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"thought_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"thought_view": {
		def:     viewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleView },
	},
	"draft_open": {
		def:     openToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOpen },
	},
	"draft_edit": {
		def:     editToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEdit },
	},
	"draft_checkpoint": {
		def:     checkpointToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCheckpoint },
	},
	"draft_submit": {
		def:     submitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSubmit },
	},
	"draft_close": {
		def:     closeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClose },
	},
}

// AllToolNames returns the names of all tools, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the thought tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(store *db.Store, registry *lifecycle.Registry, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"thoughts",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, registry, cfg)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio until the client disconnects, then closes any
// draft sessions left open.
func Run(store *db.Store, registry *lifecycle.Registry, cfg *config.Config, version string) error {
	defer registry.CloseAll()
	s := NewServer(store, registry, cfg, version)
	return server.ServeStdio(s)
}
