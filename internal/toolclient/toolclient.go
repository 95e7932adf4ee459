// Package toolclient bridges the generic MCP protocol client
// (internal/mcp) to the narrow ToolClient interface SynthesisCore
// consumes: ListTools() and Call(tool, params). The MCP
// manager itself is kept close to original — this package
// is the thin adaptation layer.
package toolclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/synthesiscore/core/internal/mcp"
	"github.com/synthesiscore/core/pkg/models"
)

// Result is the outcome of a tool call: a
// `{ success, data, error }` shape.
type Result struct {
	Success bool
	Data    string
	Error   string
}

// Client is the interface every pipeline component consumes for tool
// dispatch: superset search (DepthExtender), candidate execution
// (VerificationEngine), and external corpus sampling (CorpusIngestor).
type Client interface {
	ListTools() []models.ToolDesc
	Call(ctx context.Context, tool string, params map[string]any) (Result, error)
}

// ManagerClient implements Client against a live *mcp.Manager.
type ManagerClient struct {
	manager *mcp.Manager

	mu         sync.Mutex
	cacheAt    time.Time
	cacheTools []models.ToolDesc
	cacheTTL   time.Duration
}

// NewManagerClient wraps manager. cacheTTL defaults to 5 minutes per
// the tool-catalog cache requirement.
func NewManagerClient(manager *mcp.Manager, cacheTTL time.Duration) *ManagerClient {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ManagerClient{manager: manager, cacheTTL: cacheTTL}
}

// ListTools returns the live tool catalog, cached for cacheTTL. The cache
// sits behind a single sync.Mutex, so concurrent readers are serialized
// with each other as well as with the refresh.
func (c *ManagerClient) ListTools() []models.ToolDesc {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.cacheAt) < c.cacheTTL && c.cacheTools != nil {
		return c.cacheTools
	}

	allTools := c.manager.AllTools()
	var descs []models.ToolDesc
	for _, tools := range allTools {
		for _, tool := range tools {
			descs = append(descs, models.ToolDesc{
				Name:        tool.Name,
				Description: tool.Description,
				Actions:     []models.ToolAction{{Name: tool.Name, Params: schemaParamNames(tool.InputSchema)}},
			})
		}
	}

	c.cacheTools = descs
	c.cacheAt = time.Now()
	return descs
}

// Call dispatches a single tool invocation by name, resolving which MCP
// server hosts it via Manager.FindTool.
func (c *ManagerClient) Call(ctx context.Context, tool string, params map[string]any) (Result, error) {
	serverID, mcpTool := c.manager.FindTool(tool)
	if mcpTool == nil {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool %q", tool)}, nil
	}

	callResult, err := c.manager.CallTool(ctx, serverID, tool, params)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if callResult.IsError {
		return Result{Success: false, Error: flattenContent(callResult)}, nil
	}
	return Result{Success: true, Data: flattenContent(callResult)}, nil
}

// schemaParamNames extracts the top-level property names from an MCP
// tool's JSON Schema input descriptor. MCP tools expose exactly one
// action (invocation), so its params are the schema's object properties.
func schemaParamNames(schema json.RawMessage) []string {
	if len(schema) == 0 {
		return nil
	}
	var parsed struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		return nil
	}
	if len(parsed.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(parsed.Properties))
	for name := range parsed.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func flattenContent(result *mcp.ToolCallResult) string {
	if result == nil {
		return ""
	}
	var out string
	for i, block := range result.Content {
		if i > 0 {
			out += "\n"
		}
		switch block.Type {
		case "text":
			out += block.Text
		default:
			if data, err := json.Marshal(block); err == nil {
				out += string(data)
			}
		}
	}
	return out
}
