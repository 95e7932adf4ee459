package atomic

import (
	"strings"
	"sync"
	"time"

	"github.com/synthesiscore/core/internal/toolclient"
)

// knownTools is the realistic tool set question synthesis may declare
// required_tools from, named after the same four tool categories
// internal/cost's token-estimate table prices, plus their common
// synonyms.
var knownTools = map[string]bool{
	"microsandbox": true,
	"browser_use":  true,
	"deepsearch":   true,
	"search_tool":  true,
	"web_search":   true,
	"code_exec":    true,
	"calculator":   true,
}

// fallbackTool maps a declared-but-unknown tool name onto the nearest
// live equivalent.
var fallbackTool = map[string]string{
	"content-analyzer": "deepsearch",
	"search-tool":      "web_search",
}

// ToolCatalog validates a candidate's required_tools against the live
// tool catalog, substituting mapped fallbacks for unknown names and
// caching the catalog for 5 minutes.
type ToolCatalog struct {
	client toolclient.Client

	mu    sync.Mutex
	at    time.Time
	names map[string]bool
	ttl   time.Duration
}

// NewToolCatalog wraps client. ttl defaults to 5 minutes.
func NewToolCatalog(client toolclient.Client, ttl time.Duration) *ToolCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ToolCatalog{client: client, ttl: ttl}
}

func (c *ToolCatalog) live() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.at) < c.ttl && c.names != nil {
		return c.names
	}

	names := make(map[string]bool)
	if c.client != nil {
		for _, desc := range c.client.ListTools() {
			names[desc.Name] = true
		}
	}
	c.names = names
	c.at = time.Now()
	return names
}

// Validate resolves each declared tool name against the live catalog
// (falling back to the static knownTools set when no live client is
// configured), substituting a mapped fallback for unknown names and
// dropping any name with no fallback.
func (c *ToolCatalog) Validate(declared []string) []string {
	live := c.live()

	var out []string
	for _, name := range declared {
		resolved := strings.ToLower(strings.TrimSpace(name))
		if live[resolved] || (len(live) == 0 && knownTools[resolved]) {
			out = append(out, resolved)
			continue
		}
		if fallback, ok := fallbackTool[resolved]; ok {
			out = append(out, fallback)
		}
	}
	return out
}

// IsKnown reports whether name is in the realistic tool set used by the
// question-synthesis quality gate (the static set, independent of live
// catalog availability — the gate runs before a tool catalog may have
// been reachable).
func IsKnown(name string) bool {
	return knownTools[strings.ToLower(strings.TrimSpace(name))]
}
