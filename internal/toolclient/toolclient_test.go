package toolclient

import (
	"testing"

	"github.com/synthesiscore/core/internal/mcp"
)

func TestFlattenContent_Text(t *testing.T) {
	result := &mcp.ToolCallResult{
		Content: []mcp.ToolResultContent{
			{Type: "text", Text: "first"},
			{Type: "text", Text: "second"},
		},
	}
	got := flattenContent(result)
	want := "first\nsecond"
	if got != want {
		t.Errorf("flattenContent() = %q, want %q", got, want)
	}
}

func TestFlattenContent_Nil(t *testing.T) {
	if got := flattenContent(nil); got != "" {
		t.Errorf("flattenContent(nil) = %q, want empty", got)
	}
}
