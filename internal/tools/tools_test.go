package tools

import (
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"path":  "src/app.py",
		"limit": float64(25), // JSON numbers decode as float64
		"full":  true,
		"wrong": 42,
	}

	if got := getStringArg(args, "path"); got != "src/app.py" {
		t.Errorf("getStringArg = %q", got)
	}
	if got := getStringArg(args, "missing"); got != "" {
		t.Errorf("getStringArg(missing) = %q", got)
	}
	if got := getIntArg(args, "limit", 10); got != 25 {
		t.Errorf("getIntArg = %d", got)
	}
	if got := getIntArg(args, "missing", 10); got != 10 {
		t.Errorf("getIntArg default = %d", got)
	}
	if !getBoolArg(args, "full") {
		t.Error("getBoolArg = false")
	}
	if getBoolArg(args, "wrong") {
		t.Error("getBoolArg accepted a non-bool")
	}
}

func TestJSONResult(t *testing.T) {
	res := jsonResult(map[string]any{"total": 3})
	if res.IsError {
		t.Fatal("unexpected error result")
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, `"total": 3`) {
		t.Errorf("result text = %q", text)
	}
}

func TestErrResult(t *testing.T) {
	res := errResult("boom")
	if !res.IsError {
		t.Fatal("expected IsError")
	}
	if res.Content[0].(*mcp.TextContent).Text != "boom" {
		t.Errorf("result text = %q", res.Content[0].(*mcp.TextContent).Text)
	}
}
