package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestHover_DidOpen_Integration exercises the full JSON-RPC transport: an
// actual didOpen notification followed by an actual hover request parsed
// and dispatched through handleMessage, rather than calling handleHover
// directly. This is the shape a real client/server exchange takes.
func TestHover_DidOpen_Integration(t *testing.T) {
	var buf bytes.Buffer
	server := NewLanguageServer(&buf)

	content := "fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n"
	uri := "file:///hover_integration.rsx"

	openParams := DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        uri,
			LanguageID: "funxy",
			Version:    1,
			Text:       content,
		},
	}
	if err := server.handleDidOpen(openParams); err != nil {
		t.Fatalf("handleDidOpen failed: %v", err)
	}

	// "a" in "a + b" sits on line 1, character 4.
	hoverParams := HoverParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Position:     Position{Line: 1, Character: 4},
	}

	reqBody, err := json.Marshal(struct {
		Jsonrpc string      `json:"jsonrpc"`
		ID      int         `json:"id"`
		Method  string      `json:"method"`
		Params  HoverParams `json:"params"`
	}{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "textDocument/hover",
		Params:  hoverParams,
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	buf.Reset()
	if err := server.handleMessage(reqBody); err != nil {
		t.Fatalf("handleMessage failed: %v", err)
	}

	parts := bytes.SplitN(buf.Bytes(), []byte("\r\n\r\n"), 2)
	if len(parts) < 2 {
		t.Fatalf("invalid response format: %s", buf.String())
	}

	var resp ResponseMessage
	if err := json.Unmarshal(parts[1], &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("LSP error: %v", resp.Error)
	}

	var hoverResult Hover
	resBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resBytes, &hoverResult); err != nil {
		t.Fatalf("failed to unmarshal hover result: %v", err)
	}

	if !strings.Contains(hoverResult.Contents.Value, "i32") {
		t.Errorf("hover content for 'a' expected to contain 'i32', got: %q", hoverResult.Contents.Value)
	}
}
