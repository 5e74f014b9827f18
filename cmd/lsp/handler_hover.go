package main

import (
	"log"

	"github.com/funvibe/funxy/internal/ide"
	"github.com/funvibe/funxy/internal/query"
)

func (s *LanguageServer) handleHover(id interface{}, params HoverParams) error {
	log.Printf("Handling hover request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	docState, text, ok := s.documentSnapshot(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})
	}

	offset := ide.OffsetAt(text, params.Position.Line, params.Position.Character)

	ctx, snap := s.snapshotContext()
	defer snap.Close()

	var info ide.HoverInfo
	var found bool
	err := query.RunCatchingCancellation(func() {
		info, found = ide.Hover(ctx, s.eng, docState.File, offset)
	})
	if err != nil || !found {
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})
	}

	startLine, startChar := ide.PositionAt(text, info.Range.Start)
	endLine, endChar := ide.PositionAt(text, info.Range.End)

	result := Hover{
		Contents: MarkupContent{Kind: "plaintext", Value: info.Text},
		Range: &Range{
			Start: Position{Line: startLine, Character: startChar},
			End:   Position{Line: endLine, Character: endChar},
		},
	}
	return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

// documentSnapshot fetches a stable (File, Content) pair for uri under the
// document's own mutex, the shape every read-only request handler needs
// before it can compute a byte offset.
func (s *LanguageServer) documentSnapshot(uri string) (*DocumentState, string, bool) {
	s.mu.RLock()
	docState, exists := s.documents[uri]
	s.mu.RUnlock()
	if !exists {
		return nil, "", false
	}
	docState.Mu.RLock()
	text := docState.Content
	docState.Mu.RUnlock()
	return docState, text, true
}
