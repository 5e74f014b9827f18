package main

import (
	"log"

	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/ide"
	"github.com/funvibe/funxy/internal/query"
)

func (s *LanguageServer) handleDefinition(id interface{}, params DefinitionParams) error {
	log.Printf("Handling definition request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	docState, text, ok := s.documentSnapshot(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})
	}

	offset := ide.OffsetAt(text, params.Position.Line, params.Position.Character)

	ctx, snap := s.snapshotContext()
	defer snap.Close()

	var loc ide.Location
	var found bool
	err := query.RunCatchingCancellation(func() {
		loc, found = ide.Definition(ctx, s.eng, docState.File, offset)
	})
	if err != nil || !found {
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})
	}

	targetText, _, _ := snap.FileText(loc.File)
	result := s.toLSPLocation(loc, targetText)
	return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *LanguageServer) toLSPLocation(loc ide.Location, text string) Location {
	startLine, startChar := ide.PositionAt(text, loc.Range.Start)
	endLine, endChar := ide.PositionAt(text, loc.Range.End)
	return Location{
		URI: s.uriForFile(loc.File),
		Range: Range{
			Start: Position{Line: startLine, Character: startChar},
			End:   Position{Line: endLine, Character: endChar},
		},
	}
}

// uriForFile is fileForURI's inverse: the path a FileId was allocated
// under, reconstructed as a file:// URI.
func (s *LanguageServer) uriForFile(file db.FileId) string {
	path, ok := s.root.PathOf(file)
	if !ok {
		return ""
	}
	return "file://" + path
}
