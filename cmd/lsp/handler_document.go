package main

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/funvibe/funxy/internal/db"
)

// DocumentState tracks one open document's current text and the FileId it
// was allocated under in the server's shared SourceRoot.
type DocumentState struct {
	File    db.FileId
	Content string
	Mu      sync.RWMutex
}

func (s *LanguageServer) handleDidOpen(params DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	content := params.TextDocument.Text

	file := s.fileForURI(uri)
	s.database.SetFileText(file, content, db.Medium)

	docState := &DocumentState{File: file, Content: content}
	s.mu.Lock()
	s.documents[uri] = docState
	s.mu.Unlock()

	log.Printf("Opened file: %s", uri)
	return s.publishDiagnostics(uri, file)
}

func (s *LanguageServer) handleDidChange(params DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	uri := params.TextDocument.URI
	newContent := params.ContentChanges[0].Text

	s.mu.RLock()
	docState, exists := s.documents[uri]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("document %s not found", uri)
	}

	docState.Mu.Lock()
	docState.Content = newContent
	file := docState.File
	docState.Mu.Unlock()

	s.database.SetFileText(file, newContent, db.Medium)

	log.Printf("Changed file: %s", uri)
	return s.publishDiagnostics(uri, file)
}

func (s *LanguageServer) handleDidClose(params DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()
	log.Printf("Closed file: %s", params.TextDocument.URI)
	return nil
}

// fileForURI returns the FileId backing uri, allocating one in the shared
// SourceRoot on first use. Every open document lives in the same root so
// find-references and rename can see across files.
func (s *LanguageServer) fileForURI(uri string) db.FileId {
	relPath := s.uriToPath(uri)

	s.mu.Lock()
	defer s.mu.Unlock()
	if docState, ok := s.documents[uri]; ok {
		return docState.File
	}
	return s.database.AllocFile(s.root, relPath)
}

func (s *LanguageServer) uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}
