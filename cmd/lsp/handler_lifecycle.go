package main

import (
	"log"
)

func (s *LanguageServer) handleInitialize(id interface{}, params InitializeParams) error {
	log.Printf("Handling initialize request with ID: %v", id)

	if params.RootURI != nil && *params.RootURI != "" {
		s.rootPath = s.uriToPath(*params.RootURI)
	} else if params.RootPath != nil && *params.RootPath != "" {
		s.rootPath = *params.RootPath
	}

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:   1, // Full sync
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &CompletionOptions{
				ResolveProvider:   false,
				TriggerCharacters: []string{".", ":"},
			},
			DocumentFormattingProvider: false, // join_lines is exposed as a library call, not a formatting provider
		},
	}

	response := ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Result:  result,
	}

	log.Printf("Sending initialize response")
	return s.sendResponse(response)
}

func (s *LanguageServer) handleShutdown(id interface{}) error {
	response := ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Result:  nil,
	}

	return s.sendResponse(response)
}
