package main

import (
	"log"

	"github.com/funvibe/funxy/internal/ide"
	"github.com/funvibe/funxy/internal/query"
)

func (s *LanguageServer) handleCompletion(id interface{}, params CompletionParams) error {
	log.Printf("Handling completion request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	empty := ResponseMessage{Jsonrpc: "2.0", ID: id, Result: CompletionList{IsIncomplete: false, Items: []CompletionItem{}}}

	docState, text, ok := s.documentSnapshot(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(empty)
	}

	offset := ide.OffsetAt(text, params.Position.Line, params.Position.Character)

	ctx, snap := s.snapshotContext()
	defer snap.Close()

	var items []ide.CompletionItem
	err := query.RunCatchingCancellation(func() {
		items = ide.Completions(ctx, s.eng, docState.File, offset)
	})
	if err != nil {
		return s.sendResponse(empty)
	}

	result := CompletionList{IsIncomplete: false, Items: make([]CompletionItem, 0, len(items))}
	for _, it := range items {
		result.Items = append(result.Items, CompletionItem{
			Label:  it.Label,
			Kind:   toLSPCompletionKind(it.Kind),
			Detail: it.Detail,
		})
	}
	return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

func toLSPCompletionKind(k ide.CompletionKind) CompletionItemKind {
	switch k {
	case ide.CompletionFunction:
		return CompletionItemFunction
	case ide.CompletionStruct:
		return CompletionItemStruct
	case ide.CompletionField:
		return CompletionItemField
	case ide.CompletionVariable:
		return CompletionItemVariable
	case ide.CompletionModule:
		return CompletionItemModule
	case ide.CompletionKeyword:
		return CompletionItemKeyword
	default:
		return CompletionItemText
	}
}
