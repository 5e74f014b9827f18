package main

import (
	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/ide"
	"github.com/funvibe/funxy/internal/query"
)

func (s *LanguageServer) publishDiagnostics(uri string, file db.FileId) error {
	ctx, snap := s.snapshotContext()
	defer snap.Close()

	var diags []ide.Diagnostic
	err := query.RunCatchingCancellation(func() {
		diags = ide.Diagnostics(ctx, s.eng, file)
	})
	if err != nil {
		// A cancelled snapshot means a newer edit is already on its way to
		// publishDiagnostics; drop this stale run rather than publish it.
		return nil
	}

	text, _, _ := snap.FileText(file)
	notification := NotificationMessage{
		Jsonrpc: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: toLSPDiagnostics(diags, text),
		},
	}
	return s.sendNotification(notification)
}

func toLSPDiagnostics(diags []ide.Diagnostic, text string) []Diagnostic {
	result := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		startLine, startChar := ide.PositionAt(text, d.Range.Start)
		endLine, endChar := ide.PositionAt(text, d.Range.End)

		severity := SeverityError
		if d.Severity == ide.SeverityWarning {
			severity = SeverityWarning
		}

		result = append(result, Diagnostic{
			Range: Range{
				Start: Position{Line: startLine, Character: startChar},
				End:   Position{Line: endLine, Character: endChar},
			},
			Severity: severity,
			Message:  d.Message,
			Source:   "funxy",
		})
	}
	return result
}
