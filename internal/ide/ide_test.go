package ide

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/query"
	"github.com/funvibe/funxy/internal/queries"
)

// newFixture sets up a single-file crate and returns everything a test needs
// to call into the ide package: the file's own text (for offset math), the
// FileId, a fresh query.Context pinned to one snapshot, and the Engine.
func newFixture(t *testing.T, text string) (string, db.FileId, *query.Context, *queries.Engine) {
	t.Helper()
	database := db.New()
	root := database.NewSourceRoot()
	file := database.AllocFile(root, "main.rsx")
	database.SetFileText(file, text, db.Low)

	qe := query.NewEngine()
	eng := queries.New(qe, root)

	snap := database.Snapshot()
	t.Cleanup(snap.Close)
	ctx := qe.NewContext(snap)
	return text, file, ctx, eng
}

func TestDiagnosticsReportsSyntaxErrors(t *testing.T) {
	_, file, ctx, eng := newFixture(t, "fn broken( {\n")
	diags := Diagnostics(ctx, eng, file)
	require.NotEmpty(t, diags)
}

func TestDiagnosticsCleanOnWellTypedFunction(t *testing.T) {
	_, file, ctx, eng := newFixture(t, `
fn add(a: i32, b: i32) -> i32 {
    a + b
}
`)
	diags := Diagnostics(ctx, eng, file)
	require.Empty(t, diags)
}

func TestHoverReportsParamType(t *testing.T) {
	text, file, ctx, eng := newFixture(t, `
fn add(a: i32, b: i32) -> i32 {
    a + b
}
`)
	offset := OffsetAt(text, 2, 4) // lands on "a" in "a + b"
	info, ok := Hover(ctx, eng, file, offset)
	require.True(t, ok)
	require.NotEmpty(t, info.Text)
}

func TestDefinitionResolvesCallToFunction(t *testing.T) {
	text, file, ctx, eng := newFixture(t, `
fn helper(x: i32) -> i32 {
    x
}

fn main() -> i32 {
    helper(1)
}
`)
	callLine := 6
	offset := OffsetAt(text, callLine, 4) // somewhere inside "helper(1)"
	loc, ok := Definition(ctx, eng, file, offset)
	require.True(t, ok)
	require.Equal(t, file, loc.File)
}

func TestCompletionsIncludesDeclaredFunctionAndKeywords(t *testing.T) {
	_, file, ctx, eng := newFixture(t, `
fn helper(x: i32) -> i32 {
    x
}
`)
	items := Completions(ctx, eng, file, 0)
	var sawHelper, sawKeyword bool
	for _, it := range items {
		if it.Label == "helper" && it.Kind == CompletionVariable {
			sawHelper = true
		}
		if it.Label == "fn" && it.Kind == CompletionKeyword {
			sawKeyword = true
		}
	}
	require.True(t, sawHelper)
	require.True(t, sawKeyword)
}

func TestHighlightFindsParamOccurrences(t *testing.T) {
	text, file, ctx, eng := newFixture(t, `
fn add(a: i32, b: i32) -> i32 {
    a + a
}
`)
	offset := OffsetAt(text, 2, 4) // first "a" in "a + a"
	ranges := Highlight(ctx, eng, file, offset)
	require.Len(t, ranges, 3) // the param binding plus both reads
}

func TestFindReferencesAcrossCallSites(t *testing.T) {
	text, file, ctx, eng := newFixture(t, `
fn helper(x: i32) -> i32 {
    x
}

fn main() -> i32 {
    helper(1)
}
`)
	offset := OffsetAt(text, 6, 4) // the "helper" call site
	locs := FindReferences(ctx, eng, file, offset)
	require.NotEmpty(t, locs)
}

func TestRenameLocalParameter(t *testing.T) {
	text, file, ctx, eng := newFixture(t, `
fn add(a: i32, b: i32) -> i32 {
    a + b
}
`)
	offset := OffsetAt(text, 2, 4) // "a" inside the body
	edits := Rename(ctx, eng, file, offset, "lhs")
	require.Contains(t, edits, file)
	require.Len(t, edits[file], 2) // the param binding plus its one use
}

func TestJoinLinesStripsTrailingCommaBeforeCloseParen(t *testing.T) {
	text := "foo(1,\n)"
	edit, ok := JoinLines(text, 0)
	require.True(t, ok)
	require.Equal(t, "", edit.NewText)
	require.Equal(t, 5, edit.Range.Start) // the comma
}

func TestJoinLinesCollapsesSingleExprBlock(t *testing.T) {
	text := "foo({\n    92\n})"
	edit, ok := JoinLines(text, 4)
	require.True(t, ok)
	require.Equal(t, "{ 92 }", edit.NewText)
}

func TestJoinLinesDefaultInsertsSpace(t *testing.T) {
	text := "let x =\n    1;"
	edit, ok := JoinLines(text, 0)
	require.True(t, ok)
	require.Equal(t, " ", edit.NewText)
}
