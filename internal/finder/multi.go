package finder

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/inkwell/internal/engine/buffer"
	"github.com/dshills/inkwell/internal/search"
)

// LocatedMatch is a match with its line context.
type LocatedMatch struct {
	search.Match
	// Line is 1-based.
	Line int
	// Column is the 0-based byte offset of the match within its line.
	Column int64
	// LineText is the text of the line the match starts on, without its
	// newline.
	LineText string
}

// LocateMatches adds line context to every match of ix in snap.
// ix must have been built against snap.
func LocateMatches(snap *buffer.Snapshot, ix *search.MatchIndex) []LocatedMatch {
	out := make([]LocatedMatch, 0, ix.Len())
	for _, m := range ix.Matches() {
		line, err := snap.LineOf(m.Start)
		if err != nil {
			continue
		}
		r, _ := snap.LineRange(line)
		text, _ := snap.Slice(r.Start, r.End)
		out = append(out, LocatedMatch{
			Match:    m,
			Line:     line + 1,
			Column:   m.Start - r.Start,
			LineText: text,
		})
	}
	return out
}

// Searchable is a document that can take part in a multi-document find.
// *document.Document implements it.
type Searchable interface {
	ID() string
	DisplayName() string
	Path() string
	Snapshot() *buffer.Snapshot
}

// DocumentMatches lists the matches of one document.
type DocumentMatches struct {
	DocumentID string
	Name       string
	Path       string
	Revision   buffer.RevisionID
	Matches    []LocatedMatch
}

// FindInDocuments searches every document in parallel and returns the
// documents with at least one match, in input order.
func FindInDocuments(ctx context.Context, engine *search.Engine, docs []Searchable, q search.Query) ([]DocumentMatches, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	results := make([]DocumentMatches, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, doc := range docs {
		g.Go(func() error {
			snap := doc.Snapshot()
			ix, err := engine.Search(ctx, snap, q)
			if err != nil {
				return err
			}
			results[i] = DocumentMatches{
				DocumentID: doc.ID(),
				Name:       doc.DisplayName(),
				Path:       doc.Path(),
				Revision:   snap.RevisionID(),
				Matches:    LocateMatches(snap, ix),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if len(r.Matches) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// Replaceable is a document that can take part in a multi-document replace.
type Replaceable interface {
	search.Editable
	ID() string
}

// DocumentReplace reports the replacements made in one document.
type DocumentReplace struct {
	DocumentID string
	Count      int
}

// ReplaceInDocuments replaces every match of q in each document in turn.
// Documents are independent: a failure stops the loop but does not undo
// replacements already made in earlier documents.
func ReplaceInDocuments(ctx context.Context, engine *search.Engine, replacer *search.Replacer, docs []Replaceable, q search.Query, replacement string) ([]DocumentReplace, error) {
	var out []DocumentReplace
	for _, doc := range docs {
		ix, err := engine.Search(ctx, doc.Snapshot(), q)
		if err != nil {
			return out, err
		}
		if ix.Len() == 0 {
			continue
		}
		res, err := replacer.ReplaceAll(doc, ix, replacement)
		if err != nil {
			return out, err
		}
		out = append(out, DocumentReplace{DocumentID: doc.ID(), Count: res.Count})
	}
	return out, nil
}
