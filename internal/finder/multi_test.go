package finder

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/inkwell/internal/search"
)

func TestLocateMatches(t *testing.T) {
	doc := newDoc(t, "alpha\nbeta alpha\n\ngamma")
	snap := doc.Snapshot()
	ix, err := search.NewEngine().Search(context.Background(), snap, search.NewQuery("alpha", true, false))
	if err != nil {
		t.Fatal(err)
	}

	got := LocateMatches(snap, ix)
	if len(got) != 2 {
		t.Fatalf("expected 2 located matches, got %d", len(got))
	}
	if got[0].Line != 1 || got[0].Column != 0 || got[0].LineText != "alpha" {
		t.Errorf("unexpected first match %+v", got[0])
	}
	if got[1].Line != 2 || got[1].Column != 5 || got[1].LineText != "beta alpha" {
		t.Errorf("unexpected second match %+v", got[1])
	}
}

func TestFindInDocuments(t *testing.T) {
	a := newDoc(t, "needle in a haystack")
	b := newDoc(t, "nothing here")
	c := newDoc(t, "needle\nneedle")

	res, err := FindInDocuments(context.Background(), search.NewEngine(),
		[]Searchable{a, b, c}, search.NewQuery("needle", true, false))
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 documents with matches, got %d", len(res))
	}
	if res[0].DocumentID != a.ID() || len(res[0].Matches) != 1 {
		t.Errorf("unexpected first result %+v", res[0])
	}
	if res[1].DocumentID != c.ID() || len(res[1].Matches) != 2 || res[1].Matches[1].Line != 2 {
		t.Errorf("unexpected second result %+v", res[1])
	}
	if res[1].Revision != c.RevisionID() {
		t.Error("result should carry the searched revision")
	}
}

func TestFindInDocuments_InvalidQuery(t *testing.T) {
	_, err := FindInDocuments(context.Background(), search.NewEngine(),
		[]Searchable{newDoc(t, "x")}, search.NewQuery("[", true, true))
	if !errors.Is(err, search.ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestFindInDocuments_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindInDocuments(ctx, search.NewEngine(),
		[]Searchable{newDoc(t, "abc")}, search.NewQuery("b", true, false))
	if !errors.Is(err, search.ErrSearchCanceled) {
		t.Errorf("expected ErrSearchCanceled, got %v", err)
	}
}

func TestReplaceInDocuments(t *testing.T) {
	a := newDoc(t, "foo bar foo")
	b := newDoc(t, "bar")
	c := newDoc(t, "foofoo")

	res, err := ReplaceInDocuments(context.Background(), search.NewEngine(), search.NewReplacer(0),
		[]Replaceable{a, b, c}, search.NewQuery("FOO", false, false), "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].Count != 2 || res[1].Count != 2 {
		t.Errorf("unexpected results %+v", res)
	}
	if a.Text() != "x bar x" || b.Text() != "bar" || c.Text() != "xx" {
		t.Errorf("unexpected texts %q %q %q", a.Text(), b.Text(), c.Text())
	}
	if b.IsDirty() {
		t.Error("document without matches must stay clean")
	}
}
