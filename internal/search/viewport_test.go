package search

import (
	"reflect"
	"testing"

	"github.com/dshills/inkwell/internal/engine/buffer"
)

func indexOf(matches ...Match) *MatchIndex {
	return newMatchIndex(NewQuery("q", true, false), buffer.NewRevisionID(), matches)
}

func TestVisibleMatches(t *testing.T) {
	ix := indexOf(Match{0, 4}, Match{10, 14}, Match{20, 30}, Match{40, 41})

	tests := []struct {
		name       string
		start, end int64
		want       []Match
	}{
		{"full range", 0, 41, ix.Matches()},
		{"middle", 9, 21, []Match{{10, 14}, {20, 30}}},
		{"straddling start", 25, 35, []Match{{20, 30}}},
		{"match ending at view start excluded", 14, 19, nil},
		{"view end exclusive", 5, 10, nil},
		{"gap", 31, 39, nil},
		{"empty view", 10, 10, nil},
		{"past end", 100, 200, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleMatches(ix, tt.start, tt.end)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VisibleMatches(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestVisibleMatchesFullContent(t *testing.T) {
	content := "the cat sat on the mat"
	ix := search(t, content, NewQuery("at", false, false))

	got := VisibleMatches(ix, 0, int64(len(content)))
	if !reflect.DeepEqual(got, ix.Matches()) {
		t.Errorf("expected full index %v, got %v", ix.Matches(), got)
	}
}

func TestVisibleMatchesEmptyIndex(t *testing.T) {
	if got := VisibleMatches(nil, 0, 100); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := VisibleMatches(indexOf(), 0, 100); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestNearestMatch(t *testing.T) {
	ix := indexOf(Match{5, 7}, Match{9, 11}, Match{20, 22})

	tests := []struct {
		name   string
		cursor int64
		dir    Direction
		want   int
	}{
		{"forward before first", 0, Forward, 0},
		{"forward at match start", 9, Forward, 1},
		{"forward inside match", 6, Forward, 1},
		{"forward wraps", 21, Forward, 0},
		{"forward after last wraps", 100, Forward, 0},
		{"backward strictly before", 9, Backward, 0},
		{"backward after last", 100, Backward, 2},
		{"backward wraps", 5, Backward, 2},
		{"backward from start wraps", 0, Backward, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NearestMatch(ix, tt.cursor, tt.dir)
			if !ok {
				t.Fatal("expected a match")
			}
			if got != tt.want {
				t.Errorf("NearestMatch(%d, %s) = %d, want %d", tt.cursor, tt.dir, got, tt.want)
			}
		})
	}
}

func TestNearestMatchEmpty(t *testing.T) {
	if _, ok := NearestMatch(indexOf(), 0, Forward); ok {
		t.Error("expected no match for an empty index")
	}
	if _, ok := NearestMatch(nil, 0, Backward); ok {
		t.Error("expected no match for a nil index")
	}
}

func TestNewMatchIndexPanicsOnOverlap(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for overlapping matches")
		}
	}()
	indexOf(Match{0, 5}, Match{3, 8})
}

func TestNewMatchIndexPanicsOnEmptyMatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an empty match")
		}
	}()
	indexOf(Match{2, 2})
}
