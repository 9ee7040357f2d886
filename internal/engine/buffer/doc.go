// Package buffer provides the content store for a single document: a
// UTF-8 text buffer with a lazily maintained line-offset index.
//
// The buffer keeps its text in an immutable Go string. Every mutation
// builds a new backing string in a single linear pass and swaps it in, so
// the previous string is never written to. This gives the package three
// properties the rest of the core relies on:
//
//   - Slice returns a substring of the backing string without copying.
//   - Snapshot is O(1): it captures the current string and revision, and
//     stays valid while the buffer keeps changing.
//   - Every mutation produces a new RevisionID, so anything derived from
//     an older revision (line offsets, search results) can detect that it
//     is stale.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("hello\nworld")
//
//	r, _ := buf.LineRange(1)   // [6:11)
//	text, _ := buf.Slice(r.Start, r.End)
//
//	buf.ReplaceRange(0, 5, "howdy")
//	buf.IsDirty()             // true
//
//	snap := buf.Snapshot()    // safe to read from another goroutine
//
// Line Offsets:
//
// Line offsets are rebuilt on the first line-indexed access after a
// mutation rather than on every edit. The index always satisfies
// offsets[0] == 0, is strictly increasing, and the last line ends at
// Len(). Line endings are not normalized: a "\r" before "\n" belongs to
// the line's text.
//
// Thread Safety:
//
// All Buffer methods are safe for concurrent use. Snapshots are immutable.
package buffer
