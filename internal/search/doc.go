// Package search finds, highlights and replaces occurrences of a query in
// document content.
//
// An Engine scans an immutable snapshot and produces a MatchIndex bound to
// the snapshot's revision. The index answers viewport and navigation
// queries by binary search, and the Replacer applies replacements only
// while the buffer is still at the index's revision.
package search
