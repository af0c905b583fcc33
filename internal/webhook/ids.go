package webhook

import "strings"

// The platform supplies compound ids of the form {parent}_{child}: a comment
// id is {post}_{comment}, a post id is {page}_{post}. Storage keys use the
// trailing segment only; API calls that target the object keep the full
// compound id.

const idSeparator = "_"

// TrailingID extracts the storage key from a compound id: the segment after
// the last separator. An id without a separator is returned unchanged, as is
// an empty id. With multiple separators the last segment wins.
func TrailingID(id string) string {
	if idx := strings.LastIndex(id, idSeparator); idx >= 0 {
		return id[idx+1:]
	}

	return id
}

// LeadingID extracts the parent from a compound id: the segment before the
// first separator. Used to derive the page id from a compound post id.
func LeadingID(id string) string {
	if idx := strings.Index(id, idSeparator); idx >= 0 {
		return id[:idx]
	}

	return id
}
