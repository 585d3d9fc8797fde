package ledger

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// minTitleRunes is the shortest candidate accepted as a display title.
const minTitleRunes = 2

// DisplayTitle picks the display title of a user or chat.
//
// Candidates are tried in order (full name first, then short name) and the
// first one with at least two non-space characters wins. When none
// qualifies the title is "@<id>".
func DisplayTitle(id int64, candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) >= minTitleRunes {
			return c
		}
	}
	return FallbackTitle(id)
}

// FallbackTitle is the title used for an id with no usable name.
func FallbackTitle(id int64) string {
	return "@" + strconv.FormatInt(id, 10)
}
