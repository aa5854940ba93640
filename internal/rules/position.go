package rules

import (
	"sort"
	"unicode/utf8"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
)

// lineIndex maps byte offsets in a document to zero-based line/character
// positions. Characters are counted in runes.
type lineIndex struct {
	content string
	starts  []int
}

func newLineIndex(content string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{content: content, starts: starts}
}

func (li *lineIndex) position(offset int) compliance.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.content) {
		offset = len(li.content)
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return compliance.Position{
		Line:      line,
		Character: utf8.RuneCountInString(li.content[li.starts[line]:offset]),
	}
}

func (li *lineIndex) location(start, end int) *compliance.Location {
	return &compliance.Location{
		Start: li.position(start),
		End:   li.position(end),
	}
}

// headLocation spans the first line of the document; used for findings
// about something the document lacks
func (li *lineIndex) headLocation() *compliance.Location {
	end := len(li.content)
	if len(li.starts) > 1 {
		end = li.starts[1] - 1
	}
	return li.location(0, end)
}
