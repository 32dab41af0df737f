package processor

import (
	"strings"
	"unicode/utf8"

	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
)

// Assemble joins, in order and separated by single spaces, the fragment
// texts holding at least minChars characters. The result may be empty.
func Assemble(fragments []recognizer.Fragment, minChars int) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if utf8.RuneCountInString(f.Text) >= minChars {
			kept = append(kept, f.Text)
		}
	}
	return strings.Join(kept, " ")
}
