package helper

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Truncate shortens s to at most max bytes, marking the cut with an ellipsis.
// The cut never splits a multi-byte rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// pretty print
func PrettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Msg("Error pretty printing")
	}
	fmt.Println(string(b))
}
