package services

import (
	"encoding/json"
	"strings"
)

const wordsPerMinute = 200

// CalculateReadingTime estimates minutes to read an opaque structured
// document. A string is textual when it is the value of a "text" key or a
// direct element of an array (editor schemas carry prose in both places);
// other string values are metadata such as node types and mark labels and
// contribute nothing. Objects and arrays are walked recursively. A root that
// is not an object or array counts as one minute, as does any document under
// a minute of text.
func CalculateReadingTime(content []byte) int {
	var root any
	if err := json.Unmarshal(content, &root); err != nil {
		return 1
	}

	switch root.(type) {
	case map[string]any, []any:
	default:
		return 1
	}

	words := countWords(root)
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func countWords(node any) int {
	total := 0
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			switch c := child.(type) {
			case string:
				if key == "text" {
					total += len(strings.Fields(c))
				}
			case map[string]any, []any:
				total += countWords(c)
			}
		}
	case []any:
		for _, child := range v {
			switch c := child.(type) {
			case string:
				total += len(strings.Fields(c))
			case map[string]any, []any:
				total += countWords(c)
			}
		}
	}
	return total
}
