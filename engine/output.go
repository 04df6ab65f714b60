package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to output that was cut at a size limit.
const TruncationMarker = "\n... [output truncated]"

// cellDelimiter separates per-cell output blocks in an ExecuteAll result.
const cellDelimiter = "\n\n"

// TruncateOutput caps s at max bytes, cutting on a rune boundary and
// appending TruncationMarker when anything was removed. A max of zero or
// less disables truncation.
func TruncateOutput(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + TruncationMarker
}

// previewOutput shortens s for status displays, appending an ellipsis when
// anything was removed.
func previewOutput(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// cellBlock formats one cell's contribution to an ExecuteAll output.
// Failed cells carry their diagnostic so the aggregate output reads as a
// complete transcript.
func cellBlock(cellID int, res Result) string {
	body := res.Output
	if !res.Success && res.Error != "" {
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		body += "Error: " + res.Error
	}
	return fmt.Sprintf("--- Cell %d ---\n%s", cellID, body)
}
