package plantid

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// Matches opening and closing code-fence markers, with or without a
	// language tag. All occurrences are stripped, not just the first, so
	// output containing several fenced blocks is still handled.
	fenceRE = regexp.MustCompile("```[a-zA-Z]*")

	// Matches a trailing comma before a closing brace or bracket, which
	// models emit routinely and strict JSON rejects.
	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
)

// Normalize coerces raw model output into an AnalysisResult.
//
// The input is cleaned of code fences, embedded newlines and trailing commas,
// then strict-parsed. A clean parse returns the parsed object unmodified with
// StatusParsed; no schema validation is applied beyond "it parsed". Anything
// else returns a salvaged result carrying the original raw text with
// StatusSalvaged. Normalize is pure: same input, same output, no hidden state.
func Normalize(raw string) (AnalysisResult, Status) {
	cleaned := fenceRE.ReplaceAllString(raw, "")
	cleaned = strings.NewReplacer("\r", " ", "\n", " ").Replace(cleaned)
	cleaned = trailingCommaRE.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(cleaned)

	var res AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return SalvagedResult(raw), StatusSalvaged
	}
	return res, StatusParsed
}
