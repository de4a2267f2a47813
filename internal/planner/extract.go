package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a completion holds no {...} object.
var ErrNoJSON = errors.New("no JSON object found in response")

// Repair names one rewrite applied to a model completion.
type Repair string

const (
	RepairStripFences     Repair = "strip-code-fences"
	RepairTrimToBraces    Repair = "trim-to-outer-braces"
	RepairTrailingCommas  Repair = "drop-trailing-commas"
	RepairCollapseSpacing Repair = "collapse-whitespace"
)

var (
	jsonFence     = regexp.MustCompile("```json\\s*")
	plainFence    = regexp.MustCompile("```\\s*")
	objectComma   = regexp.MustCompile(`,\s*}`)
	arrayComma    = regexp.MustCompile(`,\s*]`)
	anyWhitespace = regexp.MustCompile(`\s+`)
)

// Extraction is the outcome of ExtractJSON: the candidate object text and
// the repairs that produced it.
type Extraction struct {
	JSON    string
	Repairs []Repair
}

// ExtractJSON isolates one JSON object from free-form model output.
// Rules run in order: strip markdown fences, keep the first '{' through the
// last '}', drop trailing commas before '}' or ']', turn newlines into
// spaces and collapse whitespace runs.
func ExtractJSON(raw string) (Extraction, error) {
	var ex Extraction
	s := strings.TrimSpace(raw)

	unfenced := plainFence.ReplaceAllString(jsonFence.ReplaceAllString(s, ""), "")
	if unfenced != s {
		ex.Repairs = append(ex.Repairs, RepairStripFences)
	}
	s = unfenced

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ex, ErrNoJSON
	}
	if start != 0 || end != len(s)-1 {
		ex.Repairs = append(ex.Repairs, RepairTrimToBraces)
	}
	s = s[start : end+1]

	decommaed := arrayComma.ReplaceAllString(objectComma.ReplaceAllString(s, "}"), "]")
	if decommaed != s {
		ex.Repairs = append(ex.Repairs, RepairTrailingCommas)
	}
	s = decommaed

	collapsed := anyWhitespace.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), " ")
	if collapsed != s {
		ex.Repairs = append(ex.Repairs, RepairCollapseSpacing)
	}
	ex.JSON = collapsed

	return ex, nil
}

// decodeCompletion runs ExtractJSON and unmarshals the result into out.
func decodeCompletion(raw string, out any) (Extraction, error) {
	ex, err := ExtractJSON(raw)
	if err != nil {
		return ex, err
	}
	if err := json.Unmarshal([]byte(ex.JSON), out); err != nil {
		return ex, fmt.Errorf("failed to parse repaired JSON: %w", err)
	}
	return ex, nil
}
