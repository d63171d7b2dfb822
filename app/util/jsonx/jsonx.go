package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedReply marks model output that could not be parsed as JSON
// even after cleanup.
var ErrMalformedReply = errors.New("malformed model reply")

var (
	fenceRe  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	objectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// Clean strips markdown code fences and surrounding prose from a model
// reply. If a fenced block is present, its inner content wins; otherwise
// the trimmed input is returned as-is.
func Clean(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}

	return strings.TrimSpace(s)
}

// Parse cleans a model reply and unmarshals it into v. If the cleaned text
// still fails to parse, the first {...} block is extracted and retried.
// It never leaves v partially filled on error.
func Parse(s string, v any) error {
	cleaned := Clean(s)

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	candidate := objectRe.FindString(cleaned)
	if candidate == "" {
		return fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	return nil
}
