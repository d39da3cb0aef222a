package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	errx "github.com/agdev/finagent/internal/core/error"
	logx "github.com/agdev/finagent/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024
	maxErrSnippet = 200
)

// ParseStructured decodes a model reply into T. Replies may be wrapped in markdown code
// fences or prose and may carry JSON defects; the first {...} object is extracted and, if
// it does not decode, repaired once with jsonrepair.
func ParseStructured[T any](content string) (T, error) {
	var out T

	if len(content) > maxContentLen {
		return out, schemaError(fmt.Errorf("content too large: %d bytes", len(content)))
	}
	if !utf8.ValidString(content) {
		return out, schemaError(fmt.Errorf("content invalid utf8"))
	}

	candidate := extractObject(stripFences(content))
	if candidate == "" {
		return out, schemaError(fmt.Errorf("no JSON object in %q", snippet(content)))
	}

	err := json.Unmarshal([]byte(candidate), &out)
	if err == nil {
		return out, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return out, schemaError(fmt.Errorf("unmarshal: %v, repair: %v, content %q", err, repairErr, snippet(candidate)))
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return out, schemaError(fmt.Errorf("unmarshal repaired JSON: %v, content %q", err, snippet(repaired)))
	}
	logx.Debug().Str("original", snippet(candidate)).Msg("repaired model JSON output")
	return out, nil
}

func schemaError(err error) error {
	return errx.New(fmt.Errorf("%w: %v", errx.ErrSchemaViolation, err), http.StatusUnprocessableEntity, "invalid model output")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// extractObject returns the text between the first '{' and the last '}'. An unterminated
// object is returned from its opening brace so jsonrepair can close it.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

func snippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet] + "..."
}
