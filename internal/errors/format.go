package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for terminal output.
// With verbose set, details and the underlying cause are listed as well.
func FormatForCLI(err error, verbose bool) string {
	if err == nil {
		return ""
	}

	ie, ok := As(err)
	if !ok {
		ie = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ie.Message)

	if ie.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", ie.Suggestion)
	}

	if verbose {
		for _, k := range sortedKeys(ie.Details) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, ie.Details[k])
		}
		if ie.Cause != nil && ie.Cause.Error() != ie.Message {
			fmt.Fprintf(&sb, "  Cause: %s\n", ie.Cause)
		}
	}

	fmt.Fprintf(&sb, "  Code: %s\n", ie.Code)
	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error for --json output.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ie, ok := As(err)
	if !ok {
		ie = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ie.Code,
		Message:    ie.Message,
		Category:   string(ie.Category),
		Severity:   string(ie.Severity),
		Details:    ie.Details,
		Suggestion: ie.Suggestion,
		Retryable:  ie.Retryable,
	}
	if ie.Cause != nil {
		je.Cause = ie.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err.
// Plain errors yield a single "error" attribute.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	ie, ok := As(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", ie.Code),
		slog.String("error", ie.Message),
		slog.String("category", string(ie.Category)),
		slog.Bool("retryable", ie.Retryable),
	}
	if ie.Cause != nil {
		attrs = append(attrs, slog.String("cause", ie.Cause.Error()))
	}
	for _, k := range sortedKeys(ie.Details) {
		attrs = append(attrs, slog.String("detail_"+k, ie.Details[k]))
	}
	return attrs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
