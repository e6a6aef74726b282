package route

import (
	"fmt"
	"strings"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
)

// DefaultNamespace prefixes configuration keys when none is configured.
const DefaultNamespace = "index-wrapper"

// Recognised configuration parameters.
const (
	ParamName    = "name"
	ParamVersion = "version"
)

// Spec is a parsed configuration value.
type Spec struct {
	// Name is the engine key to select, or the legacy index name.
	Name string
	// Version constrains engine selection. Empty matches any version.
	Version string
	// Params holds every parsed pair, including name and version.
	Params map[string]string
}

// ConfigKey returns the configuration key for label.property.
func ConfigKey(namespace, label, property string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + "." + label + "." + property
}

// ParseSpec parses alternating key/value tokens separated by ':' or ','.
// A later duplicate key replaces an earlier one.
func ParseSpec(value string) (Spec, error) {
	tokens := strings.FieldsFunc(value, func(r rune) bool { return r == ':' || r == ',' })
	if len(tokens) == 0 {
		return Spec{}, malformed(value, "empty value")
	}
	if len(tokens)%2 != 0 {
		return Spec{}, malformed(value, "odd number of tokens")
	}

	params := make(map[string]string, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		k := strings.TrimSpace(tokens[i])
		if k == "" {
			return Spec{}, malformed(value, "empty key")
		}
		params[k] = strings.TrimSpace(tokens[i+1])
	}

	name := params[ParamName]
	if name == "" {
		return Spec{}, malformed(value, "missing name")
	}
	return Spec{Name: name, Version: params[ParamVersion], Params: params}, nil
}

func malformed(value, reason string) error {
	return werrors.New(werrors.ErrCodeMalformedRoute,
		fmt.Sprintf("malformed route %q: %s", value, reason), nil).
		WithSuggestion("Use alternating key:value tokens, e.g. name:my-index,version:1.0")
}
