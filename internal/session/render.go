package session

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/isometry/ldap-lookup/internal/ldap"
)

// Missing is printed for lookups that found nothing.
const Missing = "(none)"

// Render turns a lookup result into display text. Structured values are
// rendered as YAML.
func Render(v any) string {
	switch v := v.(type) {
	case nil:
		return Missing
	case error:
		return "error: " + v.Error()
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case []string:
		if len(v) == 0 {
			return "[]"
		}
		return strings.Join(v, "\n")
	case ldap.DistributionList:
		if !v.Found() {
			return "{}"
		}
		return renderYAML(v)
	case *ldap.DiagnosticReport:
		if v == nil {
			return Missing
		}
		return renderYAML(v)
	default:
		return fmt.Sprint(v)
	}
}

// RenderOptional renders a (value, found) pair.
func RenderOptional(value string, ok bool) string {
	if !ok {
		return Missing
	}
	return value
}

func renderYAML(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "error: " + err.Error()
	}
	return strings.TrimRight(string(out), "\n")
}
