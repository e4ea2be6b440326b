package ldap

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Filter is an immutable LDAP search filter expression.
type Filter interface {
	// String renders the filter in RFC 4515 form with values escaped.
	String() string
}

type equalityFilter struct {
	attribute string
	value     string
}

func (f equalityFilter) String() string {
	return "(" + f.attribute + "=" + ldap.EscapeFilter(f.value) + ")"
}

type presentFilter struct {
	attribute string
}

func (f presentFilter) String() string {
	return "(" + f.attribute + "=*)"
}

type andFilter []Filter

func (f andFilter) String() string {
	var b strings.Builder
	b.WriteString("(&")
	for _, child := range f {
		b.WriteString(child.String())
	}
	b.WriteString(")")
	return b.String()
}

// Eq matches entries whose attribute equals value. The value is escaped.
func Eq(attribute, value string) Filter {
	return equalityFilter{attribute: attribute, value: value}
}

// Present matches entries that carry the attribute at all.
func Present(attribute string) Filter {
	return presentFilter{attribute: attribute}
}

// And matches entries that satisfy every child filter. A single child is returned as is.
func And(filters ...Filter) Filter {
	if len(filters) == 1 {
		return filters[0]
	}
	children := make(andFilter, len(filters))
	copy(children, filters)
	return children
}
