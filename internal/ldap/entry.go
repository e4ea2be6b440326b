package ldap

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Entry is a read-only projection of one directory record.
// Attribute names are matched case-insensitively.
type Entry struct {
	DN    string
	names []string            // attribute names as returned, in order
	attrs map[string][]string // keyed by lower-cased name
}

// NewEntry builds an Entry from attribute name to values.
func NewEntry(dn string, attributes map[string][]string) Entry {
	e := Entry{DN: dn, attrs: make(map[string][]string, len(attributes))}
	for name, values := range attributes {
		e.add(name, values)
	}
	return e
}

func entryFromLDAP(src *ldap.Entry) Entry {
	e := Entry{DN: src.DN, attrs: make(map[string][]string, len(src.Attributes))}
	for _, attr := range src.Attributes {
		e.add(attr.Name, attr.Values)
	}
	return e
}

func (e *Entry) add(name string, values []string) {
	key := strings.ToLower(name)
	if _, seen := e.attrs[key]; !seen {
		e.names = append(e.names, name)
	}
	e.attrs[key] = append(e.attrs[key], values...)
}

// Values returns every value of the attribute, or nil when it is absent.
func (e Entry) Values(attribute string) []string {
	return e.attrs[strings.ToLower(attribute)]
}

// First returns the first value of the attribute.
func (e Entry) First(attribute string) (string, bool) {
	values := e.Values(attribute)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Has reports whether the attribute is present.
func (e Entry) Has(attribute string) bool {
	_, ok := e.attrs[strings.ToLower(attribute)]
	return ok
}

// AttributeNames returns the attribute names as the directory spelled them.
func (e Entry) AttributeNames() []string {
	names := make([]string, len(e.names))
	copy(names, e.names)
	return names
}
