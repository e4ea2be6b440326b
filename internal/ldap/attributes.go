package ldap

import (
	"context"
	"strings"
)

const envelopeDelimiter = "}:{"

// fetchSimple returns the first value of attribute on the first entry for uid that has it.
func (d *Directory) fetchSimple(ctx context.Context, conn *Connection, operation, uid, attribute string) (string, bool, error) {
	entries, err := d.searchUser(ctx, conn, operation, uid, attribute)
	if err != nil {
		return "", false, err
	}
	for _, entry := range entries {
		if value, ok := entry.First(attribute); ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

// fetchNested decodes one field of an envelope attribute such as
// "{addr1=Building A}:{addr2=Suite 5}". A dotted attribute name like
// "umichPostalAddressData.addr1" also matches the unqualified attribute.
func (d *Directory) fetchNested(ctx context.Context, conn *Connection, operation, uid, attribute, field string) (string, bool, error) {
	names := []string{attribute}
	if unqualified, _, _ := strings.Cut(attribute, "."); unqualified != attribute && unqualified != "" {
		names = append(names, unqualified)
	}

	entries, err := d.searchUser(ctx, conn, operation, uid, names...)
	if err != nil {
		return "", false, err
	}

	for _, entry := range entries {
		for _, name := range names {
			if raw, ok := entry.First(name); ok {
				value, found := decodeEnvelopeField(raw, field)
				return value, found, nil
			}
		}
	}
	return "", false, nil
}

// decodeEnvelopeField extracts field from a "{k=v}:{k=v}" string. The first
// segment containing "field=" wins and its value is everything after the first
// '='. Values containing '=' are therefore not decoded correctly. A string
// without the delimiter yields nothing.
func decodeEnvelopeField(raw, field string) (string, bool) {
	if !strings.Contains(raw, envelopeDelimiter) {
		return "", false
	}

	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")

	for _, segment := range strings.Split(raw, envelopeDelimiter) {
		if !strings.Contains(segment, field+"=") {
			continue
		}
		_, value, _ := strings.Cut(segment, "=")
		return value, true
	}
	return "", false
}
