package ldap

import (
	"encoding/hex"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// EscapeDNValue escapes an attribute value for use inside a DN (RFC 4514).
//
//	"Doe, John" -> "Doe\, John"
//	" jdoe "    -> "\ jdoe\ "
//	"#42"       -> "\#42"
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	last := len(value) - 1
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == 0:
			b.WriteString(`\00`)
			continue
		case strings.IndexByte(`,+"\<>;`, c) >= 0:
			b.WriteByte('\\')
		case c == '#' && i == 0:
			b.WriteByte('\\')
		case c == ' ' && (i == 0 || i == last):
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// UnescapeDNValue reverses EscapeDNValue, including \XX hex pairs.
// A dangling backslash is kept as is.
func UnescapeDNValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' || i == len(value)-1 {
			b.WriteByte(c)
			continue
		}
		if i+2 < len(value) {
			if decoded, err := hex.DecodeString(value[i+1 : i+3]); err == nil {
				b.Write(decoded)
				i += 2
				continue
			}
		}
		b.WriteByte(value[i+1])
		i++
	}

	return b.String()
}

// firstRDNValue returns the value of the first RDN of dn:
// "cn=staff,ou=Groups,dc=example,dc=com" yields "staff".
func firstRDNValue(dn string) string {
	if parsed, err := ldap.ParseDN(dn); err == nil {
		if len(parsed.RDNs) > 0 && len(parsed.RDNs[0].Attributes) > 0 {
			return parsed.RDNs[0].Attributes[0].Value
		}
		return ""
	}

	// Not a well-formed DN; take the text between the first '=' and the first unescaped ','.
	rdn := dn
	for i := 0; i < len(dn); i++ {
		if dn[i] == '\\' {
			i++
			continue
		}
		if dn[i] == ',' {
			rdn = dn[:i]
			break
		}
	}
	if _, value, ok := strings.Cut(rdn, "="); ok {
		return UnescapeDNValue(strings.TrimSpace(value))
	}
	return UnescapeDNValue(strings.TrimSpace(rdn))
}
