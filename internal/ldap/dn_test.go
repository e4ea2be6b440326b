package ldap

import (
	"testing"
)

func TestEscapeDNValue(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"simple value", "jdoe", "jdoe"},
		{"space in middle", "John Doe", "John Doe"},
		{"comma", "Doe, John", `Doe\, John`},
		{"plus sign", "a+b", `a\+b`},
		{"double quote", `John "JD" Doe`, `John \"JD\" Doe`},
		{"backslash", `a\b`, `a\\b`},
		{"angle brackets", "a<>b", `a\<\>b`},
		{"semicolon", "a;b", `a\;b`},
		{"leading hash", "#42", `\#42`},
		{"inner hash", "a#42", "a#42"},
		{"leading and trailing space", " jdoe ", `\ jdoe\ `},
		{"null byte", "a\x00b", `a\00b`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EscapeDNValue(tc.input); got != tc.expected {
				t.Errorf("EscapeDNValue(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestUnescapeDNValue(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"jdoe", "jdoe"},
		{`Doe\, John`, "Doe, John"},
		{`\ jdoe\ `, " jdoe "},
		{`\#42`, "#42"},
		{`a\\b`, `a\b`},
		{`a\00b`, "a\x00b"},
		{`caf\c3\a9`, "café"},
		{`dangling\`, `dangling\`},
	}

	for _, tc := range testCases {
		if got := UnescapeDNValue(tc.input); got != tc.expected {
			t.Errorf("UnescapeDNValue(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestEscapeDNValue_RoundTrip(t *testing.T) {
	for _, value := range []string{"Doe, John", " padded ", "#hash", `back\slash`, "plain", `"quoted"`} {
		if got := UnescapeDNValue(EscapeDNValue(value)); got != value {
			t.Errorf("round trip of %q = %q", value, got)
		}
	}
}

func TestFirstRDNValue(t *testing.T) {
	testCases := []struct {
		dn       string
		expected string
	}{
		{"uid=jdoe,ou=People,dc=example,dc=com", "jdoe"},
		{"cn=staff,ou=Groups,dc=example,dc=com", "staff"},
		{"CN=Doe\\, John,OU=Users,DC=example,DC=com", "Doe, John"},
		{"uid=jdoe", "jdoe"},
		{"", ""},
		{"uid=a=b,dc=example", "a=b"},
		{"not a dn", "not a dn"},
	}

	for _, tc := range testCases {
		if got := firstRDNValue(tc.dn); got != tc.expected {
			t.Errorf("firstRDNValue(%q) = %q, want %q", tc.dn, got, tc.expected)
		}
	}
}
