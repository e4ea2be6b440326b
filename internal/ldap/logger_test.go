package ldap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func logEntriesWith(entries []map[string]any, message string) []map[string]any {
	var out []map[string]any
	for _, entry := range entries {
		if entry["@message"] == message {
			out = append(out, entry)
		}
	}
	return out
}

func TestTraceSearch(t *testing.T) {
	var output bytes.Buffer
	ctx := initializeLogging(tflogtest.RootLogger(context.Background(), &output))

	traceSearch(ctx, SearchRequest{
		BaseDN:     "dc=example,dc=com",
		Scope:      ScopeWholeSubtree,
		Filter:     Eq("uid", "jdoe"),
		Attributes: []string{"mail"},
	}, SearchResult{
		Entries: []Entry{NewEntry("uid=jdoe,dc=example,dc=com", map[string][]string{"mail": {"jdoe@example.com"}})},
		Result:  OperationResult{Code: 0, Message: "Success"},
	})

	entries, err := tflogtest.MultilineJSONDecode(&output)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	trace := entries[0]
	assert.Equal(t, "LDAP search trace", trace["@message"])
	assert.Equal(t, "info", trace["@level"])
	assert.Equal(t, "dc=example,dc=com", trace["base_dn"])
	assert.Equal(t, "sub", trace["scope"])
	assert.Equal(t, "(uid=jdoe)", trace["filter"])
	assert.Equal(t, []any{"mail"}, trace["attributes"])
	assert.Equal(t, float64(1), trace["result_count"])
	assert.Equal(t, []any{[]any{"mail"}}, trace["result_attributes"])
	assert.Equal(t, float64(0), trace["result_code"])
	assert.NotEmpty(t, trace["operation_id"])
}

func TestSearch_TraceOnlyWithDebug(t *testing.T) {
	for _, debug := range []string{"false", "true"} {
		t.Run("debug="+debug, func(t *testing.T) {
			var output bytes.Buffer
			ctx := tflogtest.RootLogger(context.Background(), &output)

			conn := newMockConn()
			conn.On("Search", mock.Anything).Return(searchResult(), nil)

			_, _, err := newTestDirectory(t, conn, map[string]string{"debug": debug}).GetEmail(ctx, "jdoe")
			require.NoError(t, err)

			entries, err := tflogtest.MultilineJSONDecode(&output)
			require.NoError(t, err)

			traces := logEntriesWith(entries, "LDAP search trace")
			if debug == "true" {
				require.Len(t, traces, 1)
				assert.Equal(t, "(uid=jdoe)", traces[0]["filter"])
				assert.Equal(t, float64(0), traces[0]["result_count"])
			} else {
				assert.Empty(t, traces)
			}
		})
	}
}

func TestLogOperation(t *testing.T) {
	var output bytes.Buffer
	ctx := initializeLogging(tflogtest.RootLogger(context.Background(), &output))

	err := LogOperation(ctx, "get_email", map[string]any{"uid": "jdoe", "password": "secret"}, func() error {
		return NewDirectoryError("get_email", OperationResult{Code: ldap.LDAPResultInsufficientAccessRights})
	})
	require.Error(t, err)

	entries, err := tflogtest.MultilineJSONDecode(&output)
	require.NoError(t, err)

	failed := logEntriesWith(entries, "Operation failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "get_email", failed[0]["operation"])
	assert.Equal(t, "DirectoryError", failed[0]["error_kind"])
	assert.Equal(t, "***", failed[0]["password"])
	assert.Contains(t, failed[0], "duration_ms")
}

func TestLogLDAPError(t *testing.T) {
	var output bytes.Buffer
	ctx := initializeLogging(tflogtest.RootLogger(context.Background(), &output))

	LogLDAPError(ctx, "bind", &ldap.Error{
		ResultCode: ldap.LDAPResultInvalidCredentials,
		MatchedDN:  "dc=example,dc=com",
		Err:        errors.New("invalid credentials"),
	}, nil)

	entries, err := tflogtest.MultilineJSONDecode(&output)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(49), entries[0]["ldap_result_code"])
	assert.Equal(t, "dc=example,dc=com", entries[0]["ldap_matched_dn"])
	assert.Equal(t, "invalid credentials", entries[0]["ldap_diagnostic_message"])
}
