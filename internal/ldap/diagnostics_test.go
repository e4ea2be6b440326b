package ldap

import (
	"context"
	"crypto/tls"
	"errors"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTestConnection_Success(t *testing.T) {
	conn := newMockConn()
	conn.On("Search", mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Filter == "(uid=svc)" && req.SizeLimit == 1 && req.BaseDN == "dc=example,dc=com"
	})).Return(searchResult(
		ldap.NewEntry("uid=svc,dc=example,dc=com", map[string][]string{"uid": {"svc"}, "mail": {"svc@example.com"}}),
	), nil)

	report := newTestDirectory(t, conn, nil).TestConnection(context.Background())

	require.True(t, report.Success, report.Error)
	assert.Equal(t, "ldap.example.com", report.Host)
	assert.Equal(t, "389", report.Port)
	assert.Equal(t, "none", report.Encryption)
	assert.Equal(t, "simple", report.AuthMethod)
	assert.Equal(t, testBindDN, report.BindDN)
	require.NotNil(t, report.Bind)
	assert.Equal(t, uint16(0), report.Bind.Code)
	require.NotNil(t, report.Search)
	assert.Equal(t, 1, report.Search.Entries)
	assert.Equal(t, "(uid=svc)", report.Search.Filter)
	assert.ElementsMatch(t, []string{"mail", "uid"}, report.Attributes)
	assert.Equal(t, CodeHint(0), report.Suggestion)
	assert.Empty(t, report.Error)
	assert.Empty(t, report.ExceptionKind)
}

func TestTestConnection_ProbeSelection(t *testing.T) {
	t.Run("diagnostic uid", func(t *testing.T) {
		conn := newMockConn()
		conn.On("Search", filterIs("(uid=jdoe)")).Return(searchResult(), nil).Once()

		report := newTestDirectory(t, conn, map[string]string{"diagnostic_uid": "jdoe"}).TestConnection(context.Background())
		assert.True(t, report.Success)
		conn.AssertExpectations(t)
	})

	t.Run("anonymous reads the base entry", func(t *testing.T) {
		conn := newMockConn()
		conn.On("Search", mock.MatchedBy(func(req *ldap.SearchRequest) bool {
			return req.Filter == "(objectClass=*)" && req.Scope == ldap.ScopeBaseObject && req.BaseDN == "dc=example,dc=com"
		})).Return(searchResult(ldap.NewEntry("dc=example,dc=com", map[string][]string{"objectClass": {"domain"}})), nil).Once()

		report := newTestDirectory(t, conn, map[string]string{"username": "", "password": ""}).TestConnection(context.Background())
		assert.True(t, report.Success)
		assert.Equal(t, "anonymous", report.AuthMethod)
		assert.Empty(t, report.BindDN)
		conn.AssertExpectations(t)
		conn.AssertNotCalled(t, "Bind", mock.Anything, mock.Anything)
	})
}

func TestTestConnection_ToleratesConstraintViolationOnBind(t *testing.T) {
	conn := &mockConn{}
	conn.On("SetTimeout", mock.Anything)
	conn.On("Close").Return(nil)
	conn.On("Bind", testBindDN, testPassword).Return(serverError(ldap.LDAPResultConstraintViolation, "explicit bind refused")).Once()
	conn.On("Bind", testBindDN, testPassword).Return(nil).Once()
	conn.On("Search", mock.Anything).Return(searchResult(ldap.NewEntry("uid=svc,dc=example,dc=com", map[string][]string{"uid": {"svc"}})), nil)

	report := newTestDirectory(t, conn, nil).TestConnection(context.Background())

	require.True(t, report.Success, report.Error)
	require.NotNil(t, report.Bind)
	assert.Equal(t, uint16(19), report.Bind.Code)
	assert.True(t, report.Bind.Tolerated)
	assert.Equal(t, 1, report.Search.Entries)
}

func TestTestConnection_Failures(t *testing.T) {
	tests := []struct {
		name       string
		overrides  map[string]string
		setup      func(*mockConn)
		dialErr    error
		wantKind   string
		wantSearch bool
	}{
		{
			name:      "missing password",
			overrides: map[string]string{"password": ""},
			wantKind:  "ConfigurationError",
		},
		{
			name:     "unreachable server",
			dialErr:  ldap.NewError(ldap.ErrorNetwork, errors.New("dial tcp 10.0.0.1:389: i/o timeout")),
			wantKind: "ConnectionError",
		},
		{
			name:      "certificate rejected",
			overrides: map[string]string{"encryption": "start_tls"},
			setup: func(c *mockConn) {
				c.On("StartTLS", mock.Anything).Return(errors.New("x509: certificate has expired"))
			},
			wantKind: "ConnectionError",
		},
		{
			name: "invalid credentials",
			setup: func(c *mockConn) {
				c.On("Bind", testBindDN, testPassword).Return(serverError(ldap.LDAPResultInvalidCredentials, "invalid credentials"))
			},
			wantKind: "DirectoryError",
		},
		{
			name: "probe search refused",
			setup: func(c *mockConn) {
				c.On("Bind", testBindDN, testPassword).Return(nil)
				c.On("Search", mock.Anything).Return(searchResult(), serverError(ldap.LDAPResultInsufficientAccessRights, "no read access"))
			},
			wantKind:   "DirectoryError",
			wantSearch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockConn{}
			conn.On("SetTimeout", mock.Anything).Maybe()
			conn.On("Close").Return(nil).Maybe()
			if tt.setup != nil {
				tt.setup(conn)
			}

			dir := New(testConfig(tt.overrides), WithDialer(func(string, *tls.Config, time.Duration) (Conn, error) {
				if tt.dialErr != nil {
					return nil, tt.dialErr
				}
				return conn, nil
			}))

			var report *DiagnosticReport
			require.NotPanics(t, func() { report = dir.TestConnection(context.Background()) })
			require.NotNil(t, report)

			assert.False(t, report.Success)
			assert.NotEmpty(t, report.Error)
			assert.Equal(t, tt.wantKind, report.ExceptionKind)
			assert.NotEmpty(t, report.Suggestion)
			assert.Equal(t, tt.wantSearch, report.Search != nil)
		})
	}
}

func TestTestConnection_RecoversFromPanics(t *testing.T) {
	dir := New(testConfig(nil), WithDialer(func(string, *tls.Config, time.Duration) (Conn, error) {
		panic("dialer exploded")
	}))

	report := dir.TestConnection(context.Background())
	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "dialer exploded")
}
