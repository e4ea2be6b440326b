package ldap

import (
	"crypto/tls"
	"errors"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"
)

// mockConn implements Conn for testing directory operations.
type mockConn struct {
	mock.Mock
}

func (m *mockConn) StartTLS(config *tls.Config) error {
	args := m.Called(config)
	return args.Error(0)
}

func (m *mockConn) SetTimeout(timeout time.Duration) {
	m.Called(timeout)
}

func (m *mockConn) Bind(username, password string) error {
	args := m.Called(username, password)
	return args.Error(0)
}

func (m *mockConn) GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzid string) error {
	args := m.Called(client, servicePrincipal, authzid)
	return args.Error(0)
}

func (m *mockConn) Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(searchRequest)
	result, _ := args.Get(0).(*ldap.SearchResult)
	return result, args.Error(1)
}

func (m *mockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

const (
	testBindDN   = "uid=svc,dc=example,dc=com"
	testPassword = "secret"
)

// testConfig returns a plaintext configuration bound as svc.
func testConfig(overrides map[string]string) Config {
	return DefaultConfig().WithSettings(map[string]string{
		"host":       "ldap.example.com",
		"base":       "dc=example,dc=com",
		"username":   "svc",
		"password":   testPassword,
		"encryption": "none",
	}).WithSettings(overrides)
}

// newMockConn returns a connection that accepts any bind with the test password.
func newMockConn() *mockConn {
	conn := &mockConn{}
	conn.On("SetTimeout", mock.Anything).Maybe()
	conn.On("Close").Return(nil).Maybe()
	conn.On("Bind", mock.AnythingOfType("string"), testPassword).Return(nil).Maybe()
	return conn
}

// newTestDirectory returns a Directory whose every connection is conn.
func newTestDirectory(t *testing.T, conn *mockConn, overrides map[string]string) *Directory {
	t.Helper()
	return New(testConfig(overrides), WithDialer(func(string, *tls.Config, time.Duration) (Conn, error) {
		return conn, nil
	}))
}

// filterIs matches a go-ldap search request by its rendered filter.
func filterIs(filter string) any {
	return mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Filter == filter
	})
}

func searchResult(entries ...*ldap.Entry) *ldap.SearchResult {
	return &ldap.SearchResult{Entries: entries, Referrals: []string{}}
}

func serverError(code uint16, message string) error {
	return ldap.NewError(code, errors.New(message))
}
