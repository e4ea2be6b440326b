package ldap

import (
	"context"
	"net"
	"testing"

	godap "github.com/bradleypeabody/godap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestDirectory serves entries over plaintext LDAP on a free local port and
// accepts a single bind identity.
func startTestDirectory(t *testing.T, bindDN, password string, entries ...*godap.LDAPSimpleSearchResultEntry) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &godap.LDAPServer{Listener: lis}
	srv.Handlers = append(srv.Handlers, &godap.LDAPBindFuncHandler{LDAPBindFunc: func(dn string, pw []byte) bool {
		return dn == bindDN && string(pw) == password
	}})
	srv.Handlers = append(srv.Handlers, &godap.LDAPSimpleSearchFuncHandler{LDAPSimpleSearchFunc: func(*godap.LDAPSimpleSearchRequest) []*godap.LDAPSimpleSearchResultEntry {
		return entries
	}})

	go func() {
		_ = srv.Serve()
	}()
	t.Cleanup(func() { _ = lis.Close() })

	_, port, err := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, err)
	return port
}

func TestIntegration_GetEmail(t *testing.T) {
	port := startTestDirectory(t, testBindDN, testPassword, &godap.LDAPSimpleSearchResultEntry{
		DN: "uid=jdoe,ou=People,dc=example,dc=com",
		Attrs: map[string]any{
			"uid":  "jdoe",
			"mail": "jdoe@example.com",
		},
	})

	cfg := DefaultConfig().WithSettings(map[string]string{
		"host":       "127.0.0.1",
		"port":       port,
		"base":       "dc=example,dc=com",
		"username":   "svc",
		"password":   testPassword,
		"encryption": "none",
		"timeout":    "5s",
	})
	dir := New(cfg)

	email, ok, err := dir.GetEmail(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jdoe@example.com", email)

	exists, err := dir.UIDExists(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.True(t, exists)

	report := dir.TestConnection(context.Background())
	assert.True(t, report.Success, report.Error)
	assert.Equal(t, testBindDN, report.BindDN)
}

func TestIntegration_WrongPassword(t *testing.T) {
	port := startTestDirectory(t, testBindDN, testPassword)

	cfg := DefaultConfig().WithSettings(map[string]string{
		"host":       "127.0.0.1",
		"port":       port,
		"base":       "dc=example,dc=com",
		"username":   "svc",
		"password":   "wrong",
		"encryption": "none",
		"timeout":    "5s",
	})

	_, _, err := New(cfg).GetEmail(context.Background(), "jdoe")
	require.Error(t, err)
	assert.Equal(t, "DirectoryError", ErrorKind(err))
}

func TestIntegration_NothingListening(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, _ := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, lis.Close())

	cfg := DefaultConfig().WithSettings(map[string]string{
		"host":       "127.0.0.1",
		"port":       port,
		"username":   "svc",
		"password":   testPassword,
		"encryption": "none",
		"timeout":    "2s",
	})

	_, _, err = New(cfg).GetEmail(context.Background(), "jdoe")
	require.Error(t, err)
	assert.Equal(t, "ConnectionError", ErrorKind(err))

	report := New(cfg).TestConnection(context.Background())
	assert.False(t, report.Success)
	assert.Equal(t, "ConnectionError", report.ExceptionKind)
}
