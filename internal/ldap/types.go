package ldap

import (
	"crypto/tls"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// EncryptionMode selects how the transport to the directory is protected.
type EncryptionMode string

const (
	EncryptionNone      EncryptionMode = "none"       // Plaintext (not recommended)
	EncryptionStartTLS  EncryptionMode = "start_tls"  // Plaintext connect, StartTLS before any bind
	EncryptionSimpleTLS EncryptionMode = "simple_tls" // TLS from the first byte (LDAPS)
)

// Scheme returns the URL scheme used to dial the directory for this mode.
func (m EncryptionMode) Scheme() string {
	if m == EncryptionSimpleTLS {
		return "ldaps"
	}
	return "ldap"
}

// Valid reports whether m is one of the supported modes.
func (m EncryptionMode) Valid() bool {
	switch m {
	case EncryptionNone, EncryptionStartTLS, EncryptionSimpleTLS:
		return true
	default:
		return false
	}
}

// AuthMethod defines authentication method types.
type AuthMethod int

const (
	AuthMethodAnonymous  AuthMethod = iota // No bind, directory default identity
	AuthMethodSimpleBind                   // Bind DN and password
	AuthMethodKerberos                     // GSSAPI/Kerberos authentication
)

// String returns string representation of authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodAnonymous:
		return "anonymous"
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	default:
		return "unknown"
	}
}

// Conn is the subset of a go-ldap connection the lookup client needs.
// *ldap.Conn satisfies it.
type Conn interface {
	StartTLS(config *tls.Config) error
	SetTimeout(timeout time.Duration)
	Bind(username, password string) error
	GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzid string) error
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a transport to the directory. tlsConfig is only used for ldaps URLs.
type Dialer func(url string, tlsConfig *tls.Config, timeout time.Duration) (Conn, error)

// ServerInfo contains information about the LDAP server a connection targets.
type ServerInfo struct {
	Host       string
	Port       int
	Encryption EncryptionMode
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the scope name used in log fields.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	default:
		return "sub"
	}
}

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     Filter
	Attributes []string
	SizeLimit  int
}

// OperationResult is the terminal status of one directory operation.
type OperationResult struct {
	Code       uint16   // LDAP result code, 0 on success
	Message    string   // Name of the result code
	Diagnostic string   // Server or client supplied error text
	MatchedDN  string   // Matched DN reported by the server
	Referrals  []string // Referral URLs returned with the result
	Err        error    // Underlying error, nil on success
}

// Success reports whether the operation ended with result code 0.
func (r OperationResult) Success() bool {
	return r.Code == ldap.LDAPResultSuccess && r.Err == nil
}

// SearchResult holds every entry returned before the search ended and its terminal status.
// Entries are kept even when the status is not success.
type SearchResult struct {
	Entries []Entry
	Result  OperationResult
}
