package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Connection is a single directory connection owned by one operation.
// It binds lazily on the first search and is never shared or reused.
type Connection struct {
	conn     Conn
	cfg      Config
	server   ServerInfo
	auth     AuthMethod
	bindDN   string
	kerberos *kerberosAuth

	bound bool
}

// defaultDialer dials with go-ldap, honoring the connect timeout.
func defaultDialer(url string, tlsConfig *tls.Config, timeout time.Duration) (Conn, error) {
	return ldap.DialURL(url,
		ldap.DialWithTLSConfig(tlsConfig),
		ldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
	)
}

// Connect validates cfg and opens a transport to the directory. Configuration
// problems are reported before any network activity. When the encryption mode is
// start_tls, TLS is negotiated before returning. No bind is performed.
func Connect(ctx context.Context, cfg Config, dial Dialer) (*Connection, error) {
	if dial == nil {
		dial = defaultDialer
	}

	if cfg.Host == "" {
		return nil, NewConfigurationError("host", "host is required")
	}
	port, err := cfg.PortNumber()
	if err != nil {
		return nil, NewConfigurationError("port", err.Error())
	}
	if !cfg.Encryption.Valid() {
		return nil, NewConfigurationError("encryption",
			fmt.Sprintf("unsupported encryption mode %q (use none, start_tls or simple_tls)", cfg.Encryption))
	}

	c := &Connection{
		cfg:    cfg,
		server: ServerInfo{Host: cfg.Host, Port: port, Encryption: cfg.Encryption},
		auth:   cfg.GetAuthMethod(),
	}

	switch c.auth {
	case AuthMethodSimpleBind:
		c.bindDN = cfg.EffectiveBindDN()
		if cfg.Password == "" {
			if !cfg.AllowAnonymous {
				return nil, NewConfigurationError("password",
					fmt.Sprintf("a password is required to bind as %s (set allow_anonymous to search anonymously)", c.bindDN))
			}
			c.auth = AuthMethodAnonymous
		}
	case AuthMethodKerberos:
		if c.kerberos, err = newKerberosAuth(ctx, cfg, c.server); err != nil {
			return nil, err
		}
		c.bindDN = cfg.Username
	}

	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		c.release()
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = ldap.DefaultTimeout
	}

	url := c.URL()
	fields := map[string]any{
		"url":         url,
		"encryption":  string(cfg.Encryption),
		"auth_method": c.auth.String(),
		"tls_verify":  cfg.TLSVerify,
	}

	conn, err := dial(url, tlsConfig, timeout)
	if err != nil {
		c.release()
		fields["error"] = err.Error()
		LogConnectionEvent(ctx, "connection_failed", fields)
		return nil, NewConnectionError("failed to connect to "+url, err)
	}
	conn.SetTimeout(timeout)

	if cfg.Encryption == EncryptionStartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			_ = conn.Close()
			c.release()
			fields["error"] = err.Error()
			LogConnectionEvent(ctx, "connection_failed", fields)
			return nil, NewConnectionError("StartTLS negotiation with "+url+" failed", err)
		}
	}

	c.conn = conn
	LogConnectionEvent(ctx, "connection_established", fields)

	return c, nil
}

// URL returns the address the connection dials.
func (c *Connection) URL() string {
	return c.server.Encryption.Scheme() + "://" + net.JoinHostPort(c.server.Host, strconv.Itoa(c.server.Port))
}

// BindDN returns the identity the connection binds as, empty for anonymous.
func (c *Connection) BindDN() string {
	return c.bindDN
}

// AuthMethod returns the resolved authentication method.
func (c *Connection) AuthMethod() AuthMethod {
	return c.auth
}

// Server returns the target server parameters.
func (c *Connection) Server() ServerInfo {
	return c.server
}

// Bind authenticates the connection explicitly and returns the directory status.
// Anonymous connections succeed without contacting the server.
func (c *Connection) Bind(ctx context.Context) OperationResult {
	var err error

	switch c.auth {
	case AuthMethodSimpleBind:
		err = c.conn.Bind(c.bindDN, c.cfg.Password)
	case AuthMethodKerberos:
		err = c.kerberos.bind(ctx, c.conn)
	}

	result := operationResultFromError(err)
	c.bound = result.Success()

	fields := map[string]any{
		"bind_dn":     c.bindDN,
		"auth_method": c.auth.String(),
		"result_code": result.Code,
	}
	if result.Success() {
		LogConnectionEvent(ctx, "authentication_success", fields)
	} else {
		fields["error"] = result.Diagnostic
		LogConnectionEvent(ctx, "authentication_failed", fields)
	}

	return result
}

// ensureBound binds before the first search. A failed bind is attempted again
// by the next search on the same connection.
func (c *Connection) ensureBound(ctx context.Context) OperationResult {
	if c.bound {
		return OperationResult{Code: ldap.LDAPResultSuccess}
	}
	return c.Bind(ctx)
}

// Close releases the transport and any Kerberos state.
func (c *Connection) Close() error {
	c.release()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Connection) release() {
	if c.kerberos != nil {
		c.kerberos.close()
		c.kerberos = nil
	}
}
