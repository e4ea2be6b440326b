package ldap

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// buildTLSConfig returns the TLS settings for StartTLS and LDAPS connections.
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         cfg.Host,
		InsecureSkipVerify: !cfg.TLSVerify, //nolint:gosec // opt-out via LDAP_TLS_VERIFY
	}

	if cfg.CACertFile == "" {
		return tlsConfig, nil
	}

	pem, err := os.ReadFile(cfg.CACertFile)
	if err != nil {
		return nil, NewConfigurationError("ca_cert", fmt.Sprintf("cannot read CA certificate: %v", err))
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, NewConfigurationError("ca_cert", "no PEM certificates found in "+cfg.CACertFile)
	}
	tlsConfig.RootCAs = pool

	return tlsConfig, nil
}
