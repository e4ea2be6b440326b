package ldap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// kerberosAuth holds a prepared GSSAPI client. It is built before dialing so
// that missing realms, files or credentials are reported as configuration errors.
type kerberosAuth struct {
	client *gssapi.Client
	spn    string
	realm  string
}

func newKerberosAuth(ctx context.Context, cfg Config, server ServerInfo) (*kerberosAuth, error) {
	cfg, err := prepareKerberosConfig(cfg)
	if err != nil {
		return nil, NewConfigurationError("kerberos_realm", err.Error())
	}

	client, err := newGSSAPIClient(ctx, cfg)
	if err != nil {
		return nil, NewConfigurationError("kerberos_config", err.Error())
	}

	return &kerberosAuth{
		client: client,
		spn:    buildServicePrincipal(cfg, server),
		realm:  cfg.KerberosRealm,
	}, nil
}

// bind performs the GSSAPI bind on conn.
func (k *kerberosAuth) bind(ctx context.Context, conn Conn) error {
	defer func() {
		_ = k.client.DeleteSecContext()
	}()

	tflog.SubsystemDebug(ctx, subsystem, "Performing GSSAPI bind", map[string]any{
		"spn":   k.spn,
		"realm": k.realm,
	})

	return conn.GSSAPIBind(k.client, k.spn, "")
}

func (k *kerberosAuth) close() {
	_ = k.client.Close()
}

// newGSSAPIClient picks credentials in order: explicit ccache, default ccache,
// explicit keytab, default keytab, password.
func newGSSAPIClient(ctx context.Context, cfg Config) (*gssapi.Client, error) {
	krb5conf := cfg.KerberosConfig
	if !fileExists(krb5conf) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s; set kerberos_config. Example:\n%s",
			krb5conf, exampleKrb5Conf(cfg.KerberosRealm))
	}

	noFAST := krb5client.DisablePAFXFAST(true)

	if fileExists(cfg.KerberosCCache) {
		return gssapi.NewClientFromCCache(cfg.KerberosCCache, krb5conf, noFAST)
	}
	if ccache := defaultCCachePath(); fileExists(ccache) {
		tflog.SubsystemDebug(ctx, subsystem, "Using default credential cache", map[string]any{"ccache": ccache})
		return gssapi.NewClientFromCCache(ccache, krb5conf, noFAST)
	}
	if fileExists(cfg.KerberosKeytab) {
		return gssapi.NewClientWithKeytab(cfg.Username, cfg.KerberosRealm, cfg.KerberosKeytab, krb5conf, noFAST)
	}
	if keytab := defaultKeytabPath(); fileExists(keytab) {
		return gssapi.NewClientWithKeytab(cfg.Username, cfg.KerberosRealm, keytab, krb5conf, noFAST)
	}
	if cfg.Password != "" {
		return gssapi.NewClientWithPassword(cfg.Username, cfg.KerberosRealm, cfg.Password, krb5conf, noFAST)
	}

	return nil, fmt.Errorf("no usable kerberos credentials: set kerberos_ccache, kerberos_keytab or password")
}

// buildServicePrincipal returns kerberos_spn when set, otherwise ldap/<host>.
func buildServicePrincipal(cfg Config, server ServerInfo) string {
	if cfg.KerberosSPN != "" {
		return cfg.KerberosSPN
	}
	return "ldap/" + server.Host
}

// prepareKerberosConfig fills the krb5.conf default and splits user@REALM principals.
func prepareKerberosConfig(cfg Config) (Config, error) {
	if cfg.KerberosConfig == "" {
		cfg.KerberosConfig = defaultKrb5Conf
	}

	if user, realm, ok := strings.Cut(cfg.Username, "@"); ok && realm != "" {
		cfg.Username = user
		if cfg.KerberosRealm == "" {
			cfg.KerberosRealm = realm
		}
	}

	if cfg.KerberosRealm == "" {
		return cfg, fmt.Errorf("kerberos realm is required (set kerberos_realm or use user@REALM)")
	}
	if cfg.Username == "" {
		return cfg, fmt.Errorf("username (principal) is required for kerberos authentication")
	}

	return cfg, nil
}

func defaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

func defaultKeytabPath() string {
	if keytab := os.Getenv("KRB5_KTNAME"); keytab != "" {
		return strings.TrimPrefix(keytab, "FILE:")
	}
	return "/etc/krb5.keytab"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func exampleKrb5Conf(realm string) string {
	if realm == "" {
		realm = "EXAMPLE.COM"
	}
	domain := strings.ToLower(realm)
	return fmt.Sprintf(`[libdefaults]
    default_realm = %[1]s

[realms]
    %[1]s = {
        kdc = kdc.%[2]s:88
    }

[domain_realm]
    .%[2]s = %[1]s`, realm, domain)
}

var _ ldap.GSSAPIClient = (*gssapi.Client)(nil)
