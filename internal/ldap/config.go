package ldap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// Default values for the directory the client was first written against.
const (
	DefaultHost             = "ldap.umich.edu"
	DefaultPort             = "389"
	DefaultBase             = "dc=umich,dc=edu"
	DefaultDeptAttribute    = "umichPostalAddressData"
	DefaultGroupAttribute   = "umichGroupEmail"
	DefaultGroupObjectClass = "group"
)

// Config holds every setting the lookup client reads.
//
// A Config is a value: it is built once (DefaultConfig plus a loader) and passed to
// New. Changing settings means building a new value with With or WithSettings.
type Config struct {
	// Connection settings
	Host       string         `yaml:"host" default:"ldap.umich.edu"`
	Port       string         `yaml:"port" default:"389"`
	Base       string         `yaml:"base" default:"dc=umich,dc=edu"`
	UserBase   string         `yaml:"user_base"`
	GroupBase  string         `yaml:"group_base"`
	Encryption EncryptionMode `yaml:"encryption" default:"start_tls"`
	Timeout    time.Duration  `yaml:"timeout" default:"30s"`

	// Authentication settings
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	BindDN         string `yaml:"bind_dn"`
	AllowAnonymous bool   `yaml:"allow_anonymous"`

	// Kerberos settings, used instead of a simple bind when KerberosRealm is set
	KerberosRealm  string `yaml:"kerberos_realm"`
	KerberosConfig string `yaml:"kerberos_config"`
	KerberosKeytab string `yaml:"kerberos_keytab"`
	KerberosCCache string `yaml:"kerberos_ccache"`
	KerberosSPN    string `yaml:"kerberos_spn"`

	// Attribute names
	DeptAttribute    string `yaml:"dept_attribute" default:"umichPostalAddressData"`
	GroupAttribute   string `yaml:"group_attribute" default:"umichGroupEmail"`
	GroupObjectClass string `yaml:"group_object_class" default:"group"`

	DiagnosticUID string `yaml:"diagnostic_uid"`
	Debug         bool   `yaml:"debug"`

	// Transport toggles, environment only
	TLSVerify  bool   `yaml:"-" default:"true"`
	CACertFile string `yaml:"-"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("ldap: invalid config defaults: %v", err))
	}
	return cfg
}

// With returns a copy of c with fn applied. c itself is never modified.
func (c Config) With(fn func(*Config)) Config {
	next := c
	if fn != nil {
		fn(&next)
	}
	return next
}

// WithSettings returns a copy of c with every named assignment applied at once.
// Unknown names are ignored. Values are not validated here; a malformed port or
// encryption mode is reported when a connection is built.
func (c Config) WithSettings(values map[string]string) Config {
	next := c
	for _, s := range settings {
		if v, ok := values[s.name]; ok {
			s.set(&next, v)
		}
	}
	return next
}

// Setting returns the value of a named setting. Undeclared names and optional
// settings that are unset return nil.
func (c Config) Setting(name string) any {
	for _, s := range settings {
		if s.name == strings.ToLower(name) {
			return s.get(c)
		}
	}
	return nil
}

// SettingNames returns the declared setting names in declaration order.
func SettingNames() []string {
	names := make([]string, 0, len(settings))
	for _, s := range settings {
		names = append(names, s.name)
	}
	return names
}

// UserSearchBase returns the user base override, or the global base.
func (c Config) UserSearchBase() string {
	if c.UserBase != "" {
		return c.UserBase
	}
	return c.Base
}

// GroupSearchBase returns the group base override, or the global base.
func (c Config) GroupSearchBase() string {
	if c.GroupBase != "" {
		return c.GroupBase
	}
	return c.Base
}

// EffectiveBindDN returns the explicit bind DN, or uid=<username>,<user base>.
func (c Config) EffectiveBindDN() string {
	if c.BindDN != "" {
		return c.BindDN
	}
	if c.Username != "" {
		return fmt.Sprintf("uid=%s,%s", EscapeDNValue(c.Username), c.UserSearchBase())
	}
	return ""
}

// GetAuthMethod determines the authentication method from the configuration.
func (c Config) GetAuthMethod() AuthMethod {
	// Kerberos authentication takes precedence
	if c.KerberosRealm != "" {
		return AuthMethodKerberos
	}
	if c.BindDN != "" || c.Username != "" {
		return AuthMethodSimpleBind
	}
	return AuthMethodAnonymous
}

// PortNumber parses the configured port.
func (c Config) PortNumber() (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", c.Port)
	}
	return port, nil
}

type setting struct {
	name string
	get  func(Config) any
	set  func(*Config, string)
}

var settings = []setting{
	{"host", func(c Config) any { return c.Host }, func(c *Config, v string) { c.Host = v }},
	{"port", func(c Config) any { return c.Port }, func(c *Config, v string) { c.Port = v }},
	{"base", func(c Config) any { return c.Base }, func(c *Config, v string) { c.Base = v }},
	{"user_base", func(c Config) any { return optional(c.UserBase) }, func(c *Config, v string) { c.UserBase = v }},
	{"group_base", func(c Config) any { return optional(c.GroupBase) }, func(c *Config, v string) { c.GroupBase = v }},
	{"bind_dn", func(c Config) any { return optional(c.BindDN) }, func(c *Config, v string) { c.BindDN = v }},
	{"username", func(c Config) any { return optional(c.Username) }, func(c *Config, v string) { c.Username = v }},
	{"password", func(c Config) any { return optional(c.Password) }, func(c *Config, v string) { c.Password = v }},
	{"allow_anonymous", func(c Config) any { return c.AllowAnonymous }, func(c *Config, v string) { c.AllowAnonymous = parseFlag(v) }},
	{"encryption", func(c Config) any { return c.Encryption }, func(c *Config, v string) { c.Encryption = EncryptionMode(strings.ToLower(strings.TrimSpace(v))) }},
	{"timeout", func(c Config) any { return c.Timeout }, func(c *Config, v string) { c.Timeout = parseTimeout(v) }},
	{"kerberos_realm", func(c Config) any { return optional(c.KerberosRealm) }, func(c *Config, v string) { c.KerberosRealm = v }},
	{"kerberos_config", func(c Config) any { return optional(c.KerberosConfig) }, func(c *Config, v string) { c.KerberosConfig = v }},
	{"kerberos_keytab", func(c Config) any { return optional(c.KerberosKeytab) }, func(c *Config, v string) { c.KerberosKeytab = v }},
	{"kerberos_ccache", func(c Config) any { return optional(c.KerberosCCache) }, func(c *Config, v string) { c.KerberosCCache = v }},
	{"kerberos_spn", func(c Config) any { return optional(c.KerberosSPN) }, func(c *Config, v string) { c.KerberosSPN = v }},
	{"dept_attribute", func(c Config) any { return c.DeptAttribute }, func(c *Config, v string) { c.DeptAttribute = v }},
	{"group_attribute", func(c Config) any { return c.GroupAttribute }, func(c *Config, v string) { c.GroupAttribute = v }},
	{"group_object_class", func(c Config) any { return c.GroupObjectClass }, func(c *Config, v string) { c.GroupObjectClass = v }},
	{"diagnostic_uid", func(c Config) any { return optional(c.DiagnosticUID) }, func(c *Config, v string) { c.DiagnosticUID = v }},
	{"debug", func(c Config) any { return c.Debug }, func(c *Config, v string) { c.Debug = parseFlag(v) }},
	{"tls_verify", func(c Config) any { return c.TLSVerify }, func(c *Config, v string) { c.TLSVerify = parseFlag(v) }},
	{"ca_cert", func(c Config) any { return optional(c.CACertFile) }, func(c *Config, v string) { c.CACertFile = v }},
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseFlag accepts the usual truthy spellings; anything else is false.
func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

// parseTimeout accepts a Go duration or a bare number of seconds. Unparseable
// values yield zero, which the connection builder replaces with the go-ldap default.
func parseTimeout(v string) time.Duration {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}
