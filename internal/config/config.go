// Package config loads the lookup client settings from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/isometry/ldap-lookup/internal/ldap"
)

const (
	// EnvPrefix prefixes every setting name to form its environment variable,
	// e.g. LDAP_HOST or LDAP_GROUP_BASE.
	EnvPrefix = "LDAP_"

	// EnvConfigFile names the YAML file read when no path is given.
	EnvConfigFile = "LDAP_CONFIG"
)

// Load builds the configuration. path may be empty, in which case LDAP_CONFIG is
// consulted; with neither set no file is read. getenv defaults to os.Getenv.
func Load(path string, getenv func(string) string) (ldap.Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if path == "" {
		path = getenv(EnvConfigFile)
	}

	cfg := ldap.DefaultConfig()

	if path != "" {
		var err error
		if cfg, err = LoadFile(cfg, path); err != nil {
			return ldap.Config{}, err
		}
	}

	return cfg.WithSettings(Environment(getenv)), nil
}

// LoadFile overlays the YAML file at path onto base.
func LoadFile(base ldap.Config, path string) (ldap.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ldap.Config{}, ldap.NewConfigurationError("config", fmt.Sprintf("cannot read %s: %v", path, err))
	}

	cfg, err := Decode(base, data)
	if err != nil {
		return ldap.Config{}, ldap.NewConfigurationError("config", fmt.Sprintf("%s: %v", path, err))
	}
	return cfg, nil
}

// Decode overlays YAML settings onto base. Unknown keys are rejected; the TLS
// verification toggle and CA bundle are environment-only and count as unknown.
func Decode(base ldap.Config, data []byte) (ldap.Config, error) {
	cfg := base

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return ldap.Config{}, err
	}
	return cfg, nil
}

// Environment returns the settings present in the environment, keyed by setting
// name. Empty variables are treated as unset.
func Environment(getenv func(string) string) map[string]string {
	values := make(map[string]string)
	for _, name := range ldap.SettingNames() {
		if value := getenv(EnvVar(name)); value != "" {
			values[name] = value
		}
	}
	return values
}

// EnvVar returns the environment variable for a setting name.
func EnvVar(setting string) string {
	return EnvPrefix + strings.ToUpper(setting)
}
