/*
Package ldap implements read-only user and group lookups against an LDAP directory.

# Architecture Overview

A lookup flows through a fixed pipeline:

  - Config: immutable settings with defaults (host, bases, credentials, attribute names)
  - Connect: validates the settings, dials, and negotiates StartTLS or LDAPS
  - Connection.Search: binds on first use and runs one search, keeping partial entries
  - Interpret: decides from the result code whether collected entries can be used
  - Attribute decoders: plain attributes and "{k=v}:{k=v}" envelope attributes

Directory exposes the lookups (GetSimpleName, GetEmail, GetDept, UIDExists,
IsMemberOfGroup, GetEmailDistributionList, AllGroupsForUser) and TestConnection.
Each call opens its own connection and closes it before returning. There is no
pooling, caching or retrying.

# Result Codes

Directories often answer least-privilege clients with advisory codes while still
returning data. Entries that arrived are always used, whatever the code. With no
entries:

  - 0, 4 (size limit) and 19 (constraint violation) mean "nothing found"
  - client-side transport codes (200 and above) become a ConnectionError
  - every other code becomes a DirectoryError with a hint from CodeHint

Not finding something is never an error: lookups return a default, false or an
empty collection.

# Errors

  - ConfigurationError: settings cannot produce a connection, raised before dialing
  - ConnectionError: transport or TLS failure
  - DirectoryError: terminal directory status with no usable data

# Logging

Messages go to the "ldap" tflog subsystem, leveled by LDAPLOOKUP_LOG_LDAP. Each
operation carries an operation_id field and password values are masked. With
Config.Debug set every search also writes a trace line with its base, filter,
projection and result summary.

# Example Usage

	cfg := ldap.DefaultConfig().WithSettings(map[string]string{
		"host":     "ldap.example.com",
		"base":     "dc=example,dc=com",
		"username": "svc",
		"password": "secret",
	})
	dir := ldap.New(cfg)

	email, ok, err := dir.GetEmail(ctx, "jdoe")
	if err != nil {
		return err
	}
	if ok {
		fmt.Println(email)
	}
*/
package ldap
