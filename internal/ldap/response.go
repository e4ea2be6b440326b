package ldap

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Classification is how a terminal result code is treated.
type Classification int

const (
	ClassSuccess               Classification = iota // Trust all entries
	ClassSuccessWithCaveat                           // Size limit hit, trust what arrived
	ClassPermissionConstrained                       // Restricted view, empty result is not an error
	ClassFatal                                       // Error unless entries arrived anyway
)

func (c Classification) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassSuccessWithCaveat:
		return "success_with_caveat"
	case ClassPermissionConstrained:
		return "permission_constrained"
	default:
		return "fatal"
	}
}

// Classify maps an LDAP result code to its classification.
func Classify(code uint16) Classification {
	switch code {
	case ldap.LDAPResultSuccess:
		return ClassSuccess
	case ldap.LDAPResultSizeLimitExceeded:
		return ClassSuccessWithCaveat
	case ldap.LDAPResultConstraintViolation:
		return ClassPermissionConstrained
	default:
		return ClassFatal
	}
}

// Interpret decides whether the entries of a search can be used. Data that arrived
// is always returned, whatever the code. With no data, fatal codes become a
// DirectoryError, or a ConnectionError for client-side transport failures.
func Interpret(ctx context.Context, operation string, result SearchResult) ([]Entry, error) {
	class := Classify(result.Result.Code)
	entries := result.Entries

	if class == ClassSuccess {
		return entries, nil
	}

	fields := map[string]any{
		"operation":      operation,
		"result_code":    result.Result.Code,
		"classification": class.String(),
		"entries":        len(entries),
	}

	if len(entries) > 0 || class != ClassFatal {
		tflog.SubsystemWarn(ctx, subsystem, "Search ended with non-zero result code, using collected entries", fields)
		return entries, nil
	}

	if result.Result.Err != nil {
		LogLDAPError(ctx, operation, result.Result.Err, fields)
	}

	if isTransportCode(result.Result.Code) {
		cause := result.Result.Err
		if cause == nil {
			cause = fmt.Errorf("%s", result.Result.Diagnostic)
		}
		return nil, NewConnectionError(fmt.Sprintf("LDAP %s failed", operation), cause)
	}

	return nil, NewDirectoryError(operation, result.Result)
}
