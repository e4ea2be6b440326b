package ldap

import (
	"context"
	"errors"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	// subsystem is the tflog subsystem every message of this package is written to.
	subsystem = "ldap"

	// LogLevelEnv selects the level of the ldap subsystem (TRACE, DEBUG, INFO, WARN, ERROR).
	LogLevelEnv = "LDAPLOOKUP_LOG_LDAP"
)

// initializeLogging attaches the ldap subsystem logger and a fresh operation ID to ctx.
// It is called at the beginning of each public operation.
func initializeLogging(ctx context.Context) context.Context {
	ctx = tflog.NewSubsystem(ctx, subsystem, tflog.WithLevelFromEnv(LogLevelEnv))
	ctx = tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, subsystem, "password")
	return tflog.SubsystemSetField(ctx, subsystem, "operation_id", uuid.NewString())
}

// LogOperation is a helper function to log an operation with timing.
func LogOperation(ctx context.Context, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	// Add operation to fields
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["operation"] = operation

	tflog.SubsystemDebug(ctx, subsystem, "Starting operation", fields)

	err := fn()

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		fields["error_kind"] = ErrorKind(err)
		tflog.SubsystemError(ctx, subsystem, "Operation failed", fields)
	} else {
		tflog.SubsystemDebug(ctx, subsystem, "Operation completed successfully", fields)
	}

	return err
}

// LogLDAPError logs LDAP-specific error information.
func LogLDAPError(ctx context.Context, operation string, err error, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["operation"] = operation
	fields["error"] = err.Error()

	// Add LDAP-specific error information if available
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		fields["ldap_result_code"] = ldapErr.ResultCode
		if ldapErr.MatchedDN != "" {
			fields["ldap_matched_dn"] = ldapErr.MatchedDN
		}
		if ldapErr.Err != nil {
			fields["ldap_diagnostic_message"] = ldapErr.Err.Error()
		}
	}

	tflog.SubsystemError(ctx, subsystem, "LDAP operation failed", fields)
}

// LogConnectionEvent logs connection-related events.
func LogConnectionEvent(ctx context.Context, event string, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["event"] = event

	switch event {
	case "connection_established", "authentication_success":
		tflog.SubsystemInfo(ctx, subsystem, "Connection event", fields)
	case "connection_failed", "authentication_failed":
		tflog.SubsystemError(ctx, subsystem, "Connection event", fields)
	default:
		tflog.SubsystemDebug(ctx, subsystem, "Connection event", fields)
	}
}

// traceSearch writes the debug search trace. It is a side channel only.
func traceSearch(ctx context.Context, req SearchRequest, result SearchResult) {
	attributeNames := make([][]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		attributeNames = append(attributeNames, entry.AttributeNames())
	}

	tflog.SubsystemInfo(ctx, subsystem, "LDAP search trace", map[string]any{
		"base_dn":           req.BaseDN,
		"scope":             req.Scope.String(),
		"filter":            req.Filter.String(),
		"attributes":        req.Attributes,
		"size_limit":        req.SizeLimit,
		"result_count":      len(result.Entries),
		"result_attributes": attributeNames,
		"result_code":       result.Result.Code,
		"result_message":    result.Result.Message,
		"result_diagnostic": result.Result.Diagnostic,
		"result_referrals":  result.Result.Referrals,
		"result_matched_dn": result.Result.MatchedDN,
	})
}
