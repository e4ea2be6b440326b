package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents different categories of LDAP errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// ConfigurationError reports settings that cannot produce a usable connection.
// It is always raised before any network activity.
type ConfigurationError struct {
	Setting string // Offending setting name, if a single one is at fault
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("LDAP configuration error (%s): %s", e.Setting, e.Message)
	}
	return "LDAP configuration error: " + e.Message
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// ConnectionError represents transport and TLS negotiation failures.
type ConnectionError struct {
	message string
	cause   error
}

func (e *ConnectionError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ConnectionError) Unwrap() error {
	return e.cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) *ConnectionError {
	return &ConnectionError{
		message: message,
		cause:   cause,
	}
}

// DirectoryError is a terminal directory status that left the caller with no data.
type DirectoryError struct {
	Operation  string        // The operation that failed
	Category   ErrorCategory // Error category
	Code       uint16        // LDAP result code
	Message    string        // Name of the result code
	Diagnostic string        // Server-provided message
	MatchedDN  string        // Matched DN reported by the server
	Hint       string        // What the user can do about it
	Cause      error         // Underlying error
}

func (e *DirectoryError) Error() string {
	parts := []string{fmt.Sprintf("LDAP %s failed (code %d)", e.Operation, e.Code)}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Diagnostic != "" && e.Diagnostic != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.Diagnostic))
	}

	if e.Hint != "" {
		parts = append(parts, e.Hint)
	}

	return strings.Join(parts, " - ")
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

// NewDirectoryError builds a DirectoryError from a terminal operation result.
func NewDirectoryError(operation string, result OperationResult) *DirectoryError {
	return &DirectoryError{
		Operation:  operation,
		Category:   categorizeError(result.Code),
		Code:       result.Code,
		Message:    result.Message,
		Diagnostic: result.Diagnostic,
		MatchedDN:  result.MatchedDN,
		Hint:       CodeHint(result.Code),
		Cause:      result.Err,
	}
}

// isTransportCode reports whether code is one of go-ldap's client-side codes
// (network failure, timeout, decoding) rather than a status sent by the server.
func isTransportCode(code uint16) bool {
	return code >= ldap.ErrorNetwork
}

// CodeHint returns human-readable troubleshooting advice for a result code.
func CodeHint(code uint16) string {
	switch code {
	case ldap.LDAPResultSuccess:
		return "Connection, bind and search all succeeded."
	case ldap.LDAPResultSizeLimitExceeded:
		return "The search hit a size limit; set diagnostic_uid or narrow the query."
	case ldap.LDAPResultConstraintViolation:
		return "The directory restricted the request; the bound account may lack rights to read these entries."
	case ldap.LDAPResultNoSuchObject:
		return "The search base does not exist; check base, user_base and group_base."
	case ldap.LDAPResultInvalidCredentials:
		return "Check the username, bind DN and password; confirm the account is enabled for LDAP and the password is current."
	case ldap.LDAPResultInsufficientAccessRights:
		return "The bound account has insufficient rights for this search; ask the directory administrators for read access."
	case ldap.LDAPResultConfidentialityRequired, ldap.LDAPResultStrongAuthRequired:
		return "The server requires an encrypted connection; use start_tls on port 389 or simple_tls on port 636."
	case ldap.LDAPResultBusy, ldap.LDAPResultUnavailable:
		return "The directory is busy or unavailable; try again later."
	case ldap.LDAPResultServerDown:
		return "The server is unavailable; check host, port, encryption and network reachability."
	default:
		if isTransportCode(code) {
			return "The connection failed; check host, port, encryption mode and certificate settings."
		}
		return "Unexpected directory response; enable debug logging for details."
	}
}

// categorizeError categorizes an error based on LDAP result code.
func categorizeError(code uint16) ErrorCategory {
	switch code {
	// Authentication errors
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	// Permission errors
	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform,
		ldap.LDAPResultConstraintViolation:
		return ErrorCategoryPermission

	// Not found errors
	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	// Validation errors
	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultFilterError:
		return ErrorCategoryValidation

	// Server errors
	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	// Connection errors
	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		if isTransportCode(code) {
			return ErrorCategoryConnection
		}
		return ErrorCategoryUnknown
	}
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		return dirErr.Category
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return ErrorCategoryConnection
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return ErrorCategoryValidation
	}

	// Check for raw go-ldap library errors
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return categorizeError(ldapErr.ResultCode)
	}

	return ErrorCategoryUnknown
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsPermissionError checks if an error indicates a permission problem.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}

// ErrorKind names the error type for reports: ConfigurationError, ConnectionError,
// DirectoryError, or the Go type of anything else.
func ErrorKind(err error) string {
	var cfgErr *ConfigurationError
	var connErr *ConnectionError
	var dirErr *DirectoryError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "ConfigurationError"
	case errors.As(err, &connErr):
		return "ConnectionError"
	case errors.As(err, &dirErr):
		return "DirectoryError"
	default:
		return fmt.Sprintf("%T", err)
	}
}

// operationResultFromError converts an error returned by go-ldap into an OperationResult.
func operationResultFromError(err error) OperationResult {
	if err == nil {
		return OperationResult{Code: ldap.LDAPResultSuccess, Message: ldap.LDAPResultCodeMap[ldap.LDAPResultSuccess]}
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		result := OperationResult{
			Code:      ldapErr.ResultCode,
			Message:   resultCodeName(ldapErr.ResultCode),
			MatchedDN: ldapErr.MatchedDN,
			Err:       err,
		}
		if ldapErr.Err != nil {
			result.Diagnostic = ldapErr.Err.Error()
		}
		return result
	}

	return OperationResult{
		Code:       ldap.ErrorNetwork,
		Message:    resultCodeName(ldap.ErrorNetwork),
		Diagnostic: err.Error(),
		Err:        err,
	}
}

func resultCodeName(code uint16) string {
	if name, ok := ldap.LDAPResultCodeMap[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown LDAP result code %d", code)
}
