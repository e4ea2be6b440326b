package ldap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// DiagnosticReport is the outcome of TestConnection.
type DiagnosticReport struct {
	Success    bool   `yaml:"success"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Encryption string `yaml:"encryption"`
	TLSVerify  bool   `yaml:"tls_verify"`
	Base       string `yaml:"base"`
	UserBase   string `yaml:"user_base"`
	GroupBase  string `yaml:"group_base"`
	AuthMethod string `yaml:"auth_method"`
	BindDN     string `yaml:"bind_dn,omitempty"`

	Bind       *StepReport `yaml:"bind,omitempty"`
	Search     *StepReport `yaml:"search,omitempty"`
	Attributes []string    `yaml:"attributes,omitempty"`

	Suggestion    string `yaml:"suggestion,omitempty"`
	Error         string `yaml:"error,omitempty"`
	ExceptionKind string `yaml:"exception_kind,omitempty"`
}

// StepReport records one directory round trip of the probe.
type StepReport struct {
	Code       uint16   `yaml:"code"`
	Message    string   `yaml:"message"`
	Diagnostic string   `yaml:"diagnostic,omitempty"`
	MatchedDN  string   `yaml:"matched_dn,omitempty"`
	Referrals  []string `yaml:"referrals,omitempty"`
	Tolerated  bool     `yaml:"tolerated,omitempty"`
	BaseDN     string   `yaml:"base_dn,omitempty"`
	Filter     string   `yaml:"filter,omitempty"`
	Entries    int      `yaml:"entries"`
	DurationMS int64    `yaml:"duration_ms"`
}

func newStepReport(result OperationResult, start time.Time) *StepReport {
	return &StepReport{
		Code:       result.Code,
		Message:    result.Message,
		Diagnostic: result.Diagnostic,
		MatchedDN:  result.MatchedDN,
		Referrals:  result.Referrals,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

// TestConnection connects, binds and runs a one-entry probe search. It never
// returns an error: every failure, including panics, is folded into the report.
func (d *Directory) TestConnection(ctx context.Context) (report *DiagnosticReport) {
	report = &DiagnosticReport{
		Host:       d.cfg.Host,
		Port:       d.cfg.Port,
		Encryption: string(d.cfg.Encryption),
		TLSVerify:  d.cfg.TLSVerify,
		Base:       d.cfg.Base,
		UserBase:   d.cfg.UserSearchBase(),
		GroupBase:  d.cfg.GroupSearchBase(),
		AuthMethod: d.cfg.GetAuthMethod().String(),
	}

	defer func() {
		if r := recover(); r != nil {
			_ = report.fail(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	err := d.withConnection(ctx, "test_connection", nil, func(ctx context.Context, conn *Connection) error {
		report.AuthMethod = conn.AuthMethod().String()
		report.BindDN = conn.BindDN()

		start := time.Now()
		bind := conn.Bind(ctx)
		report.Bind = newStepReport(bind, start)
		if !bind.Success() {
			// Some directories refuse explicit binds with a constraint violation
			// and still answer searches.
			if bind.Code != ldap.LDAPResultConstraintViolation {
				return report.fail(interpretBind(bind))
			}
			report.Bind.Tolerated = true
		}

		req := d.probeRequest()
		start = time.Now()
		result := conn.Search(ctx, req)
		report.Search = newStepReport(result.Result, start)
		report.Search.BaseDN = req.BaseDN
		report.Search.Filter = req.Filter.String()
		report.Search.Entries = len(result.Entries)

		entries, err := Interpret(ctx, "search", result)
		if err != nil {
			return report.fail(err)
		}
		for _, entry := range entries {
			report.Attributes = append(report.Attributes, entry.AttributeNames()...)
		}

		report.Success = true
		report.Suggestion = CodeHint(result.Result.Code)
		return nil
	})

	if err != nil && report.Error == "" {
		_ = report.fail(err)
	}
	return report
}

// probeRequest looks up the diagnostic uid or the bind user, else reads the base entry.
func (d *Directory) probeRequest() SearchRequest {
	uid := d.cfg.DiagnosticUID
	if uid == "" {
		uid = d.cfg.Username
	}
	if uid != "" {
		return SearchRequest{
			BaseDN:    d.cfg.UserSearchBase(),
			Scope:     ScopeWholeSubtree,
			Filter:    Eq("uid", uid),
			SizeLimit: 1,
		}
	}
	return SearchRequest{
		BaseDN:    d.cfg.Base,
		Scope:     ScopeBaseObject,
		Filter:    Present("objectClass"),
		SizeLimit: 1,
	}
}

func interpretBind(result OperationResult) error {
	if isTransportCode(result.Code) {
		return NewConnectionError("LDAP bind failed", result.Err)
	}
	return NewDirectoryError("bind", result)
}

// fail records err and returns it.
func (r *DiagnosticReport) fail(err error) error {
	r.Success = false
	r.Error = err.Error()
	r.ExceptionKind = ErrorKind(err)

	var cfgErr *ConfigurationError
	var dirErr *DirectoryError
	switch {
	case errors.As(err, &dirErr):
		r.Suggestion = dirErr.Hint
	case errors.As(err, &cfgErr) && cfgErr.Setting != "":
		r.Suggestion = fmt.Sprintf("Fix the %s setting.", cfgErr.Setting)
	case errors.As(err, &cfgErr):
		r.Suggestion = "Fix the configuration."
	default:
		r.Suggestion = CodeHint(ldap.ErrorNetwork)
	}
	return err
}
