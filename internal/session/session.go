// Package session runs the interactive lookup menu over a line-oriented terminal.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/ldap-lookup/internal/ldap"
)

// Lookup is the query surface the menu drives. *ldap.Directory implements it.
type Lookup interface {
	GetSimpleName(ctx context.Context, uid string) (string, error)
	GetEmail(ctx context.Context, uid string) (string, bool, error)
	GetDept(ctx context.Context, uid string) (string, bool, error)
	UIDExists(ctx context.Context, uid string) (bool, error)
	IsMemberOfGroup(ctx context.Context, uid, group string) (bool, error)
	GetEmailDistributionList(ctx context.Context, group string) (ldap.DistributionList, error)
	AllGroupsForUser(ctx context.Context, uid string) ([]string, error)
	TestConnection(ctx context.Context) *ldap.DiagnosticReport
}

var _ Lookup = (*ldap.Directory)(nil)

const (
	rule     = "======================================================"
	thinRule = "------------------------------------------------------"
)

const menu = `What would you like to do?
=================================
1: set new uid
2: set new group_uid
+++++++++++++++++++++++++
3: get users full name
33: check if uid exists
4: get users department
5: get users email
55: get all groups a user is a member of
+++++++++++++++++++++++++
6: get ldap group-name member listing
7: check if uid is member of a group
+++++++++++++++++++++++++
8: what time is it?
99: test LDAP connection (diagnostic)
0: exit

Enter a number: `

// Session holds the current uid and group between menu choices.
type Session struct {
	UID   string
	Group string

	lookup Lookup
	in     *bufio.Scanner
	out    io.Writer
	now    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithUID presets the uid so the opening prompt is skipped.
func WithUID(uid string) Option {
	return func(s *Session) { s.UID = uid }
}

// WithGroup presets the group name.
func WithGroup(group string) Option {
	return func(s *Session) { s.Group = group }
}

// WithClock replaces time.Now for menu option 8.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session reading choices from in and writing to out.
func New(lookup Lookup, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		lookup: lookup,
		in:     bufio.NewScanner(in),
		out:    out,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run shows the menu until the user chooses 0, input ends or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if s.UID == "" {
		fmt.Fprint(s.out, "Enter a valid UID=> ")
		uid, ok := s.readLine()
		if !ok {
			return s.in.Err()
		}
		s.UID = uid
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, menu)
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}

		choice, err := strconv.Atoi(line)
		if err != nil {
			s.invalid()
			continue
		}

		if choice == 0 {
			fmt.Fprintln(s.out, "you chose exit!")
			return nil
		}

		answer, known := s.Dispatch(ctx, choice)
		if !known {
			s.invalid()
			continue
		}
		s.resultBox(answer)
	}
}

// Dispatch performs one menu choice and returns the text to display. known is
// false for choices the menu does not offer.
func (s *Session) Dispatch(ctx context.Context, choice int) (answer string, known bool) {
	tflog.Debug(ctx, "Menu choice", map[string]any{"choice": choice, "uid": s.UID, "group": s.Group})

	switch choice {
	case 1:
		fmt.Fprintln(s.out, "Enter a valid UID")
		s.UID, _ = s.readLine()
		return "UID is now set to " + s.UID, true
	case 2:
		fmt.Fprintln(s.out, "Enter a valid group_name")
		s.Group, _ = s.readLine()
		return "group_name is now set to " + s.Group, true
	case 3:
		return render(s.lookup.GetSimpleName(ctx, s.UID)), true
	case 33:
		return render(s.lookup.UIDExists(ctx, s.UID)), true
	case 4:
		return renderOptional(s.lookup.GetDept(ctx, s.UID)), true
	case 5:
		return renderOptional(s.lookup.GetEmail(ctx, s.UID)), true
	case 55:
		return render(s.lookup.AllGroupsForUser(ctx, s.UID)), true
	case 6:
		return render(s.lookup.GetEmailDistributionList(ctx, s.Group)), true
	case 7:
		return render(s.lookup.IsMemberOfGroup(ctx, s.UID, s.Group)), true
	case 8:
		return s.now().Format(time.ANSIC), true
	case 99:
		return Render(s.lookup.TestConnection(ctx)), true
	default:
		return "", false
	}
}

func (s *Session) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) resultBox(answer string) {
	fmt.Fprintf(s.out, "\n\nYour Results\n%s\n\n%s\n\n%s\n", rule, answer, rule)
	fmt.Fprintf(s.out, "current values:\n UID set to=> %s\n group_uid set to=> %s\n%s\n\n\n", s.UID, s.Group, thinRule)
}

func (s *Session) invalid() {
	fmt.Fprintf(s.out, "====> Please type 1,2,3,33,4,5,55,6,7,8,99 or 0 only\n\n\n")
}

func render(value any, err error) string {
	if err != nil {
		return Render(err)
	}
	return Render(value)
}

func renderOptional(value string, ok bool, err error) string {
	if err != nil {
		return Render(err)
	}
	return RenderOptional(value, ok)
}
