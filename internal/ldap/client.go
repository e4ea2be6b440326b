package ldap

import (
	"context"
	"sort"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// NotAvailable is returned by GetSimpleName when the user has no display name.
const NotAvailable = "not available"

// Directory runs read-only lookups against one LDAP directory.
// Every operation opens its own connection and closes it before returning.
type Directory struct {
	cfg  Config
	dial Dialer
}

// Option configures a Directory.
type Option func(*Directory)

// WithDialer replaces the go-ldap dialer, mainly for tests.
func WithDialer(dial Dialer) Option {
	return func(d *Directory) {
		d.dial = dial
	}
}

// New creates a Directory for cfg. No connection is made until an operation runs.
func New(cfg Config, opts ...Option) *Directory {
	d := &Directory{cfg: cfg, dial: defaultDialer}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the configuration the directory was created with.
func (d *Directory) Config() Config {
	return d.cfg
}

// DistributionList is a group with its email address and member uids.
// The zero value means no group matched.
type DistributionList struct {
	GroupName  string   `yaml:"group_name"`
	GroupEmail string   `yaml:"group_email,omitempty"`
	Members    []string `yaml:"members"`
}

// Found reports whether a group matched.
func (l DistributionList) Found() bool {
	return l.GroupName != "" || l.Members != nil
}

// withConnection wraps fn in operation logging and a dedicated connection.
func (d *Directory) withConnection(ctx context.Context, operation string, fields map[string]any, fn func(context.Context, *Connection) error) error {
	ctx = initializeLogging(ctx)

	return LogOperation(ctx, operation, fields, func() error {
		conn, err := Connect(ctx, d.cfg, d.dial)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Close(); err != nil {
				tflog.SubsystemDebug(ctx, subsystem, "Failed to close connection", map[string]any{"error": err.Error()})
			}
		}()

		return fn(ctx, conn)
	})
}

// searchUser runs a uid equality search in the user base.
func (d *Directory) searchUser(ctx context.Context, conn *Connection, operation, uid string, attributes ...string) ([]Entry, error) {
	result := conn.Search(ctx, SearchRequest{
		BaseDN:     d.cfg.UserSearchBase(),
		Scope:      ScopeWholeSubtree,
		Filter:     Eq("uid", uid),
		Attributes: attributes,
	})
	return Interpret(ctx, operation, result)
}

// searchGroup finds groups by cn in the group base.
func (d *Directory) searchGroup(ctx context.Context, conn *Connection, operation, group string, attributes ...string) ([]Entry, error) {
	result := conn.Search(ctx, SearchRequest{
		BaseDN:     d.cfg.GroupSearchBase(),
		Scope:      ScopeWholeSubtree,
		Filter:     And(Eq("cn", group), Eq("objectClass", d.cfg.GroupObjectClass)),
		Attributes: attributes,
	})
	return Interpret(ctx, operation, result)
}

// GetSimpleName returns the display name of uid, or NotAvailable.
func (d *Directory) GetSimpleName(ctx context.Context, uid string) (string, error) {
	name := NotAvailable
	err := d.withConnection(ctx, "get_simple_name", map[string]any{"uid": uid}, func(ctx context.Context, conn *Connection) error {
		value, ok, err := d.fetchSimple(ctx, conn, "get_simple_name", uid, "displayName")
		if ok {
			name = value
		}
		return err
	})
	return name, err
}

// GetEmail returns the mail attribute of uid. ok is false when there is none.
func (d *Directory) GetEmail(ctx context.Context, uid string) (email string, ok bool, err error) {
	err = d.withConnection(ctx, "get_email", map[string]any{"uid": uid}, func(ctx context.Context, conn *Connection) error {
		email, ok, err = d.fetchSimple(ctx, conn, "get_email", uid, "mail")
		return err
	})
	return email, ok, err
}

// GetDept returns the addr1 field of the department attribute of uid. When the
// attribute is not an envelope, its flat value is returned instead.
func (d *Directory) GetDept(ctx context.Context, uid string) (dept string, ok bool, err error) {
	fields := map[string]any{"uid": uid, "attribute": d.cfg.DeptAttribute}
	err = d.withConnection(ctx, "get_dept", fields, func(ctx context.Context, conn *Connection) error {
		dept, ok, err = d.fetchNested(ctx, conn, "get_dept", uid, d.cfg.DeptAttribute, "addr1")
		if err != nil || ok {
			return err
		}
		dept, ok, err = d.fetchSimple(ctx, conn, "get_dept", uid, d.cfg.DeptAttribute)
		return err
	})
	return dept, ok, err
}

// UIDExists reports whether an entry with exactly this uid exists.
func (d *Directory) UIDExists(ctx context.Context, uid string) (exists bool, err error) {
	err = d.withConnection(ctx, "uid_exists", map[string]any{"uid": uid}, func(ctx context.Context, conn *Connection) error {
		entries, err := d.searchUser(ctx, conn, "uid_exists", uid, "uid")
		if err != nil {
			return err
		}
		for _, entry := range entries {
			for _, value := range entry.Values("uid") {
				if value == uid {
					exists = true
					return nil
				}
			}
		}
		return nil
	})
	return exists, err
}

// IsMemberOfGroup reports whether uid is the first RDN value of any member of group.
func (d *Directory) IsMemberOfGroup(ctx context.Context, uid, group string) (member bool, err error) {
	fields := map[string]any{"uid": uid, "group": group}
	err = d.withConnection(ctx, "is_member_of_group", fields, func(ctx context.Context, conn *Connection) error {
		entries, err := d.searchGroup(ctx, conn, "is_member_of_group", group, "member")
		if err != nil {
			return err
		}
		for _, entry := range entries {
			for _, dn := range entry.Values("member") {
				if firstRDNValue(dn) == uid {
					member = true
					return nil
				}
			}
		}
		return nil
	})
	return member, err
}

// GetEmailDistributionList returns the name, email and sorted member uids of group.
// The zero DistributionList is returned when no group matched.
func (d *Directory) GetEmailDistributionList(ctx context.Context, group string) (list DistributionList, err error) {
	err = d.withConnection(ctx, "get_email_distribution_list", map[string]any{"group": group}, func(ctx context.Context, conn *Connection) error {
		entries, err := d.searchGroup(ctx, conn, "get_email_distribution_list", group, "cn", d.cfg.GroupAttribute, "member")
		if err != nil || len(entries) == 0 {
			return err
		}

		entry := entries[0]
		list.GroupName, _ = entry.First("cn")
		if list.GroupName == "" {
			list.GroupName = group
		}
		list.GroupEmail, _ = entry.First(d.cfg.GroupAttribute)

		list.Members = make([]string, 0, len(entry.Values("member")))
		for _, dn := range entry.Values("member") {
			list.Members = append(list.Members, firstRDNValue(dn))
		}
		sort.Strings(list.Members)

		return nil
	})
	return list, err
}

// AllGroupsForUser returns the sorted names of every group listing uid as a member.
func (d *Directory) AllGroupsForUser(ctx context.Context, uid string) (groups []string, err error) {
	groups = []string{}
	err = d.withConnection(ctx, "all_groups_for_user", map[string]any{"uid": uid}, func(ctx context.Context, conn *Connection) error {
		userDN, err := d.resolveUserDN(ctx, conn, uid)
		if err != nil {
			return err
		}

		result := conn.Search(ctx, SearchRequest{
			BaseDN:     d.cfg.GroupSearchBase(),
			Scope:      ScopeWholeSubtree,
			Filter:     Eq("member", userDN),
			Attributes: []string{"1.1"},
		})
		entries, err := Interpret(ctx, "all_groups_for_user", result)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if name := firstRDNValue(entry.DN); name != "" {
				groups = append(groups, name)
			}
		}
		sort.Strings(groups)

		return nil
	})
	return groups, err
}

// resolveUserDN looks up the DN of uid. When the directory does not return the
// entry, the conventional uid=<uid>,ou=People,<base> form is assumed.
func (d *Directory) resolveUserDN(ctx context.Context, conn *Connection, uid string) (string, error) {
	entries, err := d.searchUser(ctx, conn, "all_groups_for_user", uid, "1.1")
	if err != nil {
		return "", err
	}
	if len(entries) > 0 && entries[0].DN != "" {
		return entries[0].DN, nil
	}

	dn := "uid=" + EscapeDNValue(uid) + ",ou=People," + d.cfg.Base
	if d.cfg.UserBase != "" {
		dn = "uid=" + EscapeDNValue(uid) + "," + d.cfg.UserBase
	}
	tflog.SubsystemDebug(ctx, subsystem, "User entry not returned, assuming DN", map[string]any{"uid": uid, "dn": dn})

	return dn, nil
}
