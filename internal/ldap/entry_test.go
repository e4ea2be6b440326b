package ldap

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
)

func TestEntry_CaseInsensitive(t *testing.T) {
	e := NewEntry("uid=jdoe,dc=example,dc=com", map[string][]string{
		"displayName": {"John Doe"},
		"mail":        {"jdoe@example.com", "john.doe@example.com"},
	})

	v, ok := e.First("DISPLAYNAME")
	assert.True(t, ok)
	assert.Equal(t, "John Doe", v)

	assert.Equal(t, []string{"jdoe@example.com", "john.doe@example.com"}, e.Values("Mail"))
	assert.True(t, e.Has("displayname"))
	assert.False(t, e.Has("cn"))

	_, ok = e.First("cn")
	assert.False(t, ok)
	assert.Nil(t, e.Values("cn"))
}

func TestEntryFromLDAP(t *testing.T) {
	src := &ldap.Entry{
		DN: "cn=staff,dc=example,dc=com",
		Attributes: []*ldap.EntryAttribute{
			{Name: "cn", Values: []string{"staff"}},
			{Name: "member", Values: []string{"uid=b,dc=example,dc=com", "uid=a,dc=example,dc=com"}},
			{Name: "Member", Values: []string{"uid=c,dc=example,dc=com"}},
		},
	}

	e := entryFromLDAP(src)
	assert.Equal(t, "cn=staff,dc=example,dc=com", e.DN)
	assert.Equal(t, []string{"cn", "member"}, e.AttributeNames())
	assert.Equal(t, []string{"uid=b,dc=example,dc=com", "uid=a,dc=example,dc=com", "uid=c,dc=example,dc=com"}, e.Values("MEMBER"))
}

func TestEntry_AttributeNamesIsACopy(t *testing.T) {
	e := NewEntry("uid=jdoe", map[string][]string{"uid": {"jdoe"}})
	names := e.AttributeNames()
	names[0] = "changed"

	assert.Equal(t, []string{"uid"}, e.AttributeNames())
}
