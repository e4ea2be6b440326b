package ldap

import (
	"context"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

var ldapScopes = map[SearchScope]int{
	ScopeBaseObject:   ldap.ScopeBaseObject,
	ScopeSingleLevel:  ldap.ScopeSingleLevel,
	ScopeWholeSubtree: ldap.ScopeWholeSubtree,
}

// Search runs one search, binding first if the connection has not been bound yet.
// Entries received before an error or size limit are kept; callers must look at
// both Entries and Result.
func (c *Connection) Search(ctx context.Context, req SearchRequest) SearchResult {
	if req.Filter == nil {
		req.Filter = Present("objectClass")
	}

	var result SearchResult
	defer func() {
		if c.cfg.Debug {
			traceSearch(ctx, req, result)
		}
	}()

	if c.conn == nil {
		result.Result = operationResultFromError(NewConnectionError("connection is closed", nil))
		return result
	}

	if bind := c.ensureBound(ctx); !bind.Success() {
		result.Result = bind
		return result
	}

	searchReq := ldap.NewSearchRequest(
		req.BaseDN,
		ldapScopes[req.Scope],
		ldap.NeverDerefAliases,
		req.SizeLimit,
		0,
		false,
		req.Filter.String(),
		req.Attributes,
		nil,
	)

	tflog.SubsystemTrace(ctx, subsystem, "Executing LDAP search", map[string]any{
		"base_dn": req.BaseDN,
		"filter":  searchReq.Filter,
	})

	res, err := c.conn.Search(searchReq)

	result.Result = operationResultFromError(err)
	if res != nil {
		result.Entries = make([]Entry, 0, len(res.Entries))
		for _, entry := range res.Entries {
			result.Entries = append(result.Entries, entryFromLDAP(entry))
		}
		result.Result.Referrals = res.Referrals
	}

	return result
}
