// Package authz decides whether a preview role holds the capability a partial
// requires before its content is rendered for that role.
package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/conneroisu/livefield/internal/errors"
)

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeDisabled Mode = "disabled"
)

// RoleAnonymous is used when a request names no role.
const RoleAnonymous = "anonymous"

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// ParseMode converts a configured mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(raw))) {
	case "", ModeEnforce:
		return ModeEnforce, nil
	case ModeDisabled:
		return ModeDisabled, nil
	default:
		return "", errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid auth mode %q (expected enforce|disabled)", raw))
	}
}

type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

// NewAuthorizer builds an in-memory policy granting each role its listed
// capabilities.
func NewAuthorizer(roles map[string][]string, mode Mode) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodePolicyLoadFailed, "loading authorization model", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodePolicyLoadFailed, "creating enforcer", err)
	}

	names := make([]string, 0, len(roles))
	for role := range roles {
		names = append(names, role)
	}
	sort.Strings(names)

	for _, role := range names {
		for _, capability := range roles[role] {
			capability = strings.TrimSpace(capability)
			if capability == "" {
				continue
			}
			if _, err := enforcer.AddPolicy(SubjectFromRole(role), capability); err != nil {
				return nil, errors.NewInternalError(errors.ErrCodePolicyLoadFailed,
					fmt.Sprintf("adding policy for role %q", role), err)
			}
		}
	}

	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = RoleAnonymous
	}
	return "role:" + role
}

// Mode returns the configured enforcement mode.
func (a *Authorizer) Mode() Mode { return a.mode }

// Authorize reports whether role holds capability. In disabled mode every role
// is allowed.
func (a *Authorizer) Authorize(role, capability string) (bool, error) {
	switch a.mode {
	case ModeDisabled:
		return true, nil
	case ModeEnforce:
		ok, err := a.enforcer.Enforce(SubjectFromRole(role), capability)
		if err != nil {
			return false, errors.NewInternalError(errors.ErrCodeInternalError, "evaluating policy", err)
		}
		return ok, nil
	default:
		return false, errors.NewConfigError(errors.ErrCodeConfigInvalid, "authz: unknown mode")
	}
}

// Capabilities lists the capabilities granted to role, sorted.
func (a *Authorizer) Capabilities(role string) []string {
	sub := SubjectFromRole(role)
	policies, err := a.enforcer.GetFilteredPolicy(0, sub)
	if err != nil {
		return nil
	}
	caps := make([]string, 0, len(policies))
	for _, p := range policies {
		if len(p) > 1 {
			caps = append(caps, p[1])
		}
	}
	sort.Strings(caps)
	return caps
}
