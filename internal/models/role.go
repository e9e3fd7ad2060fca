package models

import "time"

type RoleKey string

const (
	RoleCustomer     RoleKey = "customer"
	RolePhotographer RoleKey = "photographer"
	RoleAdmin        RoleKey = "admin"
	RoleSuperAdmin   RoleKey = "super_admin"
	RoleTierBasic    RoleKey = "tier_basic"
	RoleTierPro      RoleKey = "tier_pro"
	RoleTierUltra    RoleKey = "tier_ultra"
)

// AllRoleKeys is the closed role vocabulary. Role keys from outside this
// set must never reach an authorization decision.
var AllRoleKeys = []RoleKey{
	RoleCustomer,
	RolePhotographer,
	RoleAdmin,
	RoleSuperAdmin,
	RoleTierBasic,
	RoleTierPro,
	RoleTierUltra,
}

type Role struct {
	ID        string
	Key       RoleKey
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MembershipTier string

const (
	TierBasic MembershipTier = "basic"
	TierPro   MembershipTier = "pro"
	TierUltra MembershipTier = "ultra"
)

var tierRoles = map[MembershipTier]RoleKey{
	TierBasic: RoleTierBasic,
	TierPro:   RoleTierPro,
	TierUltra: RoleTierUltra,
}

// TierRole maps a membership tier to the role that represents it.
func TierRole(tier MembershipTier) (RoleKey, bool) {
	key, ok := tierRoles[tier]
	return key, ok
}

// NormalizeRoleKeys filters an arbitrary string list down to the closed
// role vocabulary and drops duplicates. Unknown or legacy keys never
// survive a trust boundary crossing.
func NormalizeRoleKeys(keys []string) []RoleKey {
	known := make(map[RoleKey]struct{}, len(AllRoleKeys))
	for _, k := range AllRoleKeys {
		known[k] = struct{}{}
	}

	seen := make(map[RoleKey]struct{}, len(keys))
	out := make([]RoleKey, 0, len(keys))
	for _, raw := range keys {
		key := RoleKey(raw)
		if _, ok := known[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// MembershipTierFromRoleKeys derives the tier from a role set. Ties
// resolve ultra > pro > basic; no tier role at all means basic.
func MembershipTierFromRoleKeys(keys []RoleKey) MembershipTier {
	has := func(want RoleKey) bool {
		for _, k := range keys {
			if k == want {
				return true
			}
		}
		return false
	}

	switch {
	case has(RoleTierUltra):
		return TierUltra
	case has(RoleTierPro):
		return TierPro
	default:
		return TierBasic
	}
}
