// Package access defines portal roles and the capabilities each role grants.
package access

import "fmt"

type Role string

const (
	RoleCitizen       Role = "citizen"
	RoleOfficer       Role = "officer"
	RoleSupervisor    Role = "supervisor"
	RoleAdministrator Role = "administrator"
)

// ParseRole accepts the canonical role names plus the legacy aliases "adc" and "admin".
func ParseRole(s string) (Role, error) {
	switch s {
	case "citizen":
		return RoleCitizen, nil
	case "officer":
		return RoleOfficer, nil
	case "supervisor", "adc":
		return RoleSupervisor, nil
	case "administrator", "admin":
		return RoleAdministrator, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficer, RoleSupervisor, RoleAdministrator:
		return true
	}
	return false
}

// Staff reports whether the role belongs to a government employee.
func (r Role) Staff() bool {
	return r == RoleOfficer || r == RoleSupervisor || r == RoleAdministrator
}

// Unscoped reports whether queries by this role ignore owner and circle constraints.
func (r Role) Unscoped() bool {
	return r == RoleSupervisor || r == RoleAdministrator
}

type Capability string

const (
	CapCreatePlot      Capability = "plots:create"
	CapViewPlots       Capability = "plots:view"
	CapUpdateStatus    Capability = "plots:update_status"
	CapAppendLog       Capability = "logs:append"
	CapAssignOfficer   Capability = "plots:assign"
	CapRetractLog      Capability = "logs:retract"
	CapViewReports     Capability = "reports:view"
	CapVerifyDocuments Capability = "documents:verify"
	CapManageGeography Capability = "geography:manage"
	CapManageUsers     Capability = "users:manage"
)

var grants = map[Role][]Capability{
	RoleCitizen: {CapCreatePlot, CapViewPlots},
	RoleOfficer: {CapCreatePlot, CapViewPlots, CapUpdateStatus, CapAppendLog, CapVerifyDocuments},
	RoleSupervisor: {
		CapCreatePlot, CapViewPlots, CapUpdateStatus, CapAppendLog,
		CapAssignOfficer, CapVerifyDocuments, CapViewReports,
	},
}

// Can reports whether role holds capability. Administrators hold every capability.
func Can(role Role, capability Capability) bool {
	if role == RoleAdministrator {
		return true
	}
	for _, c := range grants[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller as seen by the services.
type Principal struct {
	UserID   string
	Role     Role
	CircleID *string
}

func (p Principal) Can(capability Capability) bool {
	return Can(p.Role, capability)
}

// InCircle reports whether the principal is pinned to circleID.
func (p Principal) InCircle(circleID string) bool {
	return p.CircleID != nil && circleID != "" && *p.CircleID == circleID
}
