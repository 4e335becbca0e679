package domain

import "fmt"

// Role identifies the network function an address serves on a host.
type Role string

const (
	RoleIPMI           Role = "ipmi"
	RoleHypervisorHost Role = "hypervisor_host"
	RoleFirewallWAN    Role = "fw_eth0"
	RoleFirewallLAN    Role = "fw_eth1"
	RoleMgmtWAN        Role = "mgmt_wan"
	RoleVCenter        Role = "vcenter"
	RoleDC             Role = "dc"
	RoleBlueFWWAN      Role = "fw_bluex_wan"
	RoleBlueFWLAN      Role = "fw_bluex_lan"
)

// Roles lists every known role in canonical column order.
var Roles = []Role{
	RoleIPMI,
	RoleHypervisorHost,
	RoleFirewallWAN,
	RoleFirewallLAN,
	RoleMgmtWAN,
	RoleVCenter,
	RoleDC,
	RoleBlueFWWAN,
	RoleBlueFWLAN,
}

// roleDescriptions maps roles to their human-readable meaning.
var roleDescriptions = map[Role]string{
	RoleIPMI:           "out-of-band management (IPMI)",
	RoleHypervisorHost: "hypervisor management",
	RoleFirewallWAN:    "firewall WAN interface",
	RoleFirewallLAN:    "firewall LAN interface",
	RoleMgmtWAN:        "management workstation",
	RoleVCenter:        "virtualization manager",
	RoleDC:             "directory controller",
	RoleBlueFWWAN:      "secondary firewall WAN interface",
	RoleBlueFWLAN:      "secondary firewall LAN interface",
}

// ParseRole validates a role name against the known set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleDescriptions[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Description returns the human-readable meaning of the role.
func (r Role) Description() string {
	return roleDescriptions[r]
}

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool {
	_, ok := roleDescriptions[r]
	return ok
}
