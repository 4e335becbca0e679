package domain

import (
	"net/netip"
	"sort"
)

// HostRecord is one row of the topology table: a physical server label
// and the IPv4 addresses assigned to each network role it carries.
type HostRecord struct {
	ID        string          `json:"host_id" yaml:"host_id"`
	Addresses map[Role]string `json:"role_addresses" yaml:"role_addresses"`
}

// Address returns the address assigned to role, if any.
func (h *HostRecord) Address(role Role) (string, bool) {
	addr, ok := h.Addresses[role]
	return addr, ok
}

// RolesPresent returns the roles defined on this record in canonical order.
func (h *HostRecord) RolesPresent() []Role {
	var present []Role
	for _, r := range Roles {
		if _, ok := h.Addresses[r]; ok {
			present = append(present, r)
		}
	}
	return present
}

// Clone returns a deep copy of the record.
func (h HostRecord) Clone() HostRecord {
	out := HostRecord{ID: h.ID}
	if h.Addresses != nil {
		out.Addresses = make(map[Role]string, len(h.Addresses))
		for r, a := range h.Addresses {
			out.Addresses[r] = a
		}
	}
	return out
}

// Validate checks the record invariants: a non-empty key, known roles,
// and IPv4 dotted-quad addresses.
func (h *HostRecord) Validate() error {
	if h.ID == "" {
		return &MalformedRecordError{Reason: "missing host_id"}
	}
	for role, addr := range h.Addresses {
		if !role.Valid() {
			return &MalformedRecordError{
				HostID: h.ID,
				Field:  string(role),
				Value:  addr,
				Reason: "unknown role",
			}
		}
		if !ValidIPv4(addr) {
			return &MalformedRecordError{
				HostID: h.ID,
				Field:  string(role),
				Value:  addr,
				Reason: "not an IPv4 dotted quad",
			}
		}
	}
	return nil
}

// ValidIPv4 reports whether s is a syntactically valid IPv4 dotted quad.
func ValidIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// Topology is the aggregate a codec produces or consumes: the full set
// of host records in source order.
type Topology struct {
	Hosts []HostRecord `json:"hosts" yaml:"hosts"`
}

// SortedByID returns the records sorted by host_id. The receiver is not
// modified.
func (t *Topology) SortedByID() []HostRecord {
	out := make([]HostRecord, len(t.Hosts))
	copy(out, t.Hosts)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
