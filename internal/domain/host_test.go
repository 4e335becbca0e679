package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"ipmi", true},
		{"hypervisor_host", true},
		{"fw_eth0", true},
		{"fw_eth1", true},
		{"mgmt_wan", true},
		{"vcenter", true},
		{"dc", true},
		{"fw_bluex_wan", true},
		{"fw_bluex_lan", true},
		{"", false},
		{"IPMI", false},
		{"eth0", false},
	}

	for _, tt := range tests {
		role, err := ParseRole(tt.input)
		if tt.ok && err != nil {
			t.Errorf("ParseRole(%q) unexpected error: %v", tt.input, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseRole(%q) = %q, want error", tt.input, role)
		}
	}
}

func TestValidIPv4(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"192.168.3.177", true},
		{"10.0.17.2", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"256.0.0.1", false},
		{"10.0.17", false},
		{"10.0.17.2.3", false},
		{"fe80::1", false},
		{"not-an-ip", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidIPv4(tt.input); got != tt.valid {
			t.Errorf("ValidIPv4(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}

func TestHostRecordValidate(t *testing.T) {
	good := HostRecord{
		ID: "super27",
		Addresses: map[Role]string{
			RoleIPMI: "192.168.3.177",
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	missing := HostRecord{Addresses: map[Role]string{RoleIPMI: "10.0.0.1"}}
	var malformed *MalformedRecordError
	if err := missing.Validate(); !errors.As(err, &malformed) {
		t.Fatalf("missing host_id: got %v, want MalformedRecordError", err)
	}

	badAddr := HostRecord{
		ID:        "super27",
		Addresses: map[Role]string{RoleIPMI: "999.1.1.1"},
	}
	if err := badAddr.Validate(); !errors.As(err, &malformed) {
		t.Fatalf("bad address: got %v, want MalformedRecordError", err)
	}

	badRole := HostRecord{
		ID:        "super27",
		Addresses: map[Role]string{Role("bogus"): "10.0.0.1"},
	}
	if err := badRole.Validate(); !errors.As(err, &malformed) {
		t.Fatalf("bad role: got %v, want MalformedRecordError", err)
	}
}

func TestHostRecordCloneIsDeep(t *testing.T) {
	rec := HostRecord{
		ID:        "super27",
		Addresses: map[Role]string{RoleIPMI: "192.168.3.177"},
	}

	clone := rec.Clone()
	clone.Addresses[RoleIPMI] = "10.9.9.9"

	if rec.Addresses[RoleIPMI] != "192.168.3.177" {
		t.Error("mutating a clone changed the original record")
	}
}

func TestRolesPresentCanonicalOrder(t *testing.T) {
	rec := HostRecord{
		ID: "super27",
		Addresses: map[Role]string{
			RoleDC:   "10.0.17.4",
			RoleIPMI: "192.168.3.177",
		},
	}

	present := rec.RolesPresent()
	if len(present) != 2 || present[0] != RoleIPMI || present[1] != RoleDC {
		t.Errorf("RolesPresent() = %v, want [ipmi dc]", present)
	}
}

func TestIsNotFound(t *testing.T) {
	err := &NotFoundError{HostID: "nonexistent"}
	if !IsNotFound(err) {
		t.Error("IsNotFound should match NotFoundError")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound should not match arbitrary errors")
	}
}
