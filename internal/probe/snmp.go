package probe

import (
	"context"
	"time"

	"labtopo/internal/domain"

	"github.com/gosnmp/gosnmp"
)

// system group OIDs
const (
	oidSysDescr  = ".1.3.6.1.2.1.1.1.0"
	oidSysUptime = ".1.3.6.1.2.1.1.3.0"
	oidSysName   = ".1.3.6.1.2.1.1.5.0"
)

// SNMPProber queries the SNMP system group on management-plane
// addresses. BMCs and hypervisors in the lab expose it; firewall data
// interfaces generally do not, so the prober only targets IPMI and
// hypervisor roles.
type SNMPProber struct {
	Community string
	Port      uint16
	Timeout   time.Duration
}

// NewSNMPProber creates an SNMP v2c prober.
func NewSNMPProber(community string, port uint16, timeout time.Duration) *SNMPProber {
	if community == "" {
		community = "public"
	}
	if port == 0 {
		port = 161
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &SNMPProber{Community: community, Port: port, Timeout: timeout}
}

// Name returns the probe identifier.
func (p *SNMPProber) Name() string { return "snmp" }

// Applies restricts SNMP to management-plane roles.
func (p *SNMPProber) Applies(t Target) bool {
	switch t.Role {
	case domain.RoleIPMI, domain.RoleHypervisorHost:
		return true
	}
	return false
}

// Probe fetches sysName, sysDescr and sysUpTime from the target.
func (p *SNMPProber) Probe(ctx context.Context, t Target) (*domain.Observation, error) {
	client := &gosnmp.GoSNMP{
		Target:    t.Address,
		Port:      p.Port,
		Community: p.Community,
		Version:   gosnmp.Version2c,
		Timeout:   p.Timeout,
		Retries:   1,
		Context:   ctx,
	}

	obs := &domain.Observation{}

	start := time.Now()
	if err := client.Connect(); err != nil {
		// UDP "connect" allocating a socket failed; nothing to report.
		return obs, nil
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysDescr, oidSysUptime, oidSysName})
	obs.Latency = time.Since(start)
	if err != nil {
		// No SNMP answer is a normal outcome for most roles.
		return obs, nil
	}

	obs.Success = true
	for _, v := range result.Variables {
		switch v.Name {
		case oidSysDescr:
			if b, ok := v.Value.([]byte); ok {
				obs.SetDetail("sys_descr", string(b))
			}
		case oidSysName:
			if b, ok := v.Value.([]byte); ok {
				obs.SetDetail("sys_name", string(b))
			}
		case oidSysUptime:
			obs.SetDetail("sys_uptime_ticks", gosnmp.ToBigInt(v.Value).Int64())
		}
	}

	return obs, nil
}
