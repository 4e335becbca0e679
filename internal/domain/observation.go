package domain

import "time"

// Observation is the result of one probe attempt against one registered
// address. Observations are append-only history; they never feed back
// into the registry.
type Observation struct {
	ID         int64          `json:"id,omitempty"`
	HostID     string         `json:"host_id"`
	Role       Role           `json:"role"`
	Address    string         `json:"address"`
	Probe      string         `json:"probe"`
	Success    bool           `json:"success"`
	Latency    time.Duration  `json:"latency_ns"`
	Detail     map[string]any `json:"detail,omitempty"`
	ObservedAt time.Time      `json:"observed_at"`
}

// SetDetail records a probe-specific finding (open port, SNMP sysName,
// SSH server version).
func (o *Observation) SetDetail(key string, value any) {
	if o.Detail == nil {
		o.Detail = make(map[string]any)
	}
	o.Detail[key] = value
}
