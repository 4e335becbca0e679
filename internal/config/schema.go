package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Listen   string         `yaml:"listen"`
	Database DatabaseConfig `yaml:"database"`
	Topology TopologyConfig `yaml:"topology"`
	Probes   ProbeConfig    `yaml:"probes"`
	VCenter  VCenterConfig  `yaml:"vcenter,omitempty"`
}

// DatabaseConfig locates the SQLite observation store
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TopologyConfig locates the static topology source file
type TopologyConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // table, yaml, json
	Watch  bool   `yaml:"watch"`  // reload on file change
}

// ProbeConfig controls the read-only reachability probes
type ProbeConfig struct {
	Enabled       bool       `yaml:"enabled"`
	Interval      Duration   `yaml:"interval"`
	Timeout       Duration   `yaml:"timeout"`
	MaxConcurrent int        `yaml:"max_concurrent"`
	TCPPorts      []int      `yaml:"tcp_ports"`
	Nmap          bool       `yaml:"nmap"`
	SNMP          SNMPConfig `yaml:"snmp"`
	SSH           SSHConfig  `yaml:"ssh"`
}

// SNMPConfig controls the SNMP sysName/sysDescr probe
type SNMPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Community string `yaml:"community"`
	Port      uint16 `yaml:"port"`
}

// SSHConfig controls the SSH service probe
type SSHConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// VCenterConfig identifies the lab vCenter endpoint. Kept in the config
// file so it survives database wipes; the password is always prompted,
// never stored.
type VCenterConfig struct {
	Host     string `yaml:"host,omitempty"`
	Username string `yaml:"username,omitempty"`
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Listen:   ":3000",
		Database: DatabaseConfig{Path: "./labtopo.db"},
		Topology: TopologyConfig{Path: "./topology.csv", Format: "table", Watch: true},
		Probes: ProbeConfig{
			Enabled:       true,
			Interval:      Duration(5 * time.Minute),
			Timeout:       Duration(3 * time.Second),
			MaxConcurrent: 16,
			TCPPorts:      []int{22, 80, 443, 623, 5900, 8443},
			SNMP:          SNMPConfig{Community: "public", Port: 161},
			SSH:           SSHConfig{Port: 22},
		},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Topology.Path == "" {
		c.Topology.Path = def.Topology.Path
	}
	if c.Topology.Format == "" {
		c.Topology.Format = def.Topology.Format
	}
	if c.Probes.Interval == 0 {
		c.Probes.Interval = def.Probes.Interval
	}
	if c.Probes.Timeout == 0 {
		c.Probes.Timeout = def.Probes.Timeout
	}
	if c.Probes.MaxConcurrent == 0 {
		c.Probes.MaxConcurrent = def.Probes.MaxConcurrent
	}
	if len(c.Probes.TCPPorts) == 0 {
		c.Probes.TCPPorts = def.Probes.TCPPorts
	}
	if c.Probes.SNMP.Community == "" {
		c.Probes.SNMP.Community = def.Probes.SNMP.Community
	}
	if c.Probes.SNMP.Port == 0 {
		c.Probes.SNMP.Port = def.Probes.SNMP.Port
	}
	if c.Probes.SSH.Port == 0 {
		c.Probes.SSH.Port = def.Probes.SSH.Port
	}
}

// Duration wraps time.Duration for YAML round-tripping in "5m" form.
type Duration time.Duration

// Duration converts to the standard type
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String formats like time.Duration
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML parses "30s" / "5m" strings
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML emits the "5m" string form
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
