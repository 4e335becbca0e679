package codec

import (
	"fmt"
	"io"
	"sort"

	"labtopo/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles the YAML document form of a topology: a hosts map
// keyed by host_id, each value mapping role names to addresses.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier.
func (c *YAMLCodec) Format() string {
	return "yaml"
}

type yamlTopology struct {
	Hosts map[string]map[string]string `yaml:"hosts"`
}

// Parse imports a topology from YAML.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var yt yamlTopology
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yt); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	ids := make([]string, 0, len(yt.Hosts))
	for id := range yt.Hosts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	topo := &domain.Topology{}
	for _, id := range ids {
		rec := domain.HostRecord{
			ID:        id,
			Addresses: make(map[domain.Role]string),
		}
		for roleName, addr := range yt.Hosts[id] {
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return nil, &domain.MalformedRecordError{
					HostID: id,
					Field:  roleName,
					Value:  addr,
					Reason: "unknown role",
				}
			}
			if !domain.ValidIPv4(addr) {
				return nil, &domain.MalformedRecordError{
					HostID: id,
					Field:  roleName,
					Value:  addr,
					Reason: "not an IPv4 dotted quad",
				}
			}
			rec.Addresses[role] = addr
		}
		topo.Hosts = append(topo.Hosts, rec)
	}

	return topo, nil
}

// Export writes the topology as YAML.
func (c *YAMLCodec) Export(topo *domain.Topology, w io.Writer) error {
	yt := yamlTopology{Hosts: make(map[string]map[string]string, len(topo.Hosts))}

	for _, rec := range topo.Hosts {
		roles := make(map[string]string, len(rec.Addresses))
		for role, addr := range rec.Addresses {
			roles[string(role)] = addr
		}
		yt.Hosts[rec.ID] = roles
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yt); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}

	return nil
}
