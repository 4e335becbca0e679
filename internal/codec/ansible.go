package codec

import (
	"fmt"
	"io"

	"labtopo/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec exports the topology as an Ansible inventory. Hosts are
// grouped by role so a playbook can target, say, every IPMI interface
// or every hypervisor in the lab. Export-only: the inventory form drops
// the role-to-address table structure, so round-tripping it back in is
// not supported.
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible inventory codec.
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier.
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host"`
	TopologyID  string `yaml:"labtopo_host_id"`
}

// Export writes the topology as an Ansible inventory grouped by role.
func (c *AnsibleCodec) Export(topo *domain.Topology, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{Children: make(map[string]ansibleGroupDef)},
	}

	for _, role := range domain.Roles {
		group := ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
		for _, rec := range topo.SortedByID() {
			addr, ok := rec.Addresses[role]
			if !ok {
				continue
			}
			// e.g. "super27-ipmi" so one physical server can appear in
			// several groups under distinct inventory names.
			name := fmt.Sprintf("%s-%s", rec.ID, role)
			group.Hosts[name] = ansibleHost{
				AnsibleHost: addr,
				TopologyID:  rec.ID,
			}
		}
		if len(group.Hosts) > 0 {
			inv.All.Children[string(role)] = group
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}

	return nil
}
