package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"labtopo/internal/domain"
)

// JSONCodec handles JSON import/export of a topology.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier.
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a topology from JSON and validates each record.
func (c *JSONCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var topo domain.Topology
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&topo); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	for i := range topo.Hosts {
		if err := topo.Hosts[i].Validate(); err != nil {
			return nil, err
		}
	}

	return &topo, nil
}

// Export writes the topology as indented JSON, hosts sorted by host_id.
func (c *JSONCodec) Export(topo *domain.Topology, w io.Writer) error {
	out := domain.Topology{Hosts: topo.SortedByID()}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	return nil
}
