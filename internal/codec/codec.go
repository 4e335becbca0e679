package codec

import (
	"fmt"
	"io"

	"labtopo/internal/domain"
)

// Importer parses a topology from a serialized form.
type Importer interface {
	Parse(r io.Reader) (*domain.Topology, error)
	Format() string
}

// Exporter writes a topology in a serialized form.
type Exporter interface {
	Export(topo *domain.Topology, w io.Writer) error
	Format() string
}

// ImporterFor returns the importer for a format name.
func ImporterFor(format string) (Importer, error) {
	switch format {
	case "table", "csv", "":
		return NewTableCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	default:
		return nil, fmt.Errorf("no importer for format %q", format)
	}
}

// ExporterFor returns the exporter for a format name.
func ExporterFor(format string) (Exporter, error) {
	switch format {
	case "table", "csv", "":
		return NewTableCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	case "ansible-inventory", "ansible":
		return NewAnsibleCodec(), nil
	default:
		return nil, fmt.Errorf("no exporter for format %q", format)
	}
}
