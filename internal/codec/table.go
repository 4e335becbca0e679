package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"labtopo/internal/domain"
)

// TableCodec handles the canonical tabular encoding: one header row
// naming host_id followed by role columns, then one row per host.
// Empty cells mean the host does not define that role.
type TableCodec struct{}

// NewTableCodec creates a new table codec.
func NewTableCodec() *TableCodec {
	return &TableCodec{}
}

// Format returns the codec format identifier.
func (c *TableCodec) Format() string {
	return "table"
}

// Parse reads the tabular form into a topology. Row-level problems
// surface as MalformedRecordError; a broken header is a plain error.
func (c *TableCodec) Parse(r io.Reader) (*domain.Topology, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty topology table")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if len(header) < 2 || strings.TrimSpace(header[0]) != "host_id" {
		return nil, fmt.Errorf("table header must start with host_id")
	}

	roles := make([]domain.Role, 0, len(header)-1)
	for _, col := range header[1:] {
		role, err := domain.ParseRole(strings.TrimSpace(col))
		if err != nil {
			return nil, fmt.Errorf("table header: %w", err)
		}
		roles = append(roles, role)
	}

	topo := &domain.Topology{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			malformed := &domain.MalformedRecordError{
				Reason: fmt.Sprintf("expected %d columns, got %d", len(roles)+1, len(row)),
			}
			if len(row) > 0 {
				malformed.HostID = strings.TrimSpace(row[0])
			}
			return nil, malformed
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := domain.HostRecord{
			ID:        strings.TrimSpace(row[0]),
			Addresses: make(map[domain.Role]string),
		}
		if rec.ID == "" {
			return nil, &domain.MalformedRecordError{Reason: "missing host_id"}
		}

		for i, role := range roles {
			val := strings.TrimSpace(row[i+1])
			if val == "" {
				continue
			}
			if !domain.ValidIPv4(val) {
				return nil, &domain.MalformedRecordError{
					HostID: rec.ID,
					Field:  string(role),
					Value:  val,
					Reason: "not an IPv4 dotted quad",
				}
			}
			rec.Addresses[role] = val
		}

		topo.Hosts = append(topo.Hosts, rec)
	}

	return topo, nil
}

// Export writes the topology in tabular form with the full canonical
// column set, hosts sorted by host_id.
func (c *TableCodec) Export(topo *domain.Topology, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(domain.Roles)+1)
	header = append(header, "host_id")
	for _, role := range domain.Roles {
		header = append(header, string(role))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range topo.SortedByID() {
		row := make([]string, 0, len(header))
		row = append(row, rec.ID)
		for _, role := range domain.Roles {
			row = append(row, rec.Addresses[role])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
