package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"labtopo/internal/domain"
)

const exampleYAML = `hosts:
  super27:
    ipmi: 192.168.3.177
    hypervisor_host: 192.168.3.227
    dc: 10.0.17.4
`

func TestYAMLParse(t *testing.T) {
	topo, err := NewYAMLCodec().Parse(strings.NewReader(exampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(topo.Hosts) != 1 {
		t.Fatalf("got %d hosts, want 1", len(topo.Hosts))
	}
	rec := topo.Hosts[0]
	if rec.ID != "super27" {
		t.Errorf("host_id = %q", rec.ID)
	}
	if rec.Addresses[domain.RoleDC] != "10.0.17.4" {
		t.Errorf("dc = %q", rec.Addresses[domain.RoleDC])
	}
}

func TestYAMLParseRejectsUnknownRole(t *testing.T) {
	doc := `hosts:
  super27:
    bogus_role: 10.0.0.1
`
	_, err := NewYAMLCodec().Parse(strings.NewReader(doc))
	var malformed *domain.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedRecordError", err)
	}
}

func TestYAMLParseRejectsBadAddress(t *testing.T) {
	doc := `hosts:
  super27:
    ipmi: 300.1.1.1
`
	_, err := NewYAMLCodec().Parse(strings.NewReader(doc))
	var malformed *domain.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedRecordError", err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := NewYAMLCodec()

	topo, err := c.Parse(strings.NewReader(exampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf bytes.Buffer
	if err := c.Export(topo, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	again, err := c.Parse(&buf)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}

	if len(again.Hosts) != 1 || again.Hosts[0].Addresses[domain.RoleIPMI] != "192.168.3.177" {
		t.Errorf("round trip mangled topology: %+v", again.Hosts)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c := NewJSONCodec()

	topo := &domain.Topology{Hosts: []domain.HostRecord{
		{ID: "super27", Addresses: map[domain.Role]string{
			domain.RoleIPMI: "192.168.3.177",
			domain.RoleDC:   "10.0.17.4",
		}},
	}}

	var buf bytes.Buffer
	if err := c.Export(topo, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	again, err := c.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if again.Hosts[0].Addresses[domain.RoleDC] != "10.0.17.4" {
		t.Errorf("round trip mangled topology: %+v", again.Hosts)
	}
}

func TestJSONParseValidates(t *testing.T) {
	doc := `{"hosts":[{"host_id":"super27","role_addresses":{"ipmi":"999.1.1.1"}}]}`
	_, err := NewJSONCodec().Parse(strings.NewReader(doc))
	var malformed *domain.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedRecordError", err)
	}
}

func TestAnsibleExportGroupsByRole(t *testing.T) {
	topo := &domain.Topology{Hosts: []domain.HostRecord{
		{ID: "super27", Addresses: map[domain.Role]string{
			domain.RoleIPMI:           "192.168.3.177",
			domain.RoleHypervisorHost: "192.168.3.227",
		}},
		{ID: "super28", Addresses: map[domain.Role]string{
			domain.RoleIPMI: "192.168.3.178",
		}},
	}}

	var buf bytes.Buffer
	if err := NewAnsibleCodec().Export(topo, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"ipmi:", "hypervisor_host:",
		"super27-ipmi:", "super28-ipmi:", "super27-hypervisor_host:",
		"ansible_host: 192.168.3.177",
		"labtopo_host_id: super27",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("inventory missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "dc:") {
		t.Error("inventory should omit empty role groups")
	}
}

func TestImporterExporterLookup(t *testing.T) {
	for _, format := range []string{"table", "csv", "yaml", "yml", "json", ""} {
		if _, err := ImporterFor(format); err != nil {
			t.Errorf("ImporterFor(%q): %v", format, err)
		}
	}
	if _, err := ImporterFor("ansible-inventory"); err == nil {
		t.Error("ansible inventory should be export-only")
	}
	if _, err := ExporterFor("ansible-inventory"); err != nil {
		t.Error("ansible inventory exporter missing")
	}
	if _, err := ImporterFor("xml"); err == nil {
		t.Error("unknown format accepted")
	}
}
