package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"labtopo/internal/codec"
	"labtopo/internal/domain"
	"labtopo/internal/registry"
	"labtopo/internal/repository/sqlite"
)

const exampleTable = `host_id, ipmi, hypervisor_host, fw_eth0, fw_eth1, mgmt_wan, vcenter, dc, fw_bluex_wan, fw_bluex_lan
super27, 192.168.3.177, 192.168.3.227, 192.168.3.37, 10.0.17.2, 10.0.17.100, 10.0.17.3, 10.0.17.4, 10.0.17.200, 10.0.5.2
`

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Repository) {
	t.Helper()

	reg, err := registry.Load(strings.NewReader(exampleTable), codec.NewTableCodec())
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	h := NewTopologyHandler(registry.NewHandle(reg), repo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/topology", h.GetTopology)
	mux.HandleFunc("GET /api/hosts", h.ListHosts)
	mux.HandleFunc("GET /api/hosts/{id}", h.GetHost)
	mux.HandleFunc("GET /api/hosts/{id}/observations", h.ListHostObservations)
	mux.HandleFunc("GET /api/roles/{role}", h.ListByRole)
	mux.HandleFunc("GET /api/observations", h.ListObservations)
	mux.HandleFunc("POST /api/probe", h.TriggerProbe)
	mux.HandleFunc("GET /api/export/{format}", h.Export)

	srv := httptest.NewServer(Chain(mux, Recover, CORS, Logger))
	t.Cleanup(srv.Close)
	return srv, repo
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestGetHost(t *testing.T) {
	srv, _ := newTestServer(t)

	var rec domain.HostRecord
	getJSON(t, srv.URL+"/api/hosts/super27", http.StatusOK, &rec)

	if rec.ID != "super27" {
		t.Errorf("host_id = %q", rec.ID)
	}
	if rec.Addresses[domain.RoleDC] != "10.0.17.4" {
		t.Errorf("dc = %q, want 10.0.17.4", rec.Addresses[domain.RoleDC])
	}
}

func TestGetHostNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	var errResp ErrorResponse
	getJSON(t, srv.URL+"/api/hosts/nonexistent", http.StatusNotFound, &errResp)
	if errResp.Error == "" {
		t.Error("error body missing")
	}
}

func TestListHosts(t *testing.T) {
	srv, _ := newTestServer(t)

	var hosts []domain.HostRecord
	getJSON(t, srv.URL+"/api/hosts", http.StatusOK, &hosts)
	if len(hosts) != 1 || hosts[0].ID != "super27" {
		t.Errorf("hosts = %+v", hosts)
	}
}

func TestListHostsNameFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	var hosts []domain.HostRecord
	getJSON(t, srv.URL+"/api/hosts?name=SUPER", http.StatusOK, &hosts)
	if len(hosts) != 1 {
		t.Errorf("case-insensitive filter missed: %+v", hosts)
	}

	getJSON(t, srv.URL+"/api/hosts?name=nomatch", http.StatusOK, &hosts)
	if len(hosts) != 0 {
		t.Errorf("filter matched unexpectedly: %+v", hosts)
	}

	getJSON(t, srv.URL+"/api/hosts?name=%5B", http.StatusBadRequest, nil) // "["
}

func TestListByRole(t *testing.T) {
	srv, _ := newTestServer(t)

	var pairs []struct {
		HostID  string `json:"host_id"`
		Address string `json:"address"`
	}
	getJSON(t, srv.URL+"/api/roles/ipmi", http.StatusOK, &pairs)

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].HostID != "super27" || pairs[0].Address != "192.168.3.177" {
		t.Errorf("pair = %+v", pairs[0])
	}
}

func TestListByRoleUnknown(t *testing.T) {
	srv, _ := newTestServer(t)
	getJSON(t, srv.URL+"/api/roles/bogus", http.StatusBadRequest, nil)
}

func TestObservationsEndpoints(t *testing.T) {
	srv, repo := newTestServer(t)

	obs := &domain.Observation{
		HostID:     "super27",
		Role:       domain.RoleIPMI,
		Address:    "192.168.3.177",
		Probe:      "tcp",
		Success:    true,
		ObservedAt: time.Now().UTC(),
	}
	if err := repo.RecordObservation(context.Background(), obs); err != nil {
		t.Fatalf("RecordObservation: %v", err)
	}

	var all []domain.Observation
	getJSON(t, srv.URL+"/api/observations", http.StatusOK, &all)
	if len(all) != 1 {
		t.Fatalf("got %d observations, want 1", len(all))
	}

	var forHost []domain.Observation
	getJSON(t, srv.URL+"/api/hosts/super27/observations", http.StatusOK, &forHost)
	if len(forHost) != 1 {
		t.Errorf("got %d observations for host, want 1", len(forHost))
	}

	getJSON(t, srv.URL+"/api/hosts/nonexistent/observations", http.StatusNotFound, nil)
	getJSON(t, srv.URL+"/api/observations?limit=bogus", http.StatusBadRequest, nil)
}

func TestTriggerProbeUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/probe", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestExportFormats(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"table", "text/csv", "super27,192.168.3.177"},
		{"json", "application/json", `"host_id": "super27"`},
		{"yaml", "application/x-yaml", "ipmi: 192.168.3.177"},
		{"ansible-inventory", "application/x-yaml", "super27-ipmi:"},
	}

	for _, tt := range tests {
		resp, err := http.Get(srv.URL + "/api/export/" + tt.format)
		if err != nil {
			t.Fatalf("GET export/%s: %v", tt.format, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("export/%s status = %d", tt.format, resp.StatusCode)
			continue
		}
		if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
			t.Errorf("export/%s content-type = %q, want %q", tt.format, ct, tt.contentType)
		}
		if !strings.Contains(string(body), tt.contains) {
			t.Errorf("export/%s body missing %q:\n%s", tt.format, tt.contains, body)
		}
	}

	resp, err := http.Get(srv.URL + "/api/export/xml")
	if err != nil {
		t.Fatalf("GET export/xml: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	srv := httptest.NewServer(Chain(mux, Recover))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/boom")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}
