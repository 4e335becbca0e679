package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"labtopo/internal/domain"

	"golang.org/x/crypto/ssh"
)

// SSHProber checks whether an SSH service answers on hypervisor and
// management addresses. It carries no credentials: the handshake is run
// with no auth methods, and a server that rejects authentication has
// still proven the service is alive.
type SSHProber struct {
	Port    int
	Timeout time.Duration
}

// NewSSHProber creates an SSH service prober.
func NewSSHProber(port int, timeout time.Duration) *SSHProber {
	if port == 0 {
		port = 22
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SSHProber{Port: port, Timeout: timeout}
}

// Name returns the probe identifier.
func (p *SSHProber) Name() string { return "ssh" }

// Applies restricts SSH checks to roles expected to run sshd.
func (p *SSHProber) Applies(t Target) bool {
	switch t.Role {
	case domain.RoleHypervisorHost, domain.RoleVCenter, domain.RoleMgmtWAN, domain.RoleDC:
		return true
	}
	return false
}

// Probe dials the SSH port and runs an unauthenticated handshake.
func (p *SSHProber) Probe(ctx context.Context, t Target) (*domain.Observation, error) {
	addr := net.JoinHostPort(t.Address, fmt.Sprintf("%d", p.Port))

	dialer := &net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &domain.Observation{}, nil
	}
	defer conn.Close()

	config := &ssh.ClientConfig{
		User:            "labtopo-probe",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         p.Timeout,
	}

	obs := &domain.Observation{}

	start := time.Now()
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	obs.Latency = time.Since(start)

	if err == nil {
		// Unexpected: a server accepted the empty auth set.
		obs.Success = true
		obs.SetDetail("server_version", string(sshConn.ServerVersion()))
		ssh.NewClient(sshConn, chans, reqs).Close()
		return obs, nil
	}

	// An auth rejection means the key exchange completed, so sshd is up.
	if strings.Contains(err.Error(), "unable to authenticate") {
		obs.Success = true
		return obs, nil
	}

	return obs, nil
}
