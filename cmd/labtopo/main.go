// Command labtopo inspects a lab topology file from the command line:
// list hosts, look one up, list a role's addresses, search by name, or
// run a one-shot reachability check.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"labtopo/internal/codec"
	"labtopo/internal/domain"
	"labtopo/internal/probe"
	"labtopo/internal/registry"
)

const usage = `Usage: labtopo [flags] <command> [args]

Commands:
  list                  list all hosts
  get <host_id>         show one host record
  role <role>           list (host_id, address) pairs for a role
  search <regexp>       case-insensitive regex search over host ids
  check                 one-shot TCP reachability pass over all addresses
  roles                 list the known role names

Flags:
  -f <path>             topology file (default ./topology.csv)
  -format <name>        input format: table, yaml, json (default table)
  -o <name>             output format for list/get: table, yaml, json
`

func main() {
	file := flag.String("f", "topology.csv", "topology file")
	format := flag.String("format", "table", "input format: table, yaml, json")
	output := flag.String("o", "table", "output format: table, yaml, json")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if args[0] == "roles" {
		for _, role := range domain.Roles {
			fmt.Printf("%-16s %s\n", role, role.Description())
		}
		return
	}

	reg, err := registry.LoadFile(*file, *format)
	if err != nil {
		fatalf("%v", err)
	}

	switch args[0] {
	case "list":
		printHosts(reg.Hosts(), *output)

	case "get":
		if len(args) < 2 {
			fatalf("get requires a host_id")
		}
		rec, err := reg.Get(args[1])
		if err != nil {
			fatalf("%v", err)
		}
		printHosts([]domain.HostRecord{rec}, *output)

	case "role":
		if len(args) < 2 {
			fatalf("role requires a role name")
		}
		role, err := domain.ParseRole(args[1])
		if err != nil {
			fatalf("%v", err)
		}
		count := 0
		for id, addr := range reg.ListByRole(role) {
			fmt.Printf("%-24s %s\n", id, addr)
			count++
		}
		fmt.Printf("Total: %d hosts\n", count)

	case "search":
		if len(args) < 2 {
			fatalf("search requires a pattern")
		}
		re, err := regexp.Compile("(?i)" + args[1])
		if err != nil {
			fatalf("bad pattern: %v", err)
		}
		printHosts(reg.Search(re), *output)

	case "check":
		runCheck(reg)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

// printHosts renders records as a fixed-width table or defers to a codec.
func printHosts(hosts []domain.HostRecord, format string) {
	if format != "table" {
		exp, err := codec.ExporterFor(format)
		if err != nil {
			fatalf("%v", err)
		}
		if err := exp.Export(&domain.Topology{Hosts: hosts}, os.Stdout); err != nil {
			fatalf("%v", err)
		}
		return
	}

	if len(hosts) == 0 {
		fmt.Println("No hosts found")
		return
	}

	sep := strings.Repeat("=", 72)

	fmt.Println(sep)
	fmt.Printf("%-24s %-18s %s\n", "HOST", "ROLE", "ADDRESS")
	fmt.Println(sep)

	for _, rec := range hosts {
		first := true
		for _, role := range rec.RolesPresent() {
			name := rec.ID
			if !first {
				name = ""
			}
			fmt.Printf("%-24s %-18s %s\n", name, role, rec.Addresses[role])
			first = false
		}
	}

	fmt.Println(sep)
	fmt.Printf("Total: %d hosts\n", len(hosts))
}

// checkRecorder collects observations in memory for the check command.
// The runner records from its worker goroutines, so writes are locked.
type checkRecorder struct {
	mu      sync.Mutex
	results map[string]bool // "host/role" -> reachable
}

func (c *checkRecorder) RecordObservation(_ context.Context, obs *domain.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[obs.HostID+"/"+string(obs.Role)] = obs.Success
	return nil
}

// runCheck performs a one-shot TCP pass and prints a result table.
func runCheck(reg *registry.Registry) {
	rec := &checkRecorder{results: make(map[string]bool)}
	runner := probe.NewRunner(rec, 16, 3*time.Second,
		probe.NewTCPProber(nil, 2*time.Second))

	targets := probe.TargetsFrom(reg)
	fmt.Printf("Checking %d addresses...\n", len(targets))
	runner.Run(context.Background(), targets)

	keys := make([]string, 0, len(rec.results))
	for k := range rec.results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	reachable := 0
	for _, k := range keys {
		state := "unreachable"
		if rec.results[k] {
			state = "reachable"
			reachable++
		}
		fmt.Printf("%-44s %s\n", k, state)
	}
	fmt.Printf("Total: %d/%d reachable\n", reachable, len(keys))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "labtopo: "+format+"\n", args...)
	os.Exit(1)
}
