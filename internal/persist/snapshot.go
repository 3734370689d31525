// Package persist implements engine-state snapshotting (spec §6): a
// YAML+zstd round-trip that preserves every Announcement field
// bit-exactly, and an optional Postgres-backed trial-outcome store for
// longer campaigns.
package persist

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/topology"
)

// Snapshot is the serializable form of a converged (or in-progress)
// topology.Graph: every AS's Local RIB contents, keyed by ASN then
// prefix, plus each AS's assigned policy/SAV class name for
// provenance. It deliberately does not capture Adj-RIBs-In/SendQueue
// state — those are BGP-Full implementation detail the spec does not
// require snapshots to reproduce (§6).
type Snapshot struct {
	ASes []ASSnapshot `yaml:"ases"`
}

// ASSnapshot is one AS's Local RIB at snapshot time.
type ASSnapshot struct {
	ASN       bgpnet.ASN               `yaml:"asn"`
	PolicyName string                  `yaml:"policy_name"`
	SAVName    string                  `yaml:"sav_name"`
	Routes     []bgpnet.Announcement   `yaml:"routes"`
}

// policyNamer matches any value with a Name() method; Capture uses it
// to read the SAV validator's name.
type policyNamer interface{ Name() string }

// Capture builds a Snapshot from the current state of g. names maps
// each ASN to the policy class name assigned by the scenario, since
// policy.Policy has no Name() method (policy implementations are
// anonymous function-constructed classes per spec §9, so the scenario
// is the only place that still knows the string name). The SAV name is
// read from each AS's validator.
func Capture(g *topology.Graph, names map[bgpnet.ASN]string) Snapshot {
	snap := Snapshot{ASes: make([]ASSnapshot, 0, len(g.AsDict))}
	for asn, a := range g.AsDict {
		s := ASSnapshot{ASN: asn, PolicyName: names[asn]}
		if named, ok := a.SAV.(policyNamer); ok {
			s.SAVName = named.Name()
		}
		for _, prefix := range a.Policy.LocalRIB().Prefixes() {
			ann, ok := a.Policy.LocalRIB().Get(prefix)
			if !ok {
				continue
			}
			s.Routes = append(s.Routes, ann)
		}
		snap.ASes = append(snap.ASes, s)
	}
	return snap
}

// Write marshals snap to YAML and zstd-compresses it onto w.
func Write(w io.Writer, snap Snapshot) error {
	raw, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return fmt.Errorf("writing compressed snapshot: %w", err)
	}
	return enc.Close()
}

// Read decompresses and unmarshals a Snapshot written by Write.
func Read(r io.Reader) (Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return Snapshot{}, fmt.Errorf("decompressing snapshot: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(buf.Bytes(), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return snap, nil
}
