package topology

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/routesim/bgpsim/internal/bgpnet"
)

// LoadCAIDA reads a CAIDA serial-2-style AS-relationship file: one
// `asn1|asn2|relationship` record per line, `#`-prefixed comment lines
// ignored, relationship -1 meaning asn1 is a provider of asn2 and 0
// meaning a settlement-free peering between asn1 and asn2. This is a
// deliberately small reader for the two relationship codes the engine
// actually consumes — full CAIDA ingestion (IXP records, geolocation,
// multi-lateral peering facilities) is out of scope (spec §1).
func LoadCAIDA(r io.Reader) (*Graph, error) {
	g := NewGraph()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			return nil, fmt.Errorf("topology: line %d: expected at least 3 fields, got %d", lineNo, len(fields))
		}
		asnA, err := parseASN(fields[0])
		if err != nil {
			return nil, fmt.Errorf("topology: line %d: %w", lineNo, err)
		}
		asnB, err := parseASN(fields[1])
		if err != nil {
			return nil, fmt.Errorf("topology: line %d: %w", lineNo, err)
		}
		rel, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("topology: line %d: relationship code: %w", lineNo, err)
		}

		switch rel {
		case -1:
			g.AddCustomerProvider(asnA, asnB)
		case 0:
			g.AddPeer(asnA, asnB)
		default:
			return nil, fmt.Errorf("topology: line %d: unknown relationship code %d", lineNo, rel)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("topology: scanning input: %w", err)
	}

	g.ComputeCustomerCones()
	return g, nil
}

func parseASN(s string) (bgpnet.ASN, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ASN %q: %w", s, err)
	}
	return bgpnet.ASN(n), nil
}
