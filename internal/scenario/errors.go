package scenario

// ConfigError reports a scenario misconfiguration caught before
// propagation starts (spec §7): overlapping attacker/victim sets,
// ASNs absent from the graph, or num_attackers/num_victims exceeding
// the graph's stub/multihomed AS count. Always fatal to the trial —
// never recoverable.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string { return "scenario: config error: " + e.Detail }
