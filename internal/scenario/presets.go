package scenario

import "github.com/routesim/bgpsim/internal/bgpnet"

// ValidPrefixConfig seeds a single origin announcing prefix with no
// adversarial activity — spec §8 scenario 1, grounded on
// original_source's config_028.py/ValidPrefix base scenario.
func ValidPrefixConfig(label string, victim bgpnet.ASN, prefix string) Config {
	return Config{
		Label:        label,
		VictimASNs:   []bgpnet.ASN{victim},
		PropagationRounds: 1,
		PrefixOrder:  []string{prefix},
		Seeds: []Seed{
			{Origin: victim, Ann: bgpnet.Announcement{Prefix: prefix, OriginASN: victim}},
		},
	}
}

// PrefixHijackConfig seeds both a victim and an attacker originating
// the same prefix — spec §8 scenario 2.
func PrefixHijackConfig(label string, victim, attacker bgpnet.ASN, prefix string) Config {
	return Config{
		Label:        label,
		VictimASNs:   []bgpnet.ASN{victim},
		AttackerASNs: []bgpnet.ASN{attacker},
		PropagationRounds: 1,
		PrefixOrder:  []string{prefix},
		Seeds: []Seed{
			{Origin: victim, Ann: bgpnet.Announcement{Prefix: prefix, OriginASN: victim}},
			{Origin: attacker, Ann: bgpnet.Announcement{Prefix: prefix, OriginASN: attacker}},
		},
	}
}

// SubprefixHijackConfig seeds a victim originating the covering prefix
// and an attacker originating a more-specific subprefix — spec §8
// scenario 3. PrefixOrder lists the subprefix first, matching the
// most-specific-first ordering the analyzer's most_specific_ann relies
// on.
func SubprefixHijackConfig(label string, victim, attacker bgpnet.ASN, prefix, subprefix string) Config {
	return Config{
		Label:        label,
		VictimASNs:   []bgpnet.ASN{victim},
		AttackerASNs: []bgpnet.ASN{attacker},
		PropagationRounds: 1,
		PrefixOrder:  []string{subprefix, prefix},
		Seeds: []Seed{
			{Origin: victim, Ann: bgpnet.Announcement{Prefix: prefix, OriginASN: victim}},
			{Origin: attacker, Ann: bgpnet.Announcement{Prefix: subprefix, OriginASN: attacker}},
		},
	}
}

// LoopAttackConfig seeds a crafted announcement whose AS path already
// contains rejector once (spec §8 scenario 4), grounded on
// original_source's config_031.py, which sets
// `vic_ann.as_path = (vic_ann.origin, 1, vic_ann.origin)` directly
// rather than letting normal single-hop seeding build the path — AS 1
// must reject this on the loop check in §4.3 step 2.
func LoopAttackConfig(label string, victim, rejector bgpnet.ASN, prefix string) Config {
	return Config{
		Label:        label,
		VictimASNs:   []bgpnet.ASN{victim},
		PropagationRounds: 1,
		PrefixOrder:  []string{prefix},
		Seeds: []Seed{
			{
				Origin:      victim,
				SkipPrepend: true,
				Ann: bgpnet.Announcement{
					Prefix:           prefix,
					OriginASN:        victim,
					ASPath:           []bgpnet.ASN{victim, rejector, victim},
					RecvRelationship: bgpnet.Origin,
				},
			},
		},
	}
}

// ROVHijackConfig is PrefixHijackConfig with the attacker's
// announcement pre-marked ROA-invalid — spec §8 scenario 6.
func ROVHijackConfig(label string, victim, attacker bgpnet.ASN, prefix string) Config {
	cfg := PrefixHijackConfig(label, victim, attacker, prefix)
	cfg.Seeds[1].Ann.ROAValid = bgpnet.Invalid
	return cfg
}
