// Package config holds the engineering tunables that sit outside the
// categorical semantics of the rewriting core: matcher search limits,
// id-minting format, and revision/versioning policy.
package config

import "time"

// Config holds every tunable knob consumed by attrs, graph, match,
// hierarchy, and audit.
type Config struct {
	// Matcher limits (§4.C).
	MaxMatches          int  // stop enumerating after this many matches; 0 = unbounded.
	EnableDegreePruning bool // skip candidates whose degree can't satisfy the pattern.
	EnableSignaturePruning bool // skip candidates whose neighborhood-degree signature can't satisfy the pattern.

	// Id-minting (§4.E, §9): deterministic fresh-id suffix format.
	IDSuffixFormat string // fmt verb applied as base+fmt.Sprintf(IDSuffixFormat, n); default "_%d".

	// Attribute algebra limits (§4.A, §9 open questions).
	MaxFiniteLiftSize int // cap on expanding a bounded IntegerInterval into a Finite/Regex alternation.

	// Revision/versioning policy, generalizing the teacher's VersioningPolicy.
	MaxRevisionsPerBranch int           // 0 = unlimited; oldest commits are never pruned below the root.
	CheckpointEvery       int           // emit a checksum checkpoint every N commits; 0 disables.
	CheckpointInterval    time.Duration // also checkpoint if this much time has elapsed since the last one.
}

// DefaultConfig returns the configuration used when a caller doesn't supply one.
func DefaultConfig() *Config {
	return &Config{
		MaxMatches:             0,
		EnableDegreePruning:    true,
		EnableSignaturePruning: true,
		IDSuffixFormat:         "_%d",
		MaxFiniteLiftSize:      10000,
		MaxRevisionsPerBranch:  0,
		CheckpointEvery:        100,
		CheckpointInterval:     24 * time.Hour,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.MaxMatches < 0 {
		return errValue("MaxMatches must be >= 0")
	}
	if c.MaxFiniteLiftSize <= 0 {
		return errValue("MaxFiniteLiftSize must be > 0")
	}
	if c.MaxRevisionsPerBranch < 0 {
		return errValue("MaxRevisionsPerBranch must be >= 0")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errValue(msg string) error { return configError(msg) }
