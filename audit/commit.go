// Package audit implements the append-only revision DAG of spec §4.G over
// both plain graphs and hierarchies: branching, merging, and rollback via
// the algebraic inverse of a rewrite's rule span.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rewrite"
	"github.com/Kappa-Dev/ReGraph/rgerr"
	"github.com/Kappa-Dev/ReGraph/rule"
)

// CommitID identifies one node of the revision DAG.
type CommitID string

// Kind discriminates a commit's payload (spec §4.G).
type Kind string

const (
	KindRewrite        Kind = "rewrite"
	KindBranchCreate   Kind = "branch_create"
	KindMerge          Kind = "merge"
	KindRollbackTarget Kind = "rollback_target"
)

// Commit is one entry of the revision DAG: a rewrite, a branch point, a
// merge, or a rollback marker. Only the fields relevant to Kind are
// populated.
type Commit struct {
	ID        CommitID
	Branch    string
	Parents   []CommitID
	Timestamp time.Time
	Message   string
	Kind      Kind

	// KindRewrite
	GraphID      string // which hierarchy graph this rewrite targeted; empty for a plain VersionedGraph
	Rule         *rule.Rule
	Match        match.Match
	InverseRule  *rule.Rule
	InverseMatch match.Match

	// KindBranchCreate / KindMerge
	SourceBranch string

	// KindRollbackTarget
	RollbackTarget CommitID
}

func newCommitID() CommitID {
	return CommitID(uuid.NewString())
}

// invertRule builds the reverse span R←P→L of r, swapping the roles of L
// and R (spec §4.G "the reverse rule R←P→L and the RHS-match become invert
// keys"). Both legs of the reversed span are already-validated
// homomorphisms of r, so no re-validation is needed.
func invertRule(r *rule.Rule) *rule.Rule {
	return &rule.Rule{L: r.R, P: r.P, R: r.L, Left: r.Right, Right: r.Left}
}

// HistoryEntry is one flat, chronological row of print_history()/to_json()
// (spec §4.G).
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ID        CommitID  `json:"id"`
	Branch    string    `json:"branch"`
	Message   string    `json:"message"`
}

func historyEntry(c *Commit) HistoryEntry {
	return HistoryEntry{Timestamp: c.Timestamp, ID: c.ID, Branch: c.Branch, Message: c.Message}
}

// applyRewriteCommit runs rewrite.Apply and fills in the commit's invert
// keys from the result.
func applyRewriteCommit(g *graph.Graph, r *rule.Rule, m match.Match) (*rewrite.Result, *Commit, error) {
	res, err := rewrite.Apply(g, r, m)
	if err != nil {
		return nil, nil, rgerr.Audit("rewrite failed").WithCause(err)
	}
	c := &Commit{
		Kind:         KindRewrite,
		Rule:         r,
		Match:        m,
		InverseRule:  invertRule(r),
		InverseMatch: res.RHSMatch,
	}
	return res, c, nil
}
