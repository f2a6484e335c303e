package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/hierarchy"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rgerr"
	"github.com/Kappa-Dev/ReGraph/rule"
)

// VersionedHierarchy wraps a hierarchy.Hierarchy with the same
// branch/commit/rollback protocol as VersionedGraph (spec §4.G), recording
// which named graph within the hierarchy each rewrite targeted.
type VersionedHierarchy struct {
	cfg    *config.Config
	logger *zap.Logger

	commits         map[CommitID]*Commit
	order           []CommitID
	branchHeads     map[string]CommitID
	branchHierarchy map[string]*hierarchy.Hierarchy
	current         string

	rewriteCounts  map[string]int
	lastCheckpoint map[string]time.Time
	checkpoints    map[string][]Checkpoint
}

// NewVersionedHierarchy starts a fresh revision log on branch "main",
// rooted at a copy of initial.
func NewVersionedHierarchy(initial *hierarchy.Hierarchy) *VersionedHierarchy {
	return NewVersionedHierarchyWithOptions(initial, config.DefaultConfig(), zap.NewNop())
}

func NewVersionedHierarchyWithOptions(initial *hierarchy.Hierarchy, cfg *config.Config, logger *zap.Logger) *VersionedHierarchy {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if initial == nil {
		initial = hierarchy.New()
	}
	return &VersionedHierarchy{
		cfg:             cfg,
		logger:          logger,
		commits:         make(map[CommitID]*Commit),
		branchHierarchy: map[string]*hierarchy.Hierarchy{mainBranch: initial.Copy()},
		branchHeads:     map[string]CommitID{mainBranch: ""},
		current:         mainBranch,
		rewriteCounts:   map[string]int{mainBranch: 0},
		lastCheckpoint:  map[string]time.Time{},
		checkpoints:     map[string][]Checkpoint{},
	}
}

// Checkpoints returns every checksum checkpoint recorded so far on branch.
func (v *VersionedHierarchy) Checkpoints(branch string) []Checkpoint {
	return v.checkpoints[branch]
}

// Hierarchy returns the live hierarchy on the current branch.
func (v *VersionedHierarchy) Hierarchy() *hierarchy.Hierarchy {
	return v.branchHierarchy[v.current]
}

func (v *VersionedHierarchy) CurrentBranch() string {
	return v.current
}

func (v *VersionedHierarchy) record(c *Commit) {
	c.ID = newCommitID()
	c.Timestamp = time.Now()
	v.commits[c.ID] = c
	v.order = append(v.order, c.ID)
	v.branchHeads[c.Branch] = c.ID
}

// Rewrite applies r at m to the named graph within the current branch's
// hierarchy, with propagation, committing the rewrite and its invert keys.
func (v *VersionedHierarchy) Rewrite(graphID string, r *rule.Rule, m match.Match, pTyping, rhsTyping hierarchy.TypingAssignment, strict bool, message string) (*hierarchy.RewriteReport, CommitID, error) {
	if err := checkRevisionCap(v.cfg, v.current, v.rewriteCounts[v.current]); err != nil {
		return nil, "", err
	}
	h := v.branchHierarchy[v.current]
	report, err := h.Rewrite(graphID, r, m, pTyping, rhsTyping, strict)
	if err != nil {
		return nil, "", rgerr.Audit("rewrite failed on graph %q", graphID).WithCause(err)
	}
	c := &Commit{
		Kind:         KindRewrite,
		Branch:       v.current,
		GraphID:      graphID,
		Rule:         r,
		Match:        m,
		InverseRule:  invertRule(r),
		InverseMatch: report.Result.RHSMatch,
		Message:      message,
	}
	if head := v.branchHeads[v.current]; head != "" {
		c.Parents = []CommitID{head}
	}
	v.record(c)
	v.rewriteCounts[v.current]++
	v.logger.Debug("audit commit: hierarchy rewrite", zap.String("branch", v.current), zap.String("graph", graphID), zap.String("commit", string(c.ID)))
	if g, gerr := h.Graph(graphID); gerr == nil {
		v.maybeCheckpoint(v.current, c.ID, g)
	}
	return report, c.ID, nil
}

func (v *VersionedHierarchy) maybeCheckpoint(branch string, at CommitID, g *graph.Graph) {
	now := time.Now()
	if !dueForCheckpoint(v.cfg, v.rewriteCounts[branch], v.lastCheckpoint[branch], now) {
		return
	}
	cp := Checkpoint{Branch: branch, AtCommit: at, Checksum: checksumGraph(g), Timestamp: now}
	v.checkpoints[branch] = append(v.checkpoints[branch], cp)
	v.lastCheckpoint[branch] = now
	v.logger.Debug("audit checkpoint", zap.String("branch", branch), zap.String("checksum", cp.Checksum))
}

// Branch forks a new branch off the current head, with no graph change.
func (v *VersionedHierarchy) Branch(name string) (CommitID, error) {
	if _, exists := v.branchHierarchy[name]; exists {
		return "", rgerr.Audit("branch %q already exists", name)
	}
	v.branchHierarchy[name] = v.branchHierarchy[v.current].Copy()
	c := &Commit{Kind: KindBranchCreate, Branch: name, SourceBranch: v.current}
	if head := v.branchHeads[v.current]; head != "" {
		c.Parents = []CommitID{head}
	}
	v.record(c)
	v.rewriteCounts[name] = v.rewriteCounts[v.current]
	v.logger.Debug("audit commit: branch", zap.String("from", v.current), zap.String("to", name))
	return c.ID, nil
}

// SwitchBranch repositions the working head onto an existing branch.
func (v *VersionedHierarchy) SwitchBranch(name string) error {
	if _, exists := v.branchHierarchy[name]; !exists {
		return rgerr.Audit("branch %q not found", name)
	}
	v.current = name
	return nil
}

func (v *VersionedHierarchy) commitChainSince(head CommitID) []*Commit {
	var chain []*Commit
	for head != "" {
		c, ok := v.commits[head]
		if !ok {
			break
		}
		chain = append(chain, c)
		if len(c.Parents) == 0 {
			break
		}
		head = c.Parents[0]
	}
	return chain
}

// MergeWith replays other's rewrite commits since the nearest common
// ancestor onto the current branch's hierarchy.
func (v *VersionedHierarchy) MergeWith(other, message string) (CommitID, error) {
	otherHead, ok := v.branchHeads[other]
	if !ok {
		return "", rgerr.Audit("branch %q not found", other)
	}
	currentHead := v.branchHeads[v.current]

	ancestorsOfCurrent := map[CommitID]struct{}{"": {}}
	for _, c := range v.commitChainSince(currentHead) {
		ancestorsOfCurrent[c.ID] = struct{}{}
	}

	// otherChain is newest-first; every chain terminates at the shared
	// virtual root "", so walking it to the first commit already visited
	// from the current branch always finds a common ancestor.
	otherChain := v.commitChainSince(otherHead)
	var toReplay []*Commit
	for _, c := range otherChain {
		if _, isCommon := ancestorsOfCurrent[c.ID]; isCommon {
			break
		}
		toReplay = append(toReplay, c)
	}

	h := v.branchHierarchy[v.current]
	for i := len(toReplay) - 1; i >= 0; i-- {
		c := toReplay[i]
		if c.Kind != KindRewrite {
			continue
		}
		if _, err := h.Rewrite(c.GraphID, c.Rule, c.Match, nil, nil, false); err != nil {
			return "", rgerr.Audit("merge conflict replaying commit %q from %q", c.ID, other).WithCause(err)
		}
	}

	merge := &Commit{
		Kind:         KindMerge,
		Branch:       v.current,
		SourceBranch: other,
		Message:      message,
		Parents:      []CommitID{currentHead, otherHead},
	}
	v.record(merge)
	v.logger.Debug("audit commit: merge", zap.String("into", v.current), zap.String("from", other))
	return merge.ID, nil
}

// Rollback inverts every rewrite commit between the current head and
// target, newest first, then records a rollback marker.
func (v *VersionedHierarchy) Rollback(target CommitID) (CommitID, error) {
	head := v.branchHeads[v.current]
	chain := v.commitChainSince(head)

	reachable := false
	var toUndo []*Commit
	for _, c := range chain {
		if c.ID == target {
			reachable = true
			break
		}
		toUndo = append(toUndo, c)
	}
	if !reachable && target != "" {
		return "", rgerr.Audit("rollback target %q unreachable from branch %q", target, v.current)
	}

	h := v.branchHierarchy[v.current]
	for _, c := range toUndo {
		if c.Kind != KindRewrite {
			continue
		}
		if _, err := h.Rewrite(c.GraphID, c.InverseRule, c.InverseMatch, nil, nil, false); err != nil {
			return "", rgerr.Audit("rollback failed inverting commit %q", c.ID).WithCause(err)
		}
	}

	marker := &Commit{
		Kind:           KindRollbackTarget,
		Branch:         v.current,
		RollbackTarget: target,
		Parents:        []CommitID{head},
	}
	v.record(marker)
	v.logger.Debug("audit commit: rollback", zap.String("branch", v.current), zap.String("target", string(target)))
	return marker.ID, nil
}

// PrintHistory returns every commit in global chronological order.
func (v *VersionedHierarchy) PrintHistory() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, historyEntry(v.commits[id]))
	}
	return out
}

// ToJSON renders the same flat history as JSON.
func (v *VersionedHierarchy) ToJSON() ([]byte, error) {
	return json.Marshal(v.PrintHistory())
}
