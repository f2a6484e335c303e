package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rewrite"
	"github.com/Kappa-Dev/ReGraph/rgerr"
	"github.com/Kappa-Dev/ReGraph/rule"
)

const mainBranch = "main"

// VersionedGraph wraps a single graph.Graph with the branch/commit/rollback
// protocol of spec §4.G.
type VersionedGraph struct {
	cfg    *config.Config
	logger *zap.Logger

	commits      map[CommitID]*Commit
	order        []CommitID
	branchHeads  map[string]CommitID // empty CommitID means "no commit yet, at the root graph"
	branchGraphs map[string]*graph.Graph
	current      string

	rewriteCounts  map[string]int
	lastCheckpoint map[string]time.Time
	checkpoints    map[string][]Checkpoint
}

// NewVersionedGraph starts a fresh revision log on branch "main", rooted at
// a copy of initial.
func NewVersionedGraph(initial *graph.Graph) *VersionedGraph {
	return NewVersionedGraphWithOptions(initial, config.DefaultConfig(), zap.NewNop())
}

func NewVersionedGraphWithOptions(initial *graph.Graph, cfg *config.Config, logger *zap.Logger) *VersionedGraph {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if initial == nil {
		initial = graph.New()
	}
	return &VersionedGraph{
		cfg:            cfg,
		logger:         logger,
		commits:        make(map[CommitID]*Commit),
		branchGraphs:   map[string]*graph.Graph{mainBranch: initial.Copy()},
		branchHeads:    map[string]CommitID{mainBranch: ""},
		current:        mainBranch,
		rewriteCounts:  map[string]int{mainBranch: 0},
		lastCheckpoint: map[string]time.Time{},
		checkpoints:    map[string][]Checkpoint{},
	}
}

// Checkpoints returns every checksum checkpoint recorded so far on branch.
func (v *VersionedGraph) Checkpoints(branch string) []Checkpoint {
	return v.checkpoints[branch]
}

// Graph returns the live graph on the current branch. Callers must not
// mutate it directly; go through Rewrite.
func (v *VersionedGraph) Graph() *graph.Graph {
	return v.branchGraphs[v.current]
}

// CurrentBranch returns the name of the checked-out branch.
func (v *VersionedGraph) CurrentBranch() string {
	return v.current
}

func (v *VersionedGraph) record(c *Commit) {
	c.ID = newCommitID()
	c.Timestamp = time.Now()
	v.commits[c.ID] = c
	v.order = append(v.order, c.ID)
	v.branchHeads[c.Branch] = c.ID
}

// Rewrite applies r at m on the current branch, committing the rewrite and
// its invert keys (spec §4.G "rewrite").
func (v *VersionedGraph) Rewrite(r *rule.Rule, m match.Match, message string) (*rewrite.Result, CommitID, error) {
	if err := checkRevisionCap(v.cfg, v.current, v.rewriteCounts[v.current]); err != nil {
		return nil, "", err
	}
	g := v.branchGraphs[v.current]
	res, c, err := applyRewriteCommit(g, r, m)
	if err != nil {
		return nil, "", err
	}
	c.Branch = v.current
	c.Message = message
	if head := v.branchHeads[v.current]; head != "" {
		c.Parents = []CommitID{head}
	}
	v.record(c)
	v.rewriteCounts[v.current]++
	v.logger.Debug("audit commit: rewrite", zap.String("branch", v.current), zap.String("commit", string(c.ID)))
	v.maybeCheckpoint(v.current, c.ID, g)
	return res, c.ID, nil
}

func (v *VersionedGraph) maybeCheckpoint(branch string, at CommitID, g *graph.Graph) {
	now := time.Now()
	if !dueForCheckpoint(v.cfg, v.rewriteCounts[branch], v.lastCheckpoint[branch], now) {
		return
	}
	cp := Checkpoint{Branch: branch, AtCommit: at, Checksum: checksumGraph(g), Timestamp: now}
	v.checkpoints[branch] = append(v.checkpoints[branch], cp)
	v.lastCheckpoint[branch] = now
	v.logger.Debug("audit checkpoint", zap.String("branch", branch), zap.String("checksum", cp.Checksum))
}

// Branch forks a new branch named name off the current head, with no graph
// change (spec §4.G "branch").
func (v *VersionedGraph) Branch(name string) (CommitID, error) {
	if _, exists := v.branchGraphs[name]; exists {
		return "", rgerr.Audit("branch %q already exists", name)
	}
	v.branchGraphs[name] = v.branchGraphs[v.current].Copy()
	c := &Commit{Kind: KindBranchCreate, Branch: name, SourceBranch: v.current}
	if head := v.branchHeads[v.current]; head != "" {
		c.Parents = []CommitID{head}
	}
	v.record(c)
	v.rewriteCounts[name] = v.rewriteCounts[v.current]
	v.logger.Debug("audit commit: branch", zap.String("from", v.current), zap.String("to", name))
	return c.ID, nil
}

// SwitchBranch repositions the working head onto an existing branch (spec
// §4.G "switch_branch") — each branch keeps its own materialized graph, so
// no replay is needed.
func (v *VersionedGraph) SwitchBranch(name string) error {
	if _, exists := v.branchGraphs[name]; !exists {
		return rgerr.Audit("branch %q not found", name)
	}
	v.current = name
	return nil
}

// commitChainSince walks Parents[0] from head back to (but excluding) the
// root, returning the commits newest-first.
func (v *VersionedGraph) commitChainSince(head CommitID) []*Commit {
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

// MergeWith computes the composed rewrite of other's commits since the
// nearest common ancestor and replays them onto the current branch (spec
// §4.G "merge_with").
func (v *VersionedGraph) MergeWith(other, message string) (CommitID, error) {
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

	// replay oldest-first.
	g := v.branchGraphs[v.current]
	for i := len(toReplay) - 1; i >= 0; i-- {
		c := toReplay[i]
		if c.Kind != KindRewrite {
			continue
		}
		if _, err := rewrite.Apply(g, c.Rule, c.Match); err != nil {
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
// target, newest first, then records a rollback marker (spec §4.G
// "rollback"). History is retained; nothing is deleted.
func (v *VersionedGraph) Rollback(target CommitID) (CommitID, error) {
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

	g := v.branchGraphs[v.current]
	for _, c := range toUndo { // already newest-first
		if c.Kind != KindRewrite {
			continue
		}
		if _, err := rewrite.Apply(g, c.InverseRule, c.InverseMatch); err != nil {
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

// PrintHistory returns every commit in global chronological order (spec
// §4.G "print_history").
func (v *VersionedGraph) PrintHistory() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, historyEntry(v.commits[id]))
	}
	return out
}

// ToJSON renders the same flat history as JSON (spec §4.G "to_json").
func (v *VersionedGraph) ToJSON() ([]byte, error) {
	return json.Marshal(v.PrintHistory())
}
