package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// Checkpoint is a periodic integrity marker over a branch's materialized
// graph, driven by config.Config's CheckpointEvery/CheckpointInterval
// (spec §9 "periodic checksum checkpoints" under revision/versioning
// policy). No library in the retrieval pack offers a domain-specific
// content hash, so this is plain stdlib crypto/sha256 over a canonical,
// sorted rendering of the graph's nodes and edges.
type Checkpoint struct {
	Branch    string
	AtCommit  CommitID
	Checksum  string
	Timestamp time.Time
}

func checksumGraph(g *graph.Graph) string {
	h := sha256.New()
	ids := g.Nodes()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	for _, e := range edges {
		h.Write([]byte(e.From))
		h.Write([]byte("->"))
		h.Write([]byte(e.To))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// checkRevisionCap rejects a new rewrite commit on branch if cfg caps the
// branch's revision count and it has already been reached (spec §9
// "MaxRevisionsPerBranch... oldest commits are never pruned below the
// root" — the cap refuses new growth rather than deleting history).
func checkRevisionCap(cfg *config.Config, branch string, rewriteCount int) error {
	if cfg.MaxRevisionsPerBranch <= 0 {
		return nil
	}
	if rewriteCount >= cfg.MaxRevisionsPerBranch {
		return rgerr.Audit("branch %q has reached its revision cap of %d", branch, cfg.MaxRevisionsPerBranch)
	}
	return nil
}

// dueForCheckpoint reports whether a just-recorded rewrite commit should
// trigger a new Checkpoint, per cfg's CheckpointEvery count or
// CheckpointInterval elapsed time (spec §9), whichever fires first.
func dueForCheckpoint(cfg *config.Config, rewriteCount int, last time.Time, now time.Time) bool {
	if cfg.CheckpointEvery > 0 && rewriteCount%cfg.CheckpointEvery == 0 {
		return true
	}
	if cfg.CheckpointInterval > 0 && !last.IsZero() && now.Sub(last) >= cfg.CheckpointInterval {
		return true
	}
	return false
}
