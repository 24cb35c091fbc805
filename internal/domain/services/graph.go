package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// maxAncestorDepth bounds the parent-chain walk used to find common ancestors.
const maxAncestorDepth = 10

// NewFamilyLock returns the lock shared by every service working on one
// family graph. Writers take it exclusively, readers take it shared.
func NewFamilyLock() *sync.RWMutex {
	return &sync.RWMutex{}
}

// incidence is one edge seen from one of its ends.
type incidence struct {
	rel   *entities.Relationship
	other int64
}

// Graph is an immutable in-memory snapshot of a family graph. Adjacency
// lists keep relationship id order so every traversal is deterministic.
type Graph struct {
	members map[int64]*entities.Member
	rels    []entities.Relationship
	adj     map[int64][]incidence
}

// NewGraph indexes members and relationships. Edges pointing at unknown
// members are ignored.
func NewGraph(members []entities.Member, rels []entities.Relationship) *Graph {
	g := &Graph{
		members: make(map[int64]*entities.Member, len(members)),
		adj:     make(map[int64][]incidence, len(members)),
	}
	for i := range members {
		g.members[members[i].ID] = &members[i]
	}

	g.rels = make([]entities.Relationship, 0, len(rels))
	for i := range rels {
		if g.members[rels[i].FromID] == nil || g.members[rels[i].ToID] == nil {
			continue
		}
		g.rels = append(g.rels, rels[i])
	}
	sort.SliceStable(g.rels, func(i, j int) bool { return g.rels[i].ID < g.rels[j].ID })

	for i := range g.rels {
		rel := &g.rels[i]
		g.adj[rel.FromID] = append(g.adj[rel.FromID], incidence{rel: rel, other: rel.ToID})
		g.adj[rel.ToID] = append(g.adj[rel.ToID], incidence{rel: rel, other: rel.FromID})
	}
	return g
}

// LoadGraph reads a consistent snapshot of the store.
func LoadGraph(ctx context.Context, store ports.FamilyStore) (*Graph, error) {
	var (
		members []entities.Member
		rels    []entities.Relationship
	)
	err := store.WithTx(ctx, func(tx ports.FamilyStore) error {
		var err error
		if members, err = tx.ListMembers(ctx); err != nil {
			return fmt.Errorf("listing members: %w", err)
		}
		if rels, err = tx.ListRelationships(ctx); err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewGraph(members, rels), nil
}

// Member returns the member with the given id, or nil.
func (g *Graph) Member(id int64) *entities.Member {
	return g.members[id]
}

// Relationships returns every edge in id order.
func (g *Graph) Relationships() []entities.Relationship {
	return g.rels
}

// Between returns the edges joining a and b in either direction.
func (g *Graph) Between(a, b int64) []entities.Relationship {
	var out []entities.Relationship
	for _, inc := range g.adj[a] {
		if inc.other == b {
			out = append(out, *inc.rel)
		}
	}
	return out
}

// Parents returns the ids named by the member's father and mother edges.
func (g *Graph) Parents(id int64) []int64 {
	var out []int64
	for _, inc := range g.adj[id] {
		if inc.rel.FromID == id && inc.rel.Type.IsParent() {
			out = append(out, inc.rel.ToID)
		}
	}
	return out
}

// Ancestors walks parent edges breadth-first and returns every ancestor
// with the number of generations separating it from id.
func (g *Graph) Ancestors(id int64, maxDepth int) map[int64]int {
	depth := make(map[int64]int)
	frontier := []int64{id}
	for d := 1; d <= maxDepth && len(frontier) > 0; d++ {
		var next []int64
		for _, cur := range frontier {
			for _, p := range g.Parents(cur) {
				if _, seen := depth[p]; seen || p == id {
					continue
				}
				depth[p] = d
				next = append(next, p)
			}
		}
		frontier = next
	}
	return depth
}

// Distances returns the unweighted hop count from id to every reachable
// member over all relationship kinds.
func (g *Graph) Distances(id int64) map[int64]int {
	dist := map[int64]int{id: 0}
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, inc := range g.adj[cur] {
			if _, seen := dist[inc.other]; seen {
				continue
			}
			dist[inc.other] = dist[cur] + 1
			queue = append(queue, inc.other)
		}
	}
	return dist
}

// PathStep is one hop of a path, walked from From to To over Rel.
// Reversed is set when Rel is stored in the opposite direction.
type PathStep struct {
	From     int64
	To       int64
	Rel      entities.Relationship
	Reversed bool
}

// ShortestPath returns a fewest-hop path from a to b, or nil when the
// two are not connected. Ties resolve to the earliest relationship ids.
func (g *Graph) ShortestPath(a, b int64) []PathStep {
	if g.members[a] == nil || g.members[b] == nil {
		return nil
	}
	if a == b {
		return []PathStep{}
	}

	prev := map[int64]*incidence{a: nil}
	queue := []int64{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := range g.adj[cur] {
			inc := &g.adj[cur][i]
			if _, seen := prev[inc.other]; seen {
				continue
			}
			prev[inc.other] = inc
			if inc.other == b {
				return g.unwind(prev, a, b)
			}
			queue = append(queue, inc.other)
		}
	}
	return nil
}

func (g *Graph) unwind(prev map[int64]*incidence, a, b int64) []PathStep {
	var steps []PathStep
	for cur := b; cur != a; {
		inc := prev[cur]
		from := inc.rel.Other(cur)
		steps = append(steps, PathStep{
			From:     from,
			To:       cur,
			Rel:      *inc.rel,
			Reversed: inc.rel.FromID != from,
		})
		cur = from
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// CanonicalPath computes the shortest path from the lower id to the
// higher one and orients it from a to b, so the same pair always yields
// the same hops regardless of argument order.
func (g *Graph) CanonicalPath(a, b int64) []PathStep {
	if a <= b {
		return g.ShortestPath(a, b)
	}
	return reversePath(g.ShortestPath(b, a))
}

func reversePath(steps []PathStep) []PathStep {
	if steps == nil {
		return nil
	}
	out := make([]PathStep, len(steps))
	for i, s := range steps {
		out[len(steps)-1-i] = PathStep{
			From:     s.To,
			To:       s.From,
			Rel:      s.Rel,
			Reversed: !s.Reversed,
		}
	}
	return out
}

// StepCode returns what To is to From for a step. ok is false when the
// stored code has no gendered inverse, which only happens when a parent
// edge is walked backwards.
func (g *Graph) StepCode(s PathStep) (entities.RelationCode, bool) {
	if !s.Reversed {
		return s.Rel.Type, true
	}
	return s.Rel.Type.Reciprocal(g.members[s.To].Gender)
}

// StepLabel returns the Chinese term describing To from From's side.
func (g *Graph) StepLabel(s PathStep) string {
	if code, ok := g.StepCode(s); ok {
		return code.Description()
	}
	return s.Rel.Type.ReverseDescription()
}
