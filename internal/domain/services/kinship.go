package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// KinshipService answers how two members of a family are related.
type KinshipService struct {
	store ports.FamilyStore
	lock  *sync.RWMutex
}

// NewKinshipService creates a new KinshipService.
func NewKinshipService(store ports.FamilyStore, lock *sync.RWMutex) *KinshipService {
	return &KinshipService{
		store: store,
		lock:  lock,
	}
}

// FindKinship resolves the relationship between members a and b. Unknown
// members and unrelated pairs are reported in the result, not as errors.
// When the store fails the result carries the failure description and the
// error is returned alongside it.
func (s *KinshipService) FindKinship(ctx context.Context, a, b int64) (*entities.KinshipResult, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	g, err := LoadGraph(ctx, s.store)
	if err != nil {
		return &entities.KinshipResult{
			Description: entities.KinshipQueryFailed + err.Error(),
			PathNodes:   []entities.PathNode{},
			PathEdges:   []entities.PathEdge{},
		}, fmt.Errorf("loading family graph: %w", err)
	}
	return g.Kinship(a, b), nil
}

// Kinship resolves a and b against the snapshot. Resolution tries, in
// order: identity, a direct edge, a common ancestor, any connecting path.
func (g *Graph) Kinship(a, b int64) *entities.KinshipResult {
	result := &entities.KinshipResult{
		PathNodes: []entities.PathNode{},
		PathEdges: []entities.PathEdge{},
	}

	ma, mb := g.members[a], g.members[b]
	if ma == nil || mb == nil {
		result.Description = entities.KinshipMemberMissing
		return result
	}

	if a == b {
		result.Related = true
		result.Description = entities.KinshipSelf
		result.PathNodes = []entities.PathNode{pathNode(ma)}
		result.Coefficient = 1
		return result
	}

	if direct := g.directStep(a, b); direct != nil {
		g.fillPath(result, []PathStep{*direct})
		result.Related = true
		result.Description = entities.KinshipDirectPrefix + refine(g.StepLabel(*direct), mb.Gender == entities.Female, false)
		return result
	}

	path := g.CanonicalPath(a, b)
	if path == nil {
		result.Description = entities.KinshipUnrelated
		return result
	}
	g.fillPath(result, path)
	result.Related = true
	precise := g.PreciseTerm(path)

	if ancestor, gapA, gapB, count := g.commonAncestor(a, b); count > 0 {
		result.CommonAncestorCount = count
		if ancestor != 0 {
			id := ancestor
			result.CommonAncestorID = &id
			result.Coarse = coarseTerm(gapA, gapB, ma.Generation == mb.Generation)
		} else {
			result.Coarse = "远亲"
		}
		result.Description = result.Coarse
		if precise != "" {
			result.Description = precise
		}
		return result
	}

	result.Description = entities.KinshipSomeChain
	if precise != "" {
		result.Description = precise
	}
	return result
}

// directStep returns a one-hop step from a to b, preferring an edge
// stored in that direction.
func (g *Graph) directStep(a, b int64) *PathStep {
	edges := g.Between(a, b)
	if len(edges) == 0 {
		return nil
	}
	for _, rel := range edges {
		if rel.FromID == a {
			return &PathStep{From: a, To: b, Rel: rel}
		}
	}
	return &PathStep{From: a, To: b, Rel: edges[0], Reversed: true}
}

// commonAncestor intersects the parent-chain ancestors of a and b and
// picks the one closest to both by overall graph distance, breaking ties
// by lower id. It returns the generation gaps from each side and the size
// of the intersection. The chosen id is 0 when no shared ancestor is
// reachable from both sides.
func (g *Graph) commonAncestor(a, b int64) (best int64, gapA, gapB, count int) {
	ancA := g.Ancestors(a, maxAncestorDepth)
	ancB := g.Ancestors(b, maxAncestorDepth)

	var common []int64
	for id := range ancA {
		if _, ok := ancB[id]; ok {
			common = append(common, id)
		}
	}
	if len(common) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	distA, distB := g.Distances(a), g.Distances(b)
	bestSum := math.MaxInt
	for _, id := range common {
		da, okA := distA[id]
		db, okB := distB[id]
		if !okA || !okB || da == 0 || db == 0 {
			continue
		}
		if da+db < bestSum {
			best, bestSum = id, da+db
		}
	}
	if best == 0 {
		return 0, 0, 0, len(common)
	}
	return best, ancA[best], ancB[best], len(common)
}

func (g *Graph) fillPath(result *entities.KinshipResult, steps []PathStep) {
	result.PathNodes = make([]entities.PathNode, 0, len(steps)+1)
	result.PathEdges = make([]entities.PathEdge, 0, len(steps))
	result.PathNodes = append(result.PathNodes, pathNode(g.members[steps[0].From]))
	for _, s := range steps {
		result.PathNodes = append(result.PathNodes, pathNode(g.members[s.To]))
		result.PathEdges = append(result.PathEdges, entities.PathEdge{
			FromID:         s.From,
			ToID:           s.To,
			RelationType:   s.Rel.Type,
			RelationshipID: s.Rel.ID,
			Reversed:       s.Reversed,
			Description:    g.StepLabel(s),
		})
	}
	result.Coefficient = math.Pow(0.5, float64(len(steps)))
}

func pathNode(m *entities.Member) entities.PathNode {
	return entities.PathNode{
		ID:         m.ID,
		Name:       m.Name,
		Gender:     m.Gender,
		Generation: m.Generation,
	}
}
