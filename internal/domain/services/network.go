package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// NetworkService builds the local kinship subgraph around a member.
type NetworkService struct {
	store ports.FamilyStore
	lock  *sync.RWMutex
}

// NewNetworkService creates a new NetworkService.
func NewNetworkService(store ports.FamilyStore, lock *sync.RWMutex) *NetworkService {
	return &NetworkService{
		store: store,
		lock:  lock,
	}
}

// BuildNetwork expands blood relatives of the center one hop per layer,
// up to generations layers, admitting only neighbours within one
// generation of the member they are reached from. Spouses of every blood
// node are attached at their partner's level and expanded only once a
// blood edge reaches them.
func (s *NetworkService) BuildNetwork(ctx context.Context, centerID int64, generations int) (*entities.Network, error) {
	if generations < entities.MinNetworkGenerations || generations > entities.MaxNetworkGenerations {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", entities.ErrInvalidGenerations,
			generations, entities.MinNetworkGenerations, entities.MaxNetworkGenerations)
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	g, err := LoadGraph(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("loading family graph: %w", err)
	}
	return g.Network(centerID, generations)
}

// Network builds the subgraph from the snapshot.
func (g *Graph) Network(centerID int64, generations int) (*entities.Network, error) {
	center := g.members[centerID]
	if center == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrMemberNotFound, centerID)
	}

	levels := map[int64]int{centerID: 0}
	blood := map[int64]bool{centerID: true}
	frontier := []int64{centerID}

	for layer := 1; layer <= generations && len(frontier) > 0; layer++ {
		var next []int64
		for _, id := range frontier {
			cur := g.members[id]
			for _, inc := range g.adj[id] {
				if !inc.rel.Type.IsBlood() {
					continue
				}
				if blood[inc.other] {
					continue
				}
				nb := g.members[inc.other]
				if abs(nb.Generation-cur.Generation) > 1 {
					continue
				}
				// A spouse reached again by blood keeps the level it was
				// attached at and is expanded from here on.
				if level, seen := levels[nb.ID]; !seen || layer < level {
					levels[nb.ID] = layer
				}
				blood[nb.ID] = true
				next = append(next, nb.ID)
			}
		}
		g.attachSpouses(levels, blood)
		frontier = next
	}

	network := &entities.Network{
		CenterID:         centerID,
		Generations:      generations,
		CenterGeneration: center.Generation,
		Nodes:            make([]entities.NetworkNode, 0, len(levels)),
		Edges:            []entities.NetworkEdge{},
	}

	ids := make([]int64, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		m := g.members[id]
		network.Nodes = append(network.Nodes, entities.NetworkNode{
			ID:         m.ID,
			Name:       m.Name,
			Gender:     m.Gender,
			Generation: m.Generation,
			Level:      levels[id],
		})
	}

	type pair struct{ lo, hi int64 }
	groups := make(map[pair][]entities.Relationship)
	var order []pair
	raw := 0
	for _, rel := range g.rels {
		if _, ok := levels[rel.FromID]; !ok {
			continue
		}
		if _, ok := levels[rel.ToID]; !ok {
			continue
		}
		raw++
		k := pair{min(rel.FromID, rel.ToID), max(rel.FromID, rel.ToID)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rel)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].lo != order[j].lo {
			return order[i].lo < order[j].lo
		}
		return order[i].hi < order[j].hi
	})

	for _, k := range order {
		rels := groups[k]
		network.Edges = append(network.Edges, entities.NetworkEdge{
			FromID:       k.lo,
			ToID:         k.hi,
			RelationType: rels[0].Type,
			Description:  g.mergedLabel(rels),
			EdgeType:     edgeType(rels[0].Type),
			RawCount:     len(rels),
		})
	}
	network.HiddenCount = raw - len(network.Edges)
	return network, nil
}

// attachSpouses adds the spouse of every blood node at its partner's level.
func (g *Graph) attachSpouses(levels map[int64]int, blood map[int64]bool) {
	for _, rel := range g.rels {
		if !rel.Type.IsMarriage() {
			continue
		}
		for _, end := range [2][2]int64{{rel.FromID, rel.ToID}, {rel.ToID, rel.FromID}} {
			partner, spouse := end[0], end[1]
			if !blood[partner] {
				continue
			}
			if _, seen := levels[spouse]; !seen {
				levels[spouse] = levels[partner]
			}
		}
	}
}

func edgeType(code entities.RelationCode) string {
	switch {
	case code.IsMarriage():
		return entities.EdgeMarriage
	case code.IsInLaw():
		return entities.EdgeInLaw
	}
	return entities.EdgeBlood
}

// mergedLabel names the tie between one pair of members from all raw
// edges joining them.
func (g *Graph) mergedLabel(rels []entities.Relationship) string {
	has := make(map[entities.RelationCode]bool, len(rels))
	for _, rel := range rels {
		has[rel.Type] = true
	}

	for _, rel := range rels {
		if rel.Type.IsMarriage() {
			return "夫妻"
		}
	}

	for _, rel := range rels {
		var child, parent *entities.Member
		switch {
		case rel.Type.IsParent():
			child, parent = g.members[rel.FromID], g.members[rel.ToID]
		case rel.Type.IsChild():
			parent, child = g.members[rel.FromID], g.members[rel.ToID]
		default:
			continue
		}
		return pick(parent.Gender == entities.Female, "父", "母") + pick(child.Gender == entities.Female, "子", "女")
	}

	for _, rel := range rels {
		if !rel.Type.IsSibling() {
			continue
		}
		a, b := g.members[rel.FromID], g.members[rel.ToID]
		switch {
		case a.IsMale() && b.IsMale():
			return "兄弟"
		case !a.IsMale() && !b.IsMale():
			return "姐妹"
		}
		// Mixed pair: the stored code tells which end is the elder.
		elder := b
		if rel.Type == entities.YoungerBrother || rel.Type == entities.YoungerSister {
			elder = a
		}
		if elder.IsMale() {
			return "兄妹"
		}
		return "姐弟"
	}

	switch {
	case has[entities.FatherInLaw] && has[entities.SonInLaw]:
		return "岳父/女婿"
	case has[entities.MotherInLaw] && has[entities.SonInLaw]:
		return "岳母/女婿"
	case has[entities.HusbandsFather] && has[entities.DaughterInLaw]:
		return "公公/儿媳"
	case has[entities.HusbandsMother] && has[entities.DaughterInLaw]:
		return "婆婆/儿媳"
	}

	for _, rel := range rels {
		if rel.Type.IsGrandparent() || rel.Type.IsGrandchild() {
			return line(rel.Type.IsMaternal(), "祖孙", "外祖孙")
		}
	}

	return rels[0].Type.Description()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
