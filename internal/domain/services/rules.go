package services

import (
	"context"
	"fmt"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// rule validates one accepted input code and derives the edges that
// follow from it.
type rule struct {
	validate func(code entities.RelationCode, from, to *entities.Member) error
	derive   func(ctx context.Context, d *deriver, from, to *entities.Member, code entities.RelationCode) error
}

var rules = buildRules()

func buildRules() map[entities.RelationCode]rule {
	r := make(map[entities.RelationCode]rule)
	for _, c := range []entities.RelationCode{entities.Husband, entities.Wife} {
		r[c] = rule{validate: validateSpouse, derive: deriveSpouse}
	}
	for c := entities.EldestSon; c <= entities.YoungestDaughter; c++ {
		r[c] = rule{validate: validateChild, derive: deriveChild}
	}
	for c := entities.ElderMaleCousin; c <= entities.YoungerFemaleCousin; c++ {
		r[c] = rule{validate: validateCousin, derive: deriveCousin}
	}
	return r
}

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entities.ErrRejected, fmt.Sprintf(format, args...))
}

func validateSpouse(code entities.RelationCode, from, to *entities.Member) error {
	wantFrom := entities.Female
	if code == entities.Wife {
		wantFrom = entities.Male
	}
	if from.Gender != wantFrom || to.Gender != code.Gender() {
		return rejectf("%s requires a %s member naming a %s spouse", code.English(), wantFrom, code.Gender())
	}
	if from.Generation != to.Generation {
		return rejectf("spouses must share a generation (%d vs %d)", from.Generation, to.Generation)
	}
	return nil
}

func validateChild(code entities.RelationCode, from, to *entities.Member) error {
	if to.Gender != code.Gender() {
		return rejectf("%s must be %s", code.English(), code.Gender())
	}
	if to.Generation != from.Generation+1 {
		return rejectf("a child must be exactly one generation below its parent (%d vs %d)", to.Generation, from.Generation)
	}
	return nil
}

func validateCousin(code entities.RelationCode, from, to *entities.Member) error {
	if to.Gender != code.Gender() {
		return rejectf("%s must be %s", code.English(), code.Gender())
	}
	if from.Generation != to.Generation {
		return rejectf("cousins must share a generation (%d vs %d)", from.Generation, to.Generation)
	}
	return nil
}

// deriver writes derived edges through a transaction-bound store and
// counts the rows it actually adds.
type deriver struct {
	store   ports.FamilyStore
	members map[int64]*entities.Member
	written int
}

func newDeriver(store ports.FamilyStore) *deriver {
	return &deriver{store: store, members: make(map[int64]*entities.Member)}
}

func (d *deriver) member(ctx context.Context, id int64) (*entities.Member, error) {
	if m, ok := d.members[id]; ok {
		return m, nil
	}
	m, err := d.store.FindMemberByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding member %d: %w", id, err)
	}
	d.members[id] = m
	return m, nil
}

func (d *deriver) link(ctx context.Context, from, to int64, code entities.RelationCode) error {
	if from == to {
		return nil
	}
	inserted, err := d.store.InsertRelationship(ctx, &entities.Relationship{FromID: from, ToID: to, Type: code})
	if err != nil {
		return fmt.Errorf("inserting %d -> %d %s: %w", from, to, code, err)
	}
	if inserted {
		d.written++
	}
	return nil
}

// counterpart returns the member at the other end of the first
// (id, ?, code) edge, or nil.
func (d *deriver) counterpart(ctx context.Context, id int64, code entities.RelationCode) (*entities.Member, error) {
	otherID, ok, err := d.store.FindCounterpart(ctx, id, code)
	if err != nil {
		return nil, fmt.Errorf("finding %s of %d: %w", code.English(), id, err)
	}
	if !ok {
		return nil, nil
	}
	return d.member(ctx, otherID)
}

func (d *deriver) spouse(ctx context.Context, m *entities.Member) (*entities.Member, error) {
	if m.IsMale() {
		return d.counterpart(ctx, m.ID, entities.Wife)
	}
	return d.counterpart(ctx, m.ID, entities.Husband)
}

// related lists the members reached from id over edges accepted by keep,
// in edge order and without repeats.
func (d *deriver) related(ctx context.Context, id int64, keep func(entities.RelationCode) bool) ([]*entities.Member, error) {
	rels, err := d.store.FindRelationshipsFrom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing relationships of %d: %w", id, err)
	}
	seen := make(map[int64]bool)
	var out []*entities.Member
	for i := range rels {
		if !keep(rels[i].Type) || seen[rels[i].ToID] {
			continue
		}
		seen[rels[i].ToID] = true
		m, err := d.member(ctx, rels[i].ToID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *deriver) parents(ctx context.Context, id int64) ([]*entities.Member, error) {
	return d.related(ctx, id, entities.RelationCode.IsParent)
}

func (d *deriver) children(ctx context.Context, id int64) ([]*entities.Member, error) {
	return d.related(ctx, id, entities.RelationCode.IsChild)
}

func gendered(m *entities.Member, male, female entities.RelationCode) entities.RelationCode {
	if m.IsMale() {
		return male
	}
	return female
}

func parentCode(parent *entities.Member) entities.RelationCode {
	return gendered(parent, entities.Father, entities.Mother)
}

// deriveSpouse records the reciprocal marriage edge and links each spouse
// to the other's parents as in-laws.
func deriveSpouse(ctx context.Context, d *deriver, from, to *entities.Member, code entities.RelationCode) error {
	reciprocal, _ := code.Reciprocal(from.Gender)
	if err := d.link(ctx, to.ID, from.ID, reciprocal); err != nil {
		return err
	}

	husband, wife := from, to
	if code == entities.Husband {
		husband, wife = to, from
	}

	husbandParents, err := d.parents(ctx, husband.ID)
	if err != nil {
		return err
	}
	for _, p := range husbandParents {
		if err := d.link(ctx, wife.ID, p.ID, gendered(p, entities.HusbandsFather, entities.HusbandsMother)); err != nil {
			return err
		}
		if err := d.link(ctx, p.ID, wife.ID, entities.DaughterInLaw); err != nil {
			return err
		}
	}

	wifeParents, err := d.parents(ctx, wife.ID)
	if err != nil {
		return err
	}
	for _, p := range wifeParents {
		if err := d.link(ctx, husband.ID, p.ID, gendered(p, entities.FatherInLaw, entities.MotherInLaw)); err != nil {
			return err
		}
		if err := d.link(ctx, p.ID, husband.ID, entities.SonInLaw); err != nil {
			return err
		}
	}
	return nil
}

// deriveChild links the child to both parents, to the parents' other
// children, to the grandparents on either side and, when the child is
// married, links the child's spouse to the parents.
func deriveChild(ctx context.Context, d *deriver, parent, child *entities.Member, code entities.RelationCode) error {
	if err := d.link(ctx, child.ID, parent.ID, parentCode(parent)); err != nil {
		return err
	}

	other, err := d.spouse(ctx, parent)
	if err != nil {
		return err
	}
	parents := []*entities.Member{parent}
	if other != nil {
		parents = append(parents, other)
		if err := d.link(ctx, child.ID, other.ID, parentCode(other)); err != nil {
			return err
		}
		if err := d.link(ctx, other.ID, child.ID, code); err != nil {
			return err
		}
		if err := linkChildsSpouse(ctx, d, child, other); err != nil {
			return err
		}
	}
	if err := linkChildsSpouse(ctx, d, child, parent); err != nil {
		return err
	}

	if err := linkSiblings(ctx, d, child, parents); err != nil {
		return err
	}
	return linkGrandparents(ctx, d, child, parents)
}

// linkChildsSpouse makes the child's spouse an in-law of parent.
func linkChildsSpouse(ctx context.Context, d *deriver, child, parent *entities.Member) error {
	spouse, err := d.spouse(ctx, child)
	if err != nil || spouse == nil {
		return err
	}
	if spouse.IsMale() {
		if err := d.link(ctx, spouse.ID, parent.ID, gendered(parent, entities.FatherInLaw, entities.MotherInLaw)); err != nil {
			return err
		}
		return d.link(ctx, parent.ID, spouse.ID, entities.SonInLaw)
	}
	if err := d.link(ctx, spouse.ID, parent.ID, gendered(parent, entities.HusbandsFather, entities.HusbandsMother)); err != nil {
		return err
	}
	return d.link(ctx, parent.ID, spouse.ID, entities.DaughterInLaw)
}

// linkSiblings pairs the child with every other child of its parents.
// Seniority follows member id: the lower id is the elder.
func linkSiblings(ctx context.Context, d *deriver, child *entities.Member, parents []*entities.Member) error {
	seen := map[int64]bool{child.ID: true}
	for _, p := range parents {
		kids, err := d.children(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, sib := range kids {
			if seen[sib.ID] {
				continue
			}
			seen[sib.ID] = true

			elder, younger := sib, child
			if child.ID < sib.ID {
				elder, younger = child, sib
			}
			if err := d.link(ctx, younger.ID, elder.ID, gendered(elder, entities.OlderBrother, entities.OlderSister)); err != nil {
				return err
			}
			if err := d.link(ctx, elder.ID, younger.ID, gendered(younger, entities.YoungerBrother, entities.YoungerSister)); err != nil {
				return err
			}
		}
	}
	return nil
}

// linkGrandparents links the child to its parents' parents. A father's
// parents are paternal, a mother's parents maternal.
func linkGrandparents(ctx context.Context, d *deriver, child *entities.Member, parents []*entities.Member) error {
	for _, p := range parents {
		grandparents, err := d.parents(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, gp := range grandparents {
			up := gendered(gp, entities.PaternalGrandfather, entities.PaternalGrandmother)
			down := gendered(child, entities.PaternalGrandson, entities.PaternalGranddaughter)
			if !p.IsMale() {
				up = gendered(gp, entities.MaternalGrandfather, entities.MaternalGrandmother)
				down = gendered(child, entities.MaternalGrandson, entities.MaternalGranddaughter)
			}
			if err := d.link(ctx, child.ID, gp.ID, up); err != nil {
				return err
			}
			if err := d.link(ctx, gp.ID, child.ID, down); err != nil {
				return err
			}
		}
	}
	return nil
}

// deriveCousin records the fixed reciprocal cousin code.
func deriveCousin(ctx context.Context, d *deriver, from, to *entities.Member, code entities.RelationCode) error {
	reciprocal, _ := code.Reciprocal(from.Gender)
	return d.link(ctx, to.ID, from.ID, reciprocal)
}
