package services

import (
	"fmt"
	"strings"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// Generic terms refined by the target's gender and line.
const (
	termGrandparents    = "祖辈"
	termGrandchildren   = "孙辈"
	termMaternalGrandch = "外孙辈"
	termChildren        = "子女"
)

// pathShape summarizes a path as generations climbed and descended plus
// the facts the kinship table keys on.
type pathShape struct {
	up, down   int
	maternal   bool
	sawSibling bool
	sibling    entities.RelationCode // the last sibling step, if any
	last       entities.RelationCode // code of the final step, 0 when unlabelled
	codes      []entities.RelationCode
}

// shapeOf classifies each step of the path.
func (g *Graph) shapeOf(steps []PathStep) pathShape {
	var sh pathShape
	for _, s := range steps {
		code, ok := g.StepCode(s)
		if !ok {
			// A parent edge walked backwards: the target is a child of
			// unknown birth order.
			sh.down++
			sh.codes = append(sh.codes, 0)
			sh.last = 0
			continue
		}
		sh.codes = append(sh.codes, code)
		sh.last = code
		switch {
		case code.IsParent():
			sh.up++
		case code.IsChild():
			sh.down++
		case code.IsGrandparent():
			sh.up += 2
		case code.IsGrandchild():
			sh.down += 2
		case code.IsSibling():
			sh.sawSibling = true
			sh.sibling = code
		case code.IsCousin():
			sh.maternal = true
		}
		if code.IsMaternal() {
			sh.maternal = true
		}
	}
	if g.femaleIntermediate(steps) {
		sh.maternal = true
	}
	return sh
}

// femaleIntermediate reports whether a woman sits between the two ends of
// the path. A unique oldest-generation member is the shared ancestor and
// does not decide the line.
func (g *Graph) femaleIntermediate(steps []PathStep) bool {
	if len(steps) < 2 {
		return false
	}
	nodes := make([]*entities.Member, 0, len(steps)+1)
	nodes = append(nodes, g.members[steps[0].From])
	for _, s := range steps {
		nodes = append(nodes, g.members[s.To])
	}

	apex, apexCount := -1, 0
	for i, n := range nodes {
		switch {
		case apex < 0 || n.Generation < nodes[apex].Generation:
			apex, apexCount = i, 1
		case n.Generation == nodes[apex].Generation:
			apexCount++
		}
	}

	for i := 1; i < len(nodes)-1; i++ {
		if apexCount == 1 && i == apex {
			continue
		}
		if nodes[i].Gender == entities.Female {
			return true
		}
	}
	return false
}

// PreciseTerm names what the last member of the path is to the first,
// using the Chinese kinship vocabulary. It returns "" when the path shape
// has no term and is too short to band as distant kin.
func (g *Graph) PreciseTerm(steps []PathStep) string {
	if len(steps) == 0 {
		return ""
	}
	source := g.members[steps[0].From]
	target := g.members[steps[len(steps)-1].To]
	female := target.Gender == entities.Female

	if len(steps) == 1 {
		return refine(g.StepLabel(steps[0]), female, false)
	}

	sh := g.shapeOf(steps)

	if len(sh.codes) == 3 && sh.codes[0].IsParent() && sh.codes[1].IsSibling() {
		switch sh.codes[2] {
		case entities.DaughterInLaw:
			return line(sh.maternal, "堂嫂/堂弟媳（堂兄弟之配偶）", "表嫂/表弟媳（表兄弟之配偶）")
		case entities.SonInLaw:
			return line(sh.maternal, "堂姐夫/堂妹夫（堂姐妹之配偶）", "表姐夫/表妹夫（表姐妹之配偶）")
		}
	}

	term := lookupTerm(sh, female)
	if term == "" {
		return ""
	}
	if source.Generation == target.Generation || (sh.up == sh.down && sh.up+sh.down >= 2) {
		// Either direction of the path may reveal the maternal line; both
		// ends must agree on it.
		maternal := sh.maternal || g.shapeOf(reversePath(steps)).maternal
		term = sameGeneration(term, female, maternal)
	}
	return g.bySeniority(refine(term, female, sh.maternal), source.ID, target.ID)
}

func pick(female bool, male, fem string) string {
	if female {
		return fem
	}
	return male
}

func line(maternal bool, paternal, maternalTerm string) string {
	if maternal {
		return maternalTerm
	}
	return paternal
}

func isSister(c entities.RelationCode) bool {
	return c == entities.OlderSister || c == entities.YoungerSister
}

// lookupTerm maps (up, down) onto the kinship table.
func lookupTerm(sh pathShape, female bool) string {
	p := func(male, fem string) string { return pick(female, male, fem) }
	m := sh.maternal

	switch {
	case sh.up == 1 && sh.down == 0 && sh.last.IsSibling():
		if m {
			return p("舅舅", "姨母")
		}
		switch sh.last {
		case entities.OlderBrother:
			return "伯父"
		case entities.YoungerBrother:
			return "叔父"
		}
		return "姑母"
	case sh.up == 0 && sh.down == 1 && sh.sawSibling:
		if isSister(sh.sibling) {
			return p("外甥", "外甥女")
		}
		return p("侄子", "侄女")
	case sh.up == 2 && sh.down == 0:
		return termGrandparents
	case sh.up == 0 && sh.down == 2:
		return termGrandchildren
	case sh.up == 3 && sh.down == 0:
		return p("曾祖父", "曾祖母")
	case sh.up == 0 && sh.down == 3:
		return p("曾孙", "曾孙女")
	case sh.up == 1 && sh.down == 1:
		if sh.last.IsSibling() {
			return line(m, p("堂伯/堂叔", "堂姑"), p("表伯/表叔", "表姑"))
		}
		if sh.sawSibling {
			return line(m, p("堂兄弟", "堂姐妹"), p("表兄弟", "表姐妹"))
		}
		if len(sh.codes) > 0 && !sh.codes[0].IsParent() {
			// Down then up joins two parents of one child, not siblings.
			return ""
		}
		return p("兄弟", "姐妹")
	case sh.up == 2 && sh.down == 1:
		return line(m, p("伯父/叔父", "姑母"), p("舅舅", "姨母"))
	case sh.up == 1 && sh.down == 2:
		return line(m, p("侄子", "侄女"), p("外甥", "外甥女"))
	case sh.up == 2 && sh.down == 2:
		return line(m, p("堂兄弟", "堂姐妹"), p("表兄弟", "表姐妹"))
	case sh.up == 3 && sh.down == 1:
		return line(m, p("伯祖父/叔祖父", "姑祖母"), p("舅公", "姨婆"))
	case sh.up == 1 && sh.down == 3:
		return line(m, p("侄孙", "侄孙女"), p("外甥孙", "外甥孙女"))
	case sh.up == 3 && sh.down == 2:
		return line(m, p("堂伯/堂叔", "堂姑"), p("表舅", "表姨"))
	case sh.up == 2 && sh.down == 3:
		return line(m, p("堂侄", "堂侄女"), p("表侄", "表侄女"))
	case sh.up == 3 && sh.down == 3:
		return line(m, p("再从兄弟", "再从姐妹"), p("再从表兄弟", "再从表姐妹"))
	}

	switch total := sh.up + sh.down; {
	case total == 4:
		return "远亲（约从堂/表）"
	case total == 5:
		return "远亲（约再从）"
	case total == 6:
		return "远亲（约三从）"
	case total > 6:
		return fmt.Sprintf("远亲（约%d代）", total)
	}
	return ""
}

// sameGeneration rewrites collateral terms for relatives of one's own
// generation into the matching sibling or cousin term.
func sameGeneration(term string, female, maternal bool) string {
	switch {
	case strings.HasPrefix(term, "再从表"):
		return pick(female, "再从表兄弟", "再从表姐妹")
	case strings.HasPrefix(term, "再从"):
		return pick(female, "再从兄弟", "再从姐妹")
	case strings.HasPrefix(term, "三从"):
		return pick(female, "三从兄弟", "三从姐妹")
	case strings.HasPrefix(term, "堂"):
		return pick(female, "堂兄弟", "堂姐妹")
	case strings.HasPrefix(term, "表"):
		return pick(female, "表兄弟", "表姐妹")
	case strings.ContainsAny(term, collateralRunes):
		return line(maternal, pick(female, "堂兄弟", "堂姐妹"), pick(female, "表兄弟", "表姐妹"))
	}
	return term
}

// collateralRunes mark terms for an uncle, aunt, nephew or niece.
const collateralRunes = "侄甥伯叔姑舅姨"

// seniorTerms pairs elder/younger alternatives with the number of
// generations above the source at which the target's sibling sits.
var seniorTerms = map[string]struct {
	depth          int
	elder, younger string
}{
	"伯父/叔父":   {1, "伯父", "叔父"},
	"堂伯/堂叔":   {1, "堂伯", "堂叔"},
	"表伯/表叔":   {1, "表伯", "表叔"},
	"伯祖父/叔祖父": {2, "伯祖父", "叔祖父"},
}

// bySeniority picks one side of an elder/younger term using the sibling or
// cousin edge between the target and the source's ancestor. The joined
// form is kept when no such edge is recorded.
func (g *Graph) bySeniority(term string, source, target int64) string {
	st, ok := seniorTerms[term]
	if !ok {
		return term
	}

	ancestors := []int64{source}
	for i := 0; i < st.depth; i++ {
		var next []int64
		for _, id := range ancestors {
			next = append(next, g.Parents(id)...)
		}
		ancestors = next
	}

	for _, a := range ancestors {
		for _, rel := range g.Between(a, target) {
			if rel.FromID != a {
				continue
			}
			switch rel.Type {
			case entities.OlderBrother, entities.ElderMaleCousin:
				return st.elder
			case entities.YoungerBrother, entities.YoungerMaleCousin:
				return st.younger
			}
		}
	}
	return term
}

// refine resolves generic and slash-joined terms by gender and line.
func refine(term string, female, maternal bool) string {
	switch term {
	case termGrandparents:
		return line(maternal, pick(female, "爷爷", "奶奶"), pick(female, "外祖父", "外祖母"))
	case termGrandchildren:
		return line(maternal, pick(female, "孙子", "孙女"), pick(female, "外孙", "外孙女"))
	case termMaternalGrandch:
		return pick(female, "外孙", "外孙女")
	case termChildren:
		return pick(female, "儿子", "女儿")
	case "爷爷/奶奶":
		return pick(female, "爷爷", "奶奶")
	case "外祖父/外祖母":
		return pick(female, "外祖父", "外祖母")
	case "公公/婆婆":
		return pick(female, "公公", "婆婆")
	case "岳父/岳母":
		return pick(female, "岳父", "岳母")
	}
	return term
}

// coarseTerm classifies two members by the generations separating each of
// them from their closest common ancestor.
func coarseTerm(gapA, gapB int, sameGen bool) string {
	hi := max(gapA, gapB)
	switch {
	case gapA == 1 && gapB == 1 && sameGen:
		return "兄弟姐妹"
	case gapA == 2 && gapB == 2:
		return "堂/表兄弟姐妹"
	case (gapA == 1 && gapB == 2) || (gapA == 2 && gapB == 1):
		return "叔伯/姑姨与侄子/侄女"
	case gapA >= 2 && gapB >= 2 && hi == 3:
		return "远房堂/表兄弟姐妹"
	}
	return "远亲"
}
