package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RelationCode is a directed relation in the closed kinship taxonomy.
//
// A stored relationship (from, to, code) reads "to is the code of from":
// (2, 3, Husband) means member 2 has husband member 3.
type RelationCode int

// The numeric values are the wire contract and must not change.
const (
	Husband               RelationCode = 1
	Wife                  RelationCode = 2
	Father                RelationCode = 3
	Mother                RelationCode = 4
	EldestSon             RelationCode = 5
	SecondSon             RelationCode = 6
	YoungestSon           RelationCode = 7
	EldestDaughter        RelationCode = 8
	SecondDaughter        RelationCode = 9
	YoungestDaughter      RelationCode = 10
	OlderBrother          RelationCode = 11
	OlderSister           RelationCode = 12
	YoungerBrother        RelationCode = 13
	YoungerSister         RelationCode = 14
	ElderMaleCousin       RelationCode = 15
	ElderFemaleCousin     RelationCode = 16
	YoungerMaleCousin     RelationCode = 17
	YoungerFemaleCousin   RelationCode = 18
	PaternalGrandfather   RelationCode = 19
	PaternalGrandmother   RelationCode = 20
	MaternalGrandmother   RelationCode = 21
	MaternalGrandfather   RelationCode = 22
	PaternalGrandson      RelationCode = 23
	PaternalGranddaughter RelationCode = 24
	MaternalGrandson      RelationCode = 25
	MaternalGranddaughter RelationCode = 26
	FatherInLaw           RelationCode = 27 // wife's father
	MotherInLaw           RelationCode = 28 // wife's mother
	HusbandsFather        RelationCode = 29
	HusbandsMother        RelationCode = 30
	DaughterInLaw         RelationCode = 31
	SonInLaw              RelationCode = 32
)

// MinRelationCode and MaxRelationCode bound the taxonomy.
const (
	MinRelationCode = Husband
	MaxRelationCode = SonInLaw
)

// UnknownRelation is the description used for codes outside the taxonomy.
const UnknownRelation = "未知关系"

// RelationFamily groups relation codes by the kind of tie they describe.
type RelationFamily string

const (
	FamilyMarriage    RelationFamily = "marriage"
	FamilyParent      RelationFamily = "parent"
	FamilyChild       RelationFamily = "child"
	FamilySibling     RelationFamily = "sibling"
	FamilyCousin      RelationFamily = "cousin"
	FamilyGrandparent RelationFamily = "grandparent"
	FamilyGrandchild  RelationFamily = "grandchild"
	FamilyInLaw       RelationFamily = "inlaw"
)

type relationInfo struct {
	term    string
	english string
	family  RelationFamily
	gender  Gender // gender of the "to" member the code names
	reverse string // what "from" is to "to", when the gender of "from" is not known
}

var relationTable = [...]relationInfo{
	Husband:               {"丈夫", "husband", FamilyMarriage, Male, "妻子"},
	Wife:                  {"妻子", "wife", FamilyMarriage, Female, "丈夫"},
	Father:                {"父亲", "father", FamilyParent, Male, "子女"},
	Mother:                {"母亲", "mother", FamilyParent, Female, "子女"},
	EldestSon:             {"长子", "eldest son", FamilyChild, Male, "父亲"},
	SecondSon:             {"次子", "second son", FamilyChild, Male, "父亲"},
	YoungestSon:           {"小子", "youngest son", FamilyChild, Male, "父亲"},
	EldestDaughter:        {"长女", "eldest daughter", FamilyChild, Female, "母亲"},
	SecondDaughter:        {"次女", "second daughter", FamilyChild, Female, "母亲"},
	YoungestDaughter:      {"小女", "youngest daughter", FamilyChild, Female, "母亲"},
	OlderBrother:          {"哥哥", "older brother", FamilySibling, Male, "弟弟"},
	OlderSister:           {"姐姐", "older sister", FamilySibling, Female, "妹妹"},
	YoungerBrother:        {"弟弟", "younger brother", FamilySibling, Male, "哥哥"},
	YoungerSister:         {"妹妹", "younger sister", FamilySibling, Female, "姐姐"},
	ElderMaleCousin:       {"表哥", "male cousin (older)", FamilyCousin, Male, "表弟"},
	ElderFemaleCousin:     {"表姐", "female cousin (older)", FamilyCousin, Female, "表妹"},
	YoungerMaleCousin:     {"表弟", "male cousin (younger)", FamilyCousin, Male, "表哥"},
	YoungerFemaleCousin:   {"表妹", "female cousin (younger)", FamilyCousin, Female, "表姐"},
	PaternalGrandfather:   {"爷爷", "paternal grandfather", FamilyGrandparent, Male, "孙辈"},
	PaternalGrandmother:   {"奶奶", "paternal grandmother", FamilyGrandparent, Female, "孙辈"},
	MaternalGrandmother:   {"外祖母", "maternal grandmother", FamilyGrandparent, Female, "外孙辈"},
	MaternalGrandfather:   {"外祖父", "maternal grandfather", FamilyGrandparent, Male, "外孙辈"},
	PaternalGrandson:      {"孙子", "grandson (paternal)", FamilyGrandchild, Male, "爷爷/奶奶"},
	PaternalGranddaughter: {"孙女", "granddaughter (paternal)", FamilyGrandchild, Female, "爷爷/奶奶"},
	MaternalGrandson:      {"外孙", "grandson (maternal)", FamilyGrandchild, Male, "外祖父/外祖母"},
	MaternalGranddaughter: {"外孙女", "granddaughter (maternal)", FamilyGrandchild, Female, "外祖父/外祖母"},
	FatherInLaw:           {"岳父", "father-in-law", FamilyInLaw, Male, "女婿"},
	MotherInLaw:           {"岳母", "mother-in-law", FamilyInLaw, Female, "女婿"},
	HusbandsFather:        {"公公", "father-in-law (groom's side)", FamilyInLaw, Male, "儿媳"},
	HusbandsMother:        {"婆婆", "mother-in-law (groom's side)", FamilyInLaw, Female, "儿媳"},
	DaughterInLaw:         {"儿媳", "daughter-in-law", FamilyInLaw, Female, "公公/婆婆"},
	SonInLaw:              {"女婿", "son-in-law", FamilyInLaw, Male, "岳父/岳母"},
}

// AllRelationCodes returns every code in the taxonomy in ascending order.
func AllRelationCodes() []RelationCode {
	codes := make([]RelationCode, 0, int(MaxRelationCode))
	for c := MinRelationCode; c <= MaxRelationCode; c++ {
		codes = append(codes, c)
	}
	return codes
}

// ParseRelationCode accepts a numeric code, an English name such as
// "eldest son" or "eldest_son", or the Chinese term.
func ParseRelationCode(s string) (RelationCode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := RelationCode(n)
		if !c.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidRelationCode, n)
		}
		return c, nil
	}

	name := strings.ReplaceAll(strings.ToLower(s), "_", " ")
	for c := MinRelationCode; c <= MaxRelationCode; c++ {
		info := relationTable[c]
		if info.english == name || info.term == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRelationCode, s)
}

// Valid reports whether c is in [1, 32].
func (c RelationCode) Valid() bool {
	return c >= MinRelationCode && c <= MaxRelationCode
}

// Description returns the Chinese kinship term for c.
func (c RelationCode) Description() string {
	if !c.Valid() {
		return UnknownRelation
	}
	return relationTable[c].term
}

// English returns the English name for c.
func (c RelationCode) English() string {
	if !c.Valid() {
		return "unknown"
	}
	return relationTable[c].english
}

// Family returns the group c belongs to.
func (c RelationCode) Family() RelationFamily {
	if !c.Valid() {
		return ""
	}
	return relationTable[c].family
}

// Gender returns the gender of the member the code names.
func (c RelationCode) Gender() Gender {
	if !c.Valid() {
		return Male
	}
	return relationTable[c].gender
}

// ReverseDescription describes the "from" member as seen from the "to"
// member when only the code is known. The result may be gender-neutral.
func (c RelationCode) ReverseDescription() string {
	if !c.Valid() {
		return "亲属"
	}
	return relationTable[c].reverse
}

func (c RelationCode) String() string {
	return fmt.Sprintf("%d(%s)", int(c), c.Description())
}

func (c RelationCode) IsMarriage() bool { return c == Husband || c == Wife }
func (c RelationCode) IsParent() bool   { return c == Father || c == Mother }
func (c RelationCode) IsChild() bool    { return c >= EldestSon && c <= YoungestDaughter }
func (c RelationCode) IsSibling() bool  { return c >= OlderBrother && c <= YoungerSister }
func (c RelationCode) IsCousin() bool   { return c >= ElderMaleCousin && c <= YoungerFemaleCousin }
func (c RelationCode) IsInLaw() bool    { return c >= FatherInLaw && c <= SonInLaw }

// IsBlood reports whether c is a blood-line code (3–26).
func (c RelationCode) IsBlood() bool {
	return c >= Father && c <= MaternalGranddaughter
}

// IsGrandparent reports whether c names a grandparent.
func (c RelationCode) IsGrandparent() bool {
	return c >= PaternalGrandfather && c <= MaternalGrandfather
}

// IsGrandchild reports whether c names a grandchild.
func (c RelationCode) IsGrandchild() bool {
	return c >= PaternalGrandson && c <= MaternalGranddaughter
}

// IsMaternal reports whether c names a maternal-line grandparent or grandchild.
func (c RelationCode) IsMaternal() bool {
	switch c {
	case MaternalGrandmother, MaternalGrandfather, MaternalGrandson, MaternalGranddaughter:
		return true
	}
	return false
}

// IsElderSibling reports whether c names an older brother or sister.
func (c RelationCode) IsElderSibling() bool {
	return c == OlderBrother || c == OlderSister
}

// AcceptsInput reports whether c may be asserted directly. Every other code
// is only ever derived.
func (c RelationCode) AcceptsInput() bool {
	return c.IsMarriage() || c.IsChild() || c.IsCousin()
}

// Reciprocal returns the code describing the same tie from the other end:
// for a stored (from, to, c), the result r makes (to, from, r) true.
// fromGender is the gender of the "from" member. ok is false for parent
// codes, whose reciprocal child code carries a birth order that cannot be
// inferred.
func (c RelationCode) Reciprocal(fromGender Gender) (RelationCode, bool) {
	male := fromGender == Male
	pick := func(m, f RelationCode) (RelationCode, bool) {
		if male {
			return m, true
		}
		return f, true
	}

	switch {
	case c == Husband:
		return Wife, true
	case c == Wife:
		return Husband, true
	case c.IsParent():
		return 0, false
	case c.IsChild():
		return pick(Father, Mother)
	case c.IsElderSibling():
		return pick(YoungerBrother, YoungerSister)
	case c == YoungerBrother || c == YoungerSister:
		return pick(OlderBrother, OlderSister)
	case c == ElderMaleCousin:
		return YoungerMaleCousin, true
	case c == ElderFemaleCousin:
		return YoungerFemaleCousin, true
	case c == YoungerMaleCousin:
		return ElderMaleCousin, true
	case c == YoungerFemaleCousin:
		return ElderFemaleCousin, true
	case c == PaternalGrandfather || c == PaternalGrandmother:
		return pick(PaternalGrandson, PaternalGranddaughter)
	case c == MaternalGrandmother || c == MaternalGrandfather:
		return pick(MaternalGrandson, MaternalGranddaughter)
	case c == PaternalGrandson || c == PaternalGranddaughter:
		return pick(PaternalGrandfather, PaternalGrandmother)
	case c == MaternalGrandson || c == MaternalGranddaughter:
		return pick(MaternalGrandfather, MaternalGrandmother)
	case c == FatherInLaw || c == MotherInLaw:
		return SonInLaw, true
	case c == HusbandsFather || c == HusbandsMother:
		return DaughterInLaw, true
	case c == DaughterInLaw:
		return pick(HusbandsFather, HusbandsMother)
	case c == SonInLaw:
		return pick(FatherInLaw, MotherInLaw)
	}
	return 0, false
}

// Relationship is one stored directed edge: ToID is the Type of FromID.
type Relationship struct {
	ID        int64        `json:"id"`
	FromID    int64        `json:"fromId"`
	ToID      int64        `json:"toId"`
	Type      RelationCode `json:"relationType"`
	CreatedAt time.Time    `json:"created_at"`
}

// Involves reports whether the edge touches member id.
func (r *Relationship) Involves(id int64) bool {
	return r.FromID == id || r.ToID == id
}

// Other returns the endpoint opposite id.
func (r *Relationship) Other(id int64) int64 {
	if r.FromID == id {
		return r.ToID
	}
	return r.FromID
}

// Key identifies the (from, to, type) triple that must be unique.
type RelationshipKey struct {
	FromID int64
	ToID   int64
	Type   RelationCode
}

// Key returns the uniqueness key of r.
func (r *Relationship) Key() RelationshipKey {
	return RelationshipKey{FromID: r.FromID, ToID: r.ToID, Type: r.Type}
}

// RelationCodeInfo is the taxonomy entry exposed to front ends.
type RelationCodeInfo struct {
	Code         RelationCode   `json:"code"`
	Description  string         `json:"description"`
	English      string         `json:"english"`
	Family       RelationFamily `json:"family"`
	AcceptsInput bool           `json:"acceptsInput"`
}

// RelationCodeCatalog lists the full taxonomy.
func RelationCodeCatalog() []RelationCodeInfo {
	codes := AllRelationCodes()
	out := make([]RelationCodeInfo, 0, len(codes))
	for _, c := range codes {
		out = append(out, RelationCodeInfo{
			Code:         c,
			Description:  c.Description(),
			English:      c.English(),
			Family:       c.Family(),
			AcceptsInput: c.AcceptsInput(),
		})
	}
	return out
}
