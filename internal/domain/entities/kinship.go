package entities

// Kinship descriptions that are not taxonomy terms.
const (
	KinshipMemberMissing = "成员不存在"
	KinshipSelf          = "本人"
	KinshipDirectPrefix  = "直接关系："
	KinshipUnrelated     = "无亲属关系"
	KinshipSomeChain     = "存在亲属关系（通过若干代或姻亲相连）"
	KinshipQueryFailed   = "查询失败: "
)

// PathNode is one member on a kinship path.
type PathNode struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Gender     Gender `json:"gender"`
	Generation int    `json:"generation"`
}

// PathEdge is one traversed step on a kinship path. Description names
// what ToID is to FromID, whichever way the stored edge runs.
type PathEdge struct {
	FromID         int64        `json:"fromId"`
	ToID           int64        `json:"toId"`
	RelationType   RelationCode `json:"relationType"`
	RelationshipID int64        `json:"relationshipId"`
	Reversed       bool         `json:"reversed"`
	Description    string       `json:"description"`
}

// KinshipResult answers "how are these two members related".
type KinshipResult struct {
	Related             bool       `json:"related"`
	Description         string     `json:"description"`
	Coarse              string     `json:"coarse,omitempty"`
	PathNodes           []PathNode `json:"pathNodes"`
	PathEdges           []PathEdge `json:"pathEdges"`
	CommonAncestorID    *int64     `json:"commonAncestorId,omitempty"`
	CommonAncestorCount int        `json:"commonAncestorCount"`
	Coefficient         float64    `json:"kinshipCoefficient"`
}

// PathLength returns the number of edges on the path.
func (r *KinshipResult) PathLength() int {
	return len(r.PathEdges)
}
