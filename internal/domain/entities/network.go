package entities

// Edge types in a kinship network.
const (
	EdgeMarriage = "marriage"
	EdgeBlood    = "blood"
	EdgeInLaw    = "inlaw"
)

// Network generation bounds.
const (
	MinNetworkGenerations     = 1
	MaxNetworkGenerations     = 4
	DefaultNetworkGenerations = 2
)

// NetworkNode is one member of a kinship network. Level is the number of
// blood hops from the center; spouses take the level of their partner.
type NetworkNode struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Gender     Gender `json:"gender"`
	Generation int    `json:"generation"`
	Level      int    `json:"level"`
}

// NetworkEdge merges every raw edge between one unordered pair of members.
type NetworkEdge struct {
	FromID       int64        `json:"fromId"`
	ToID         int64        `json:"toId"`
	RelationType RelationCode `json:"relationType"`
	Description  string       `json:"description"`
	EdgeType     string       `json:"edgeType"`
	RawCount     int          `json:"rawCount"`
}

// Network is the local kinship subgraph around a center member.
type Network struct {
	CenterID         int64         `json:"centerId"`
	Generations      int           `json:"generations"`
	CenterGeneration int           `json:"centerGeneration"`
	Nodes            []NetworkNode `json:"nodes"`
	Edges            []NetworkEdge `json:"edges"`
	HiddenCount      int           `json:"hiddenRelationsCount"`
}
