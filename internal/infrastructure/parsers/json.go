package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses snapshot records from JSON arrays.
type JSONParser struct{}

// flexString accepts either a JSON string or a bare number, so gender and
// relation type may be written as 1 or "female", 5 or "eldest son".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

type jsonMember struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Generation int        `json:"generation"`
	Gender     flexString `json:"gender"`
	Remark     string     `json:"remark"`
}

type jsonRelationship struct {
	FromID int64      `json:"fromId"`
	ToID   int64      `json:"toId"`
	Type   flexString `json:"relationType"`
}

// ParseMembers reads a JSON array of members.
func (p *JSONParser) ParseMembers(r io.Reader) ([]RawMember, error) {
	var records []jsonMember
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	members := make([]RawMember, 0, len(records))
	for i, rec := range records {
		members = append(members, RawMember{
			ID:         rec.ID,
			Name:       rec.Name,
			Generation: rec.Generation,
			Gender:     string(rec.Gender),
			Remark:     rec.Remark,
			LineNum:    i + 1, // array index, 1-indexed
		})
	}
	return members, nil
}

// ParseRelationships reads a JSON array of relationships.
func (p *JSONParser) ParseRelationships(r io.Reader) ([]RawRelationship, error) {
	var records []jsonRelationship
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	rels := make([]RawRelationship, 0, len(records))
	for i, rec := range records {
		rels = append(rels, RawRelationship{
			FromID:  rec.FromID,
			ToID:    rec.ToID,
			Type:    string(rec.Type),
			LineNum: i + 1,
		})
	}
	return rels, nil
}
