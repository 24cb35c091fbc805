// Package parsers reads family snapshot files in JSON and CSV form.
package parsers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// Snapshot file base names inside an export directory.
const (
	MembersFile       = "members"
	RelationshipsFile = "relationships"
)

// RawMember is a member record as read from a file, before validation.
type RawMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Generation int    `json:"generation"`
	Gender     string `json:"gender"`
	Remark     string `json:"remark,omitempty"`
	LineNum    int    `json:"-"` // Line number in source file (set by parser)
}

// RawRelationship is an edge record as read from a file. Type may be a
// numeric code, an English name or the Chinese term.
type RawRelationship struct {
	FromID  int64  `json:"fromId"`
	ToID    int64  `json:"toId"`
	Type    string `json:"relationType"`
	LineNum int    `json:"-"`
}

// Parser defines the interface for parsing snapshot records.
type Parser interface {
	ParseMembers(r io.Reader) ([]RawMember, error)
	ParseRelationships(r io.Reader) ([]RawRelationship, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	return ForFormat(strings.TrimPrefix(ext, "."))
}

// ToMember validates a raw member record.
func (m RawMember) ToMember() (entities.Member, error) {
	gender, err := entities.ParseGender(m.Gender)
	if err != nil {
		return entities.Member{}, err
	}
	member := entities.Member{
		ID:         m.ID,
		Name:       strings.TrimSpace(m.Name),
		Generation: m.Generation,
		Gender:     gender,
		Remark:     m.Remark,
	}
	if err := member.Validate(); err != nil {
		return entities.Member{}, err
	}
	return member, nil
}

// ToRelationship validates a raw relationship record.
func (r RawRelationship) ToRelationship() (entities.Relationship, error) {
	code, err := entities.ParseRelationCode(r.Type)
	if err != nil {
		return entities.Relationship{}, err
	}
	if r.FromID <= 0 || r.ToID <= 0 {
		return entities.Relationship{}, fmt.Errorf("%w: member ids must be positive", entities.ErrMemberNotFound)
	}
	return entities.Relationship{FromID: r.FromID, ToID: r.ToID, Type: code}, nil
}

// ToSnapshot converts parsed records into a snapshot, reporting every bad
// record together.
func ToSnapshot(members []RawMember, rels []RawRelationship) (*entities.Snapshot, error) {
	snap := &entities.Snapshot{
		Members:       make([]entities.Member, 0, len(members)),
		Relationships: make([]entities.Relationship, 0, len(rels)),
	}

	var errs []error
	for _, raw := range members {
		m, err := raw.ToMember()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s line %d: %w", MembersFile, raw.LineNum, err))
			continue
		}
		snap.Members = append(snap.Members, m)
	}
	for _, raw := range rels {
		rel, err := raw.ToRelationship()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s line %d: %w", RelationshipsFile, raw.LineNum, err))
			continue
		}
		snap.Relationships = append(snap.Relationships, rel)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return snap, nil
}

// LoadSnapshot reads members.{json,csv} and relationships.{json,csv} from dir.
// A missing relationships file yields a snapshot without edges.
func LoadSnapshot(dir string) (*entities.Snapshot, error) {
	membersPath, err := findFile(dir, MembersFile)
	if err != nil {
		return nil, err
	}
	if membersPath == "" {
		return nil, fmt.Errorf("no %s.json or %s.csv in %s", MembersFile, MembersFile, dir)
	}

	var members []RawMember
	if err := parseFile(membersPath, func(p Parser, r io.Reader) (err error) {
		members, err = p.ParseMembers(r)
		return err
	}); err != nil {
		return nil, err
	}

	relsPath, err := findFile(dir, RelationshipsFile)
	if err != nil {
		return nil, err
	}
	var rels []RawRelationship
	if relsPath != "" {
		if err := parseFile(relsPath, func(p Parser, r io.Reader) (err error) {
			rels, err = p.ParseRelationships(r)
			return err
		}); err != nil {
			return nil, err
		}
	}

	return ToSnapshot(members, rels)
}

// findFile returns the first of base.json and base.csv present in dir, or "".
func findFile(dir, base string) (string, error) {
	for _, ext := range []string{".json", ".csv"} {
		path := filepath.Join(dir, base+ext)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return "", nil
}

func parseFile(path string, fn func(Parser, io.Reader) error) error {
	p := ForFile(path)
	if p == nil {
		return fmt.Errorf("unsupported file format: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := fn(p, f); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
