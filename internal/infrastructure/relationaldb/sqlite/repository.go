// Package sqlite provides a SQLite implementation of the FamilyStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.FamilyStore using SQLite.
type Repository struct {
	db   *sql.DB
	q    querier
	path string
	inTx bool
}

var _ ports.FamilyStore = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// A single connection keeps per-connection pragmas in force and lets
	// ":memory:" databases survive across calls.
	db.SetMaxOpenConns(1)

	// Enable foreign keys so member deletion cascades to relationships
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		q:    db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.inTx {
		return nil
	}
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Family members
	CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		generation INTEGER NOT NULL CHECK (generation >= 0),
		gender INTEGER NOT NULL CHECK (gender IN (0, 1)),
		remark TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_members_name ON members(name);

	-- Directed relationship edges: member2 is the relation of member1
	CREATE TABLE IF NOT EXISTS relationships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member1 INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		member2 INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		relation INTEGER NOT NULL CHECK (relation BETWEEN 1 AND 32),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (member1 <> member2)
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_member1 ON relationships(member1, relation);
	CREATE INDEX IF NOT EXISTS idx_relationships_member2 ON relationships(member2);
	CREATE INDEX IF NOT EXISTS idx_relationships_relation ON relationships(relation);

	-- Audit log (tracks all mutating actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		member_id INTEGER,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_member ON audit_log(member_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.q.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	// Databases written before the unique index may hold repeated triples.
	if _, err := r.DeleteDuplicateRelationships(ctx); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_relationships_unique
		ON relationships(member1, member2, relation)`)
	if err != nil {
		return fmt.Errorf("creating relationship index: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. Nested calls join the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.FamilyStore) error) (err error) {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("committing transaction: %w", cErr)
		}
	}()

	return fn(&Repository{db: r.db, q: tx, path: r.path, inTx: true})
}

// Reset removes every member and relationship and restarts id assignment.
// The audit log is kept.
func (r *Repository) Reset(ctx context.Context) error {
	return r.WithTx(ctx, func(tx ports.FamilyStore) error {
		q := tx.(*Repository).q
		for _, stmt := range []string{
			`DELETE FROM relationships`,
			`DELETE FROM members`,
			`DELETE FROM sqlite_sequence WHERE name IN ('members', 'relationships')`,
		} {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("resetting store: %w", err)
			}
		}
		return nil
	})
}

// SaveMember inserts a member, assigning an ID when none is set.
func (r *Repository) SaveMember(ctx context.Context, member *entities.Member) error {
	if member.CreatedAt.IsZero() {
		member.CreatedAt = timeNow().UTC()
	}

	var (
		result sql.Result
		err    error
	)
	if member.ID == 0 {
		result, err = r.q.ExecContext(ctx,
			`INSERT INTO members (name, generation, gender, remark, created_at) VALUES (?, ?, ?, ?, ?)`,
			member.Name, member.Generation, int(member.Gender), nullString(member.Remark), member.CreatedAt,
		)
	} else {
		result, err = r.q.ExecContext(ctx,
			`INSERT INTO members (id, name, generation, gender, remark, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			member.ID, member.Name, member.Generation, int(member.Gender), nullString(member.Remark), member.CreatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("saving member: %w", err)
	}

	if member.ID == 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading member id: %w", err)
		}
		member.ID = id
	}
	return nil
}

// UpdateMember overwrites the mutable fields of a member.
func (r *Repository) UpdateMember(ctx context.Context, member *entities.Member) error {
	query := `UPDATE members SET name = ?, gender = ?, remark = ? WHERE id = ?`
	result, err := r.q.ExecContext(ctx, query, member.Name, int(member.Gender), nullString(member.Remark), member.ID)
	if err != nil {
		return fmt.Errorf("updating member: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %d", entities.ErrMemberNotFound, member.ID)
	}
	return nil
}

// FindMemberByID finds a member by its ID.
func (r *Repository) FindMemberByID(ctx context.Context, id int64) (*entities.Member, error) {
	query := `SELECT id, name, generation, gender, remark, created_at FROM members WHERE id = ?`
	return r.queryMember(ctx, query, id)
}

// FindMemberByName returns the lowest-id member whose name contains name.
func (r *Repository) FindMemberByName(ctx context.Context, name string) (*entities.Member, error) {
	query := `
		SELECT id, name, generation, gender, remark, created_at
		FROM members
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT 1
	`
	return r.queryMember(ctx, query, likePattern(name))
}

// SearchMembers lists members whose name contains query.
func (r *Repository) SearchMembers(ctx context.Context, query string, limit int) ([]entities.Member, error) {
	q := `
		SELECT id, name, generation, gender, remark, created_at
		FROM members
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT ?
	`
	return r.queryMembers(ctx, q, likePattern(query), limit)
}

// ListMembers lists every member ordered by ID.
func (r *Repository) ListMembers(ctx context.Context) ([]entities.Member, error) {
	query := `SELECT id, name, generation, gender, remark, created_at FROM members ORDER BY id`
	return r.queryMembers(ctx, query)
}

// DeleteMember deletes a member and every relationship involving it.
func (r *Repository) DeleteMember(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx ports.FamilyStore) error {
		q := tx.(*Repository).q
		if _, err := q.ExecContext(ctx, `DELETE FROM relationships WHERE member1 = ? OR member2 = ?`, id, id); err != nil {
			return fmt.Errorf("deleting member relationships: %w", err)
		}
		result, err := q.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting member: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: %d", entities.ErrMemberNotFound, id)
		}
		return nil
	})
}

// CountMembers returns the number of members.
func (r *Repository) CountMembers(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting members: %w", err)
	}
	return count, nil
}

// queryMember runs a single-row member query.
func (r *Repository) queryMember(ctx context.Context, query string, args ...any) (*entities.Member, error) {
	var m entities.Member
	var gender int
	var remark sql.NullString

	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&m.ID,
		&m.Name,
		&m.Generation,
		&gender,
		&remark,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning member: %w", err)
	}

	m.Gender = entities.Gender(gender)
	m.Remark = remark.String
	return &m, nil
}

// queryMembers is a helper to execute member list queries.
func (r *Repository) queryMembers(ctx context.Context, query string, args ...any) ([]entities.Member, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []entities.Member
	for rows.Next() {
		var m entities.Member
		var gender int
		var remark sql.NullString
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Generation,
			&gender,
			&remark,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		m.Gender = entities.Gender(gender)
		m.Remark = remark.String
		members = append(members, m)
	}
	return members, rows.Err()
}

// InsertRelationship stores rel unless the same triple exists. On return
// rel.ID holds the id of the stored or pre-existing row.
func (r *Repository) InsertRelationship(ctx context.Context, rel *entities.Relationship) (bool, error) {
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = timeNow().UTC()
	}

	query := `
		INSERT INTO relationships (member1, member2, relation, created_at)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM relationships WHERE member1 = ? AND member2 = ? AND relation = ?
		)
	`
	result, err := r.q.ExecContext(ctx, query,
		rel.FromID, rel.ToID, int(rel.Type), rel.CreatedAt,
		rel.FromID, rel.ToID, int(rel.Type),
	)
	if err != nil {
		return false, fmt.Errorf("inserting relationship: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	if rows > 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("reading relationship id: %w", err)
		}
		rel.ID = id
		return true, nil
	}

	existing := `SELECT MIN(id) FROM relationships WHERE member1 = ? AND member2 = ? AND relation = ?`
	if err := r.q.QueryRowContext(ctx, existing, rel.FromID, rel.ToID, int(rel.Type)).Scan(&rel.ID); err != nil {
		return false, fmt.Errorf("finding existing relationship: %w", err)
	}
	return false, nil
}

// FindRelationshipByID finds a relationship by its ID.
func (r *Repository) FindRelationshipByID(ctx context.Context, id int64) (*entities.Relationship, error) {
	rels, err := r.queryRelationships(ctx, `
		SELECT id, member1, member2, relation, created_at
		FROM relationships WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return &rels[0], nil
}

// FindRelationshipsFrom lists edges whose from end is the member.
func (r *Repository) FindRelationshipsFrom(ctx context.Context, memberID int64) ([]entities.Relationship, error) {
	query := `
		SELECT id, member1, member2, relation, created_at
		FROM relationships
		WHERE member1 = ?
		ORDER BY id
	`
	return r.queryRelationships(ctx, query, memberID)
}

// FindRelationshipsInvolving lists edges touching the member in either direction.
func (r *Repository) FindRelationshipsInvolving(ctx context.Context, memberID int64) ([]entities.Relationship, error) {
	query := `
		SELECT id, member1, member2, relation, created_at
		FROM relationships
		WHERE member1 = ? OR member2 = ?
		ORDER BY id
	`
	return r.queryRelationships(ctx, query, memberID, memberID)
}

// FindRelationshipsByType lists edges of one relation code.
func (r *Repository) FindRelationshipsByType(ctx context.Context, code entities.RelationCode) ([]entities.Relationship, error) {
	query := `
		SELECT id, member1, member2, relation, created_at
		FROM relationships
		WHERE relation = ?
		ORDER BY id
	`
	return r.queryRelationships(ctx, query, int(code))
}

// ListRelationships lists every edge ordered by ID.
func (r *Repository) ListRelationships(ctx context.Context) ([]entities.Relationship, error) {
	query := `SELECT id, member1, member2, relation, created_at FROM relationships ORDER BY id`
	return r.queryRelationships(ctx, query)
}

// FindCounterpart returns the to end of the first (fromID, ?, code) edge.
func (r *Repository) FindCounterpart(ctx context.Context, fromID int64, code entities.RelationCode) (int64, bool, error) {
	query := `SELECT member2 FROM relationships WHERE member1 = ? AND relation = ? ORDER BY id LIMIT 1`

	var id int64
	err := r.q.QueryRowContext(ctx, query, fromID, int(code)).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("finding counterpart: %w", err)
	}
	return id, true, nil
}

// DeleteDuplicateRelationships keeps the lowest id of every triple.
func (r *Repository) DeleteDuplicateRelationships(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM relationships
		WHERE id NOT IN (
			SELECT MIN(id) FROM relationships GROUP BY member1, member2, relation
		)
	`
	result, err := r.q.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deleting duplicate relationships: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return rows, nil
}

// CountRelationships returns the number of stored edges.
func (r *Repository) CountRelationships(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting relationships: %w", err)
	}
	return count, nil
}

// queryRelationships is a helper to execute relationship queries.
func (r *Repository) queryRelationships(ctx context.Context, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var relationships []entities.Relationship
	for rows.Next() {
		var rel entities.Relationship
		var code int
		if err := rows.Scan(
			&rel.ID,
			&rel.FromID,
			&rel.ToID,
			&code,
			&rel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rel.Type = entities.RelationCode(code)
		relationships = append(relationships, rel)
	}
	return relationships, rows.Err()
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, memberID int64, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var member sql.NullInt64
	if memberID != 0 {
		member = sql.NullInt64{Int64: memberID, Valid: true}
	}

	query := `INSERT INTO audit_log (action, member_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query, action, member, detailsJSON, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog lists the newest entries, optionally filtered by action.
func (r *Repository) FindAuditLog(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if action == "" {
		query := `
			SELECT id, action, member_id, details, created_at
			FROM audit_log
			ORDER BY id DESC
			LIMIT ?
		`
		return r.queryAuditLog(ctx, query, limit)
	}
	query := `
		SELECT id, action, member_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, action, limit)
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var memberID sql.NullInt64
		var details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&memberID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.MemberID = memberID.Int64

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// likePattern wraps s for a substring LIKE match, escaping wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
