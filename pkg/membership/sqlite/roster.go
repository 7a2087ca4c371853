// Package sqlite implements a membership.Roster on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/membership"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/sqlitedb"
)

const createGroupsTable = `
CREATE TABLE IF NOT EXISTS meal_groups (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const createMembersTable = `
CREATE TABLE IF NOT EXISTS group_members (
	group_id TEXT NOT NULL REFERENCES meal_groups(id),
	display_name TEXT NOT NULL,
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (group_id, display_name)
);
`

// Roster stores groups and their members.
type Roster struct {
	db *sql.DB
}

var _ membership.Roster = (*Roster)(nil)

// New opens the roster database and creates the schema.
func New(dbPath string) (*Roster, error) {
	db, err := sqlitedb.Open(dbPath, createGroupsTable, createMembersTable)
	if err != nil {
		return nil, fmt.Errorf("open roster db: %w", err)
	}
	return &Roster{db: db}, nil
}

// Members returns the roster of groupID, or membership.ErrGroupNotFound.
func (r *Roster) Members(ctx context.Context, groupID string) ([]models.Member, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM meal_groups WHERE id = ?`, groupID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, membership.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup group: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT display_name FROM group_members WHERE group_id = ? ORDER BY joined_at, display_name`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.DisplayName); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember adds displayName to groupID, creating the group if needed.
func (r *Roster) AddMember(ctx context.Context, groupID, displayName string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meal_groups (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, groupID, now); err != nil {
		return fmt.Errorf("ensure group: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, display_name, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT(group_id, display_name) DO NOTHING`, groupID, displayName, now); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return tx.Commit()
}

// RemoveMember removes displayName from groupID. The group itself is kept.
func (r *Roster) RemoveMember(ctx context.Context, groupID, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND display_name = ?`, groupID, displayName)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// Groups returns every group with its roster.
func (r *Roster) Groups(ctx context.Context) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, COALESCE(m.display_name, '')
		 FROM meal_groups g LEFT JOIN group_members m ON m.group_id = g.id
		 ORDER BY g.id, m.joined_at, m.display_name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		if len(groups) == 0 || groups[len(groups)-1].ID != id {
			groups = append(groups, models.Group{ID: id})
		}
		if name != "" {
			g := &groups[len(groups)-1]
			g.Members = append(g.Members, models.Member{DisplayName: name})
		}
	}
	return groups, rows.Err()
}

// Close releases the database connection.
func (r *Roster) Close() error {
	return r.db.Close()
}
