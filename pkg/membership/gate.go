// Package membership decides whether a caller belongs to the group it claims.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

// ErrGroupNotFound is returned by a Roster when the group does not exist.
var ErrGroupNotFound = errors.New("group not found")

// Roster fetches a group's member list.
type Roster interface {
	Members(ctx context.Context, groupID string) ([]models.Member, error)
}

// Gate checks membership by exact display-name match.
type Gate struct {
	roster Roster
}

// NewGate creates a Gate backed by the given roster.
func NewGate(r Roster) *Gate {
	return &Gate{roster: r}
}

// IsMember reports whether callerName is on groupID's roster.
// An unknown group is "not a member", not an error. Any other roster failure is
// returned so the caller can apply its error policy.
func (g *Gate) IsMember(ctx context.Context, groupID, callerName string) (bool, error) {
	members, err := g.roster.Members(ctx, groupID)
	if errors.Is(err, ErrGroupNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetch roster: %w", err)
	}
	for _, m := range members {
		if m.DisplayName == callerName {
			return true, nil
		}
	}
	return false, nil
}
