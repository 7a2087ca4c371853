package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/membership"
)

func newTestRoster(t *testing.T) *Roster {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "roster_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestAddAndList(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()

	if err := r.AddMember(ctx, "g1", "Ana"); err != nil {
		t.Fatal(err)
	}
	if err := r.AddMember(ctx, "g1", "Bo"); err != nil {
		t.Fatal(err)
	}
	// Adding twice is a no-op.
	if err := r.AddMember(ctx, "g1", "Ana"); err != nil {
		t.Fatal(err)
	}

	members, err := r.Members(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
}

func TestMembersUnknownGroup(t *testing.T) {
	r := newTestRoster(t)
	_, err := r.Members(context.Background(), "missing")
	if !errors.Is(err, membership.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestRemoveMemberKeepsGroup(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()

	_ = r.AddMember(ctx, "g1", "Ana")
	if err := r.RemoveMember(ctx, "g1", "Ana"); err != nil {
		t.Fatal(err)
	}

	members, err := r.Members(ctx, "g1")
	if err != nil {
		t.Fatalf("group should still exist: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("expected empty roster, got %d", len(members))
	}
}

func TestGateOverRoster(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()
	_ = r.AddMember(ctx, "g1", "Ana")

	gate := membership.NewGate(r)
	ok, err := gate.IsMember(ctx, "g1", "Ana")
	if err != nil || !ok {
		t.Errorf("expected Ana to be a member, got %v %v", ok, err)
	}
	ok, err = gate.IsMember(ctx, "g2", "Ana")
	if err != nil || ok {
		t.Errorf("expected unknown group to deny without error, got %v %v", ok, err)
	}
}

func TestGroups(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()
	_ = r.AddMember(ctx, "g1", "Ana")
	_ = r.AddMember(ctx, "g1", "Bo")
	_ = r.AddMember(ctx, "g2", "Cy")
	_ = r.RemoveMember(ctx, "g2", "Cy")

	groups, err := r.Groups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 || len(groups[1].Members) != 0 {
		t.Errorf("unexpected rosters: %+v", groups)
	}
}
