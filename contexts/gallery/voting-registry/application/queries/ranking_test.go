package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"galleria/contexts/gallery/voting-registry/adapters/memory"
	"galleria/contexts/gallery/voting-registry/application/commands"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

// seedRegistry creates len(weights) subjects with ids 0..n-1 and gives
// subject i a single vote of weights[i] (weight 0 leaves it unvoted).
func seedRegistry(t *testing.T, weights []int) (RankingUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	registry := &commands.RegistryUseCase{
		Subjects: store,
		Ledger:   store,
		Clock:    &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		IDGen:    store,
	}
	for i, weight := range weights {
		if _, err := registry.CreateSubject(context.Background(), commands.CreateSubjectCommand{
			Name:    "subject",
			Content: "payload",
			Creator: "creator-1",
		}); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		if weight == 0 {
			continue
		}
		if _, err := registry.CastVote(context.Background(), commands.CastVoteCommand{
			SubjectID: int64(i),
			Voter:     "voter-" + string(rune('a'+i)),
			Weight:    weight,
		}); err != nil {
			t.Fatalf("vote on %d failed: %v", i, err)
		}
	}
	return RankingUseCase{Subjects: store}, store
}

func TestTopSubjectsOrderAndTieBreak(t *testing.T) {
	rankings, _ := seedRegistry(t, []int{5, 9, 9, 2})

	top, err := rankings.TopSubjects(context.Background(), 3)
	if err != nil {
		t.Fatalf("top subjects failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(top))
	}
	// Subjects 1 and 2 tie on weight 9; the lower id wins the tie.
	wantIDs := []int64{1, 2, 0}
	for i, row := range top {
		if row.SubjectID != wantIDs[i] {
			t.Fatalf("rank %d: expected subject %d, got %d", i+1, wantIDs[i], row.SubjectID)
		}
		if row.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, row.Rank)
		}
	}
}

func TestTopSubjectsFullRange(t *testing.T) {
	rankings, _ := seedRegistry(t, []int{5, 9, 9, 2})

	top, err := rankings.TopSubjects(context.Background(), 4)
	if err != nil {
		t.Fatalf("top subjects failed: %v", err)
	}
	wantIDs := []int64{1, 2, 0, 3}
	for i, row := range top {
		if row.SubjectID != wantIDs[i] {
			t.Fatalf("rank %d: expected subject %d, got %d", i+1, wantIDs[i], row.SubjectID)
		}
	}
}

func TestTopSubjectsBoundsRejected(t *testing.T) {
	rankings, _ := seedRegistry(t, []int{5, 9})

	for _, k := range []int{0, -1, 3} {
		if _, err := rankings.TopSubjects(context.Background(), k); !errors.Is(err, domainerrors.ErrInvalidArgument) {
			t.Fatalf("k=%d: expected invalid argument, got %v", k, err)
		}
	}
}

func TestTopSubjectsEmptyRegistry(t *testing.T) {
	rankings := RankingUseCase{Subjects: memory.NewStore()}

	if _, err := rankings.TopSubjects(context.Background(), 1); !errors.Is(err, domainerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument on empty registry, got %v", err)
	}
}

func TestGetSubjectProjection(t *testing.T) {
	rankings, _ := seedRegistry(t, []int{0, 7})

	fresh, err := rankings.GetSubject(context.Background(), 0)
	if err != nil {
		t.Fatalf("get subject failed: %v", err)
	}
	if fresh.VoteWeight != 0 || fresh.VoteCount != 0 {
		t.Fatalf("fresh subject has weight %d and %d votes", fresh.VoteWeight, fresh.VoteCount)
	}
	if fresh.Name != "subject" || fresh.Content != "payload" || fresh.Owner != "creator-1" {
		t.Fatalf("unexpected projection %+v", fresh)
	}

	voted, err := rankings.GetSubject(context.Background(), 1)
	if err != nil {
		t.Fatalf("get subject failed: %v", err)
	}
	if voted.VoteWeight != 7 || voted.VoteCount != 1 {
		t.Fatalf("voted subject has weight %d and %d votes", voted.VoteWeight, voted.VoteCount)
	}

	if _, err := rankings.GetSubject(context.Background(), 99); !errors.Is(err, domainerrors.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

func TestStatsTotals(t *testing.T) {
	rankings, _ := seedRegistry(t, []int{5, 9, 0})

	stats, err := rankings.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalSubjects != 3 {
		t.Fatalf("expected 3 subjects, got %d", stats.TotalSubjects)
	}
	if stats.TotalVotes != 2 {
		t.Fatalf("expected 2 votes, got %d", stats.TotalVotes)
	}
	if stats.TotalWeight != 14 {
		t.Fatalf("expected total weight 14, got %d", stats.TotalWeight)
	}
	if stats.CapacityRemaining != 97 {
		t.Fatalf("expected capacity 97, got %d", stats.CapacityRemaining)
	}
}
