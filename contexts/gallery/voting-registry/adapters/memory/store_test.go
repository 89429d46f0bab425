package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"galleria/contexts/gallery/voting-registry/domain/entities"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	"galleria/contexts/gallery/voting-registry/ports"
)

func testEnvelope(id string, eventType string, at time.Time) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:    id,
		EventType:  eventType,
		OccurredAt: at,
	}
}

func TestInsertSubjectRejectsDuplicateID(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	subject := entities.Subject{SubjectID: 0, Name: "first", Content: "payload", Owner: "alice", CreatedAt: now}
	if err := store.InsertSubjectWithOutbox(context.Background(), subject, testEnvelope("evt-1", "subject.created", now)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	err := store.InsertSubjectWithOutbox(context.Background(), subject, testEnvelope("evt-2", "subject.created", now))
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAppendVoteUpdatesLedgerAndWeight(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	subject := entities.Subject{SubjectID: 0, Name: "first", Content: "payload", Owner: "alice", CreatedAt: now}
	if err := store.InsertSubjectWithOutbox(context.Background(), subject, testEnvelope("evt-1", "subject.created", now)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	vote := entities.Vote{Voter: "bob", Weight: 6, CastAt: now}
	if err := store.AppendVoteWithOutbox(context.Background(), 0, vote, testEnvelope("evt-2", "vote.cast", now)); err != nil {
		t.Fatalf("append vote failed: %v", err)
	}

	got, err := store.GetSubject(context.Background(), 0)
	if err != nil {
		t.Fatalf("get subject failed: %v", err)
	}
	if got.VoteWeight != 6 || got.VoteCount() != 1 {
		t.Fatalf("unexpected totals %d/%d", got.VoteWeight, got.VoteCount())
	}

	voted, err := store.HasVoted(context.Background(), "bob", 0)
	if err != nil || !voted {
		t.Fatalf("expected bob recorded as voter, got %v %v", voted, err)
	}
	last, found, err := store.LastVoteAt(context.Background(), "bob")
	if err != nil || !found {
		t.Fatalf("expected last vote for bob, got %v %v", found, err)
	}
	if !last.Equal(now) {
		t.Fatalf("expected last vote %v, got %v", now, last)
	}
	count, err := store.CountVotes(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("expected 1 vote counted, got %d %v", count, err)
	}
}

func TestAppendVoteUnknownSubject(t *testing.T) {
	store := NewStore()
	vote := entities.Vote{Voter: "bob", Weight: 6, CastAt: time.Now().UTC()}
	err := store.AppendVoteWithOutbox(context.Background(), 9, vote, testEnvelope("evt-1", "vote.cast", vote.CastAt))
	if !errors.Is(err, domainerrors.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

func TestGetSubjectReturnsVoteCopy(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	subject := entities.Subject{SubjectID: 0, Name: "first", Content: "payload", Owner: "alice", CreatedAt: now}
	if err := store.InsertSubjectWithOutbox(context.Background(), subject, testEnvelope("evt-1", "subject.created", now)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	vote := entities.Vote{Voter: "bob", Weight: 6, CastAt: now}
	if err := store.AppendVoteWithOutbox(context.Background(), 0, vote, testEnvelope("evt-2", "vote.cast", now)); err != nil {
		t.Fatalf("append vote failed: %v", err)
	}

	first, err := store.GetSubject(context.Background(), 0)
	if err != nil {
		t.Fatalf("get subject failed: %v", err)
	}
	first.Votes[0].Voter = "tampered"

	second, err := store.GetSubject(context.Background(), 0)
	if err != nil {
		t.Fatalf("get subject failed: %v", err)
	}
	if second.Votes[0].Voter != "bob" {
		t.Fatalf("caller mutation leaked into store: %q", second.Votes[0].Voter)
	}
}

func TestListSubjectsOrderedWithoutVotes(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	for _, id := range []int64{2, 0, 1} {
		subject := entities.Subject{SubjectID: id, Name: "subject", Content: "payload", Owner: "alice", CreatedAt: now}
		if err := store.InsertSubjectWithOutbox(context.Background(), subject, testEnvelope("evt-"+string(rune('a'+id)), "subject.created", now)); err != nil {
			t.Fatalf("insert %d failed: %v", id, err)
		}
	}
	vote := entities.Vote{Voter: "bob", Weight: 6, CastAt: now}
	if err := store.AppendVoteWithOutbox(context.Background(), 1, vote, testEnvelope("evt-v", "vote.cast", now)); err != nil {
		t.Fatalf("append vote failed: %v", err)
	}

	items, err := store.ListSubjects(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 subjects, got %d", len(items))
	}
	for i, item := range items {
		if item.SubjectID != int64(i) {
			t.Fatalf("position %d holds subject %d", i, item.SubjectID)
		}
		if item.Votes != nil {
			t.Fatalf("list leaked vote sequence for subject %d", item.SubjectID)
		}
	}
	if items[1].VoteWeight != 6 {
		t.Fatalf("expected weight 6 on subject 1, got %d", items[1].VoteWeight)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore()
	base := time.Now().UTC()

	subject := entities.Subject{SubjectID: 0, Name: "subject", Content: "payload", Owner: "alice", CreatedAt: base}
	if err := store.InsertSubjectWithOutbox(context.Background(), subject, testEnvelope("evt-1", "subject.created", base)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	vote := entities.Vote{Voter: "bob", Weight: 6, CastAt: base.Add(time.Second)}
	if err := store.AppendVoteWithOutbox(context.Background(), 0, vote, testEnvelope("evt-2", "vote.cast", vote.CastAt)); err != nil {
		t.Fatalf("append vote failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}
	if pending[0].OutboxID != "evt-1" || pending[1].OutboxID != "evt-2" {
		t.Fatalf("pending rows out of order: %s, %s", pending[0].OutboxID, pending[1].OutboxID)
	}

	if err := store.MarkOutboxPublished(context.Background(), "evt-1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("unexpected pending rows after publish: %+v", pending)
	}

	if err := store.MarkOutboxPublished(context.Background(), "missing", time.Now().UTC()); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for unknown row, got %v", err)
	}
}
