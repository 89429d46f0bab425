package ports

import (
	"context"
	"time"

	"galleria/contexts/gallery/voting-registry/domain/entities"
	"galleria/internal/shared/events"
)

// EventEnvelope reuses the canonical cross-module envelope contract.
type EventEnvelope = events.Envelope

// SubjectRepository owns subject persistence and the transaction boundaries
// for registry writes. Each mutating method must apply its state change and
// the outbox event atomically: either both are persisted or neither is.
type SubjectRepository interface {
	// InsertSubjectWithOutbox persists a new subject under its caller-allocated
	// sequential id. An existing id is a conflict.
	InsertSubjectWithOutbox(ctx context.Context, subject entities.Subject, event EventEnvelope) error
	// AppendVoteWithOutbox appends the vote to the subject's vote sequence,
	// adds its weight to the cumulative total, and records the voter in the
	// ledger (per-subject voted marker plus global last-vote timestamp).
	AppendVoteWithOutbox(ctx context.Context, subjectID int64, vote entities.Vote, event EventEnvelope) error
	// ReplaceContentWithOutbox swaps the subject's content payload.
	ReplaceContentWithOutbox(ctx context.Context, subjectID int64, content string, updatedAt time.Time, event EventEnvelope) error

	// GetSubject returns the subject including its full vote sequence in cast
	// order.
	GetSubject(ctx context.Context, subjectID int64) (entities.Subject, error)
	// ListSubjects returns all subjects ordered by ascending id. Vote
	// sequences are omitted; cumulative weights are populated.
	ListSubjects(ctx context.Context) ([]entities.Subject, error)
	CountSubjects(ctx context.Context) (int64, error)
	CountVotes(ctx context.Context) (int64, error)
}

// VoterLedger answers the per-voter participation questions behind the
// duplicate-vote and cooldown rules.
type VoterLedger interface {
	// LastVoteAt reports the voter's most recent vote on any subject. The
	// boolean is false for first-time voters, which makes the cooldown check
	// always pass for them.
	LastVoteAt(ctx context.Context, voter string) (time.Time, bool, error)
	HasVoted(ctx context.Context, voter string, subjectID int64) (bool, error)
}

// Clock allows deterministic testing of cooldown rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
