package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"galleria/contexts/gallery/voting-registry/domain/entities"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	"galleria/contexts/gallery/voting-registry/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type votedKey struct {
	voter     string
	subjectID int64
}

// Store is the in-memory registry backend. A single RWMutex covers every
// collection, so each port call observes and applies a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	subjects  map[int64]entities.Subject
	lastVote  map[string]time.Time
	hasVoted  map[votedKey]bool
	voteCount int64
	outbox    map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		subjects: make(map[int64]entities.Subject),
		lastVote: make(map[string]time.Time),
		hasVoted: make(map[votedKey]bool),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) InsertSubjectWithOutbox(_ context.Context, subject entities.Subject, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subjects[subject.SubjectID]; exists {
		return domainerrors.ErrConflict
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.subjects[subject.SubjectID] = subject
	return nil
}

func (s *Store) AppendVoteWithOutbox(_ context.Context, subjectID int64, vote entities.Vote, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return domainerrors.ErrSubjectNotFound
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}

	subject.Votes = append(subject.Votes, vote)
	subject.VoteWeight += int64(vote.Weight)
	subject.UpdatedAt = vote.CastAt
	s.subjects[subjectID] = subject

	s.hasVoted[votedKey{voter: vote.Voter, subjectID: subjectID}] = true
	if vote.CastAt.After(s.lastVote[vote.Voter]) {
		s.lastVote[vote.Voter] = vote.CastAt
	}
	s.voteCount++
	return nil
}

func (s *Store) ReplaceContentWithOutbox(_ context.Context, subjectID int64, content string, updatedAt time.Time, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return domainerrors.ErrSubjectNotFound
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	subject.Content = content
	subject.UpdatedAt = updatedAt
	s.subjects[subjectID] = subject
	return nil
}

func (s *Store) GetSubject(_ context.Context, subjectID int64) (entities.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return entities.Subject{}, domainerrors.ErrSubjectNotFound
	}
	// The vote slice is shared with internal state; hand out a copy.
	subject.Votes = append([]entities.Vote(nil), subject.Votes...)
	return subject, nil
}

func (s *Store) ListSubjects(_ context.Context) ([]entities.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		subject.Votes = nil
		items = append(items, subject)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubjectID < items[j].SubjectID
	})
	return items, nil
}

func (s *Store) CountSubjects(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.subjects)), nil
}

func (s *Store) CountVotes(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voteCount, nil
}

func (s *Store) LastVoteAt(_ context.Context, voter string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.lastVote[voter]
	return at, ok, nil
}

func (s *Store) HasVoted(_ context.Context, voter string, subjectID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasVoted[votedKey{voter: voter, subjectID: subjectID}], nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) appendOutboxLocked(event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	outboxID := event.EventID
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return domainerrors.ErrConflict
	}
	createdAt := event.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

var _ ports.SubjectRepository = (*Store)(nil)
var _ ports.VoterLedger = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
