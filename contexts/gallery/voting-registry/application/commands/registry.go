package commands

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "galleria/contexts/gallery/voting-registry/application"
	"galleria/contexts/gallery/voting-registry/domain/entities"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	"galleria/contexts/gallery/voting-registry/ports"
)

// CreateSubjectCommand is the write-model input for subject registration.
type CreateSubjectCommand struct {
	Name        string
	Description string
	Content     string
	Creator     string
}

// CastVoteCommand records one weighted vote by a voter on a subject.
type CastVoteCommand struct {
	SubjectID int64
	Voter     string
	Weight    int
}

// UpdateContentCommand replaces a subject's content payload.
type UpdateContentCommand struct {
	SubjectID  int64
	NewContent string
	Requester  string
}

// RegistryUseCase orchestrates registry writes while enforcing the core
// invariants: sequential id allocation under a capacity bound, one vote per
// (voter, subject), the global per-voter cooldown, and the weight range.
//
// Mutations are serialized by an internal mutex so that each operation is
// atomic with respect to all others; reads go through the repository and
// never observe a partially applied write. On any precondition failure the
// state is left entirely unchanged and no event is emitted.
type RegistryUseCase struct {
	mu sync.Mutex

	Subjects ports.SubjectRepository
	Ledger   ports.VoterLedger
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// CreateSubject registers a new subject and allocates the next sequential id
// starting at zero. Ids are never reused.
func (uc *RegistryUseCase) CreateSubject(ctx context.Context, cmd CreateSubjectCommand) (entities.Subject, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	creator := strings.TrimSpace(cmd.Creator)
	if name == "" || cmd.Content == "" || creator == "" {
		logger.Warn("subject create validation failed",
			"event", "registry_subject_create_validation_failed",
			"module", "gallery/voting-registry",
			"layer", "application",
			"creator", creator,
		)
		return entities.Subject{}, domainerrors.ErrInvalidArgument
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	count, err := uc.Subjects.CountSubjects(ctx)
	if err != nil {
		return entities.Subject{}, err
	}
	if count >= entities.MaxSubjects {
		logger.Warn("subject capacity exhausted",
			"event", "registry_subject_capacity_exhausted",
			"module", "gallery/voting-registry",
			"layer", "application",
			"creator", creator,
			"capacity", entities.MaxSubjects,
		)
		return entities.Subject{}, domainerrors.ErrCapacityExceeded
	}

	now := uc.now()
	subject := entities.Subject{
		// Subjects are never deleted, so the current count is the next id.
		SubjectID:   count,
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Content:     cmd.Content,
		Owner:       creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	event, err := uc.newEnvelope(ctx, "subject.created", subject.SubjectID, now, map[string]any{
		"subject_id": subject.SubjectID,
		"creator":    subject.Owner,
		"name":       subject.Name,
	})
	if err != nil {
		return entities.Subject{}, err
	}
	if err := uc.Subjects.InsertSubjectWithOutbox(ctx, subject, event); err != nil {
		logger.Error("subject insert failed",
			"event", "registry_subject_insert_failed",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", subject.SubjectID,
			"error", err.Error(),
		)
		return entities.Subject{}, err
	}

	logger.Info("subject created",
		"event", "registry_subject_created",
		"module", "gallery/voting-registry",
		"layer", "application",
		"subject_id", subject.SubjectID,
		"creator", subject.Owner,
		"name", subject.Name,
	)
	return subject, nil
}

// CastVote appends one immutable vote. Precondition order is part of the
// contract: subject existence, then the per-subject duplicate check, then the
// global cooldown, then the weight range. The cooldown is keyed per voter
// globally: a vote on subject A blocks votes on subject B until it expires,
// even though the duplicate marker is tracked per subject.
func (uc *RegistryUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	voter := strings.TrimSpace(cmd.Voter)
	if voter == "" {
		logger.Warn("vote validation failed",
			"event", "registry_vote_validation_failed",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
		)
		return entities.Vote{}, domainerrors.ErrInvalidArgument
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, err := uc.Subjects.GetSubject(ctx, cmd.SubjectID); err != nil {
		return entities.Vote{}, err
	}

	voted, err := uc.Ledger.HasVoted(ctx, voter, cmd.SubjectID)
	if err != nil {
		return entities.Vote{}, err
	}
	if voted {
		logger.Warn("duplicate vote rejected",
			"event", "registry_vote_duplicate",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"voter", voter,
		)
		return entities.Vote{}, domainerrors.ErrDuplicateVote
	}

	now := uc.now()
	last, found, err := uc.Ledger.LastVoteAt(ctx, voter)
	if err != nil {
		return entities.Vote{}, err
	}
	if found && now.Before(last.Add(entities.VoteCooldown)) {
		logger.Warn("vote rejected by cooldown",
			"event", "registry_vote_cooldown_active",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"voter", voter,
			"last_vote_at", last.UTC().Format(time.RFC3339),
		)
		return entities.Vote{}, domainerrors.ErrCooldownActive
	}

	if cmd.Weight < entities.MinWeight || cmd.Weight > entities.MaxWeight {
		logger.Warn("vote weight out of range",
			"event", "registry_vote_invalid_weight",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"voter", voter,
			"weight", cmd.Weight,
		)
		return entities.Vote{}, domainerrors.ErrInvalidWeight
	}

	vote := entities.Vote{
		Voter:  voter,
		Weight: cmd.Weight,
		CastAt: now,
	}
	event, err := uc.newEnvelope(ctx, "vote.cast", cmd.SubjectID, now, map[string]any{
		"subject_id": cmd.SubjectID,
		"voter":      vote.Voter,
		"weight":     vote.Weight,
	})
	if err != nil {
		return entities.Vote{}, err
	}
	if err := uc.Subjects.AppendVoteWithOutbox(ctx, cmd.SubjectID, vote, event); err != nil {
		logger.Error("vote append failed",
			"event", "registry_vote_append_failed",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"voter", voter,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}

	logger.Info("vote cast",
		"event", "registry_vote_cast",
		"module", "gallery/voting-registry",
		"layer", "application",
		"subject_id", cmd.SubjectID,
		"voter", voter,
		"weight", vote.Weight,
	)
	return vote, nil
}

// UpdateContent replaces the content payload. Only the subject owner may do
// this; everything else about a subject is immutable after creation.
func (uc *RegistryUseCase) UpdateContent(ctx context.Context, cmd UpdateContentCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	requester := strings.TrimSpace(cmd.Requester)
	if requester == "" || cmd.NewContent == "" {
		logger.Warn("content update validation failed",
			"event", "registry_content_update_validation_failed",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"requester", requester,
		)
		return domainerrors.ErrInvalidArgument
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	subject, err := uc.Subjects.GetSubject(ctx, cmd.SubjectID)
	if err != nil {
		return err
	}
	if subject.Owner != requester {
		logger.Warn("content update denied",
			"event", "registry_content_update_denied",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"requester", requester,
		)
		return domainerrors.ErrPermissionDenied
	}

	now := uc.now()
	event, err := uc.newEnvelope(ctx, "subject.updated", cmd.SubjectID, now, map[string]any{
		"subject_id": cmd.SubjectID,
		"owner":      subject.Owner,
	})
	if err != nil {
		return err
	}
	if err := uc.Subjects.ReplaceContentWithOutbox(ctx, cmd.SubjectID, cmd.NewContent, now, event); err != nil {
		logger.Error("content update failed",
			"event", "registry_content_update_failed",
			"module", "gallery/voting-registry",
			"layer", "application",
			"subject_id", cmd.SubjectID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("subject content updated",
		"event", "registry_content_updated",
		"module", "gallery/voting-registry",
		"layer", "application",
		"subject_id", cmd.SubjectID,
		"owner", subject.Owner,
	)
	return nil
}

func (uc *RegistryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
