package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"galleria/contexts/gallery/voting-registry/domain/entities"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	"galleria/contexts/gallery/voting-registry/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the registry tables. Called from bootstrap before the
// repository serves traffic.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&subjectModel{},
		&voteModel{},
		&ledgerModel{},
		&outboxModel{},
	)
}

func (r *Repository) InsertSubjectWithOutbox(ctx context.Context, subject entities.Subject, event ports.EventEnvelope) error {
	row := subjectModelFromEntity(subject)
	outboxRow, err := outboxModelFromEnvelope(event)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		return tx.Create(&outboxRow).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("registry_repo_insert_subject_failed", err,
			"subject_id", subject.SubjectID,
		)
	}
	return nil
}

func (r *Repository) AppendVoteWithOutbox(ctx context.Context, subjectID int64, vote entities.Vote, event ports.EventEnvelope) error {
	voteRow := voteModel{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Voter:     vote.Voter,
		Weight:    vote.Weight,
		CastAt:    vote.CastAt.UTC(),
	}
	outboxRow, err := outboxModelFromEnvelope(event)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&subjectModel{}).
			Where("id = ?", subjectID).
			UpdateColumns(map[string]any{
				"vote_weight": gorm.Expr("vote_weight + ?", vote.Weight),
				"updated_at":  vote.CastAt.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrSubjectNotFound
		}
		if err := tx.Create(&voteRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateVote
			}
			return err
		}
		ledgerRow := ledgerModel{
			Voter:      vote.Voter,
			LastVoteAt: vote.CastAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "voter"}},
			DoUpdates: clause.Assignments(map[string]any{"last_vote_at": ledgerRow.LastVoteAt}),
		}).Create(&ledgerRow).Error; err != nil {
			return err
		}
		return tx.Create(&outboxRow).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrSubjectNotFound) || errors.Is(err, domainerrors.ErrDuplicateVote) {
			return err
		}
		return r.logError("registry_repo_append_vote_failed", err,
			"subject_id", subjectID,
			"voter", vote.Voter,
		)
	}
	return nil
}

func (r *Repository) ReplaceContentWithOutbox(ctx context.Context, subjectID int64, content string, updatedAt time.Time, event ports.EventEnvelope) error {
	outboxRow, err := outboxModelFromEnvelope(event)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&subjectModel{}).
			Where("id = ?", subjectID).
			UpdateColumns(map[string]any{
				"content":    content,
				"updated_at": updatedAt.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrSubjectNotFound
		}
		return tx.Create(&outboxRow).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrSubjectNotFound) {
			return err
		}
		return r.logError("registry_repo_replace_content_failed", err,
			"subject_id", subjectID,
		)
	}
	return nil
}

func (r *Repository) GetSubject(ctx context.Context, subjectID int64) (entities.Subject, error) {
	var row subjectModel
	err := r.db.WithContext(ctx).
		Where("id = ?", subjectID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Subject{}, domainerrors.ErrSubjectNotFound
		}
		return entities.Subject{}, r.logError("registry_repo_get_subject_failed", err, "subject_id", subjectID)
	}

	var voteRows []voteModel
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("cast_at ASC").
		Find(&voteRows).Error; err != nil {
		return entities.Subject{}, r.logError("registry_repo_list_votes_failed", err, "subject_id", subjectID)
	}

	subject := row.toEntity()
	subject.Votes = make([]entities.Vote, 0, len(voteRows))
	for _, voteRow := range voteRows {
		subject.Votes = append(subject.Votes, voteRow.toEntity())
	}
	return subject, nil
}

func (r *Repository) ListSubjects(ctx context.Context) ([]entities.Subject, error) {
	var rows []subjectModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("registry_repo_list_subjects_failed", err)
	}
	items := make([]entities.Subject, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountSubjects(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&subjectModel{}).Count(&count).Error; err != nil {
		return 0, r.logError("registry_repo_count_subjects_failed", err)
	}
	return count, nil
}

func (r *Repository) CountVotes(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&voteModel{}).Count(&count).Error; err != nil {
		return 0, r.logError("registry_repo_count_votes_failed", err)
	}
	return count, nil
}

func (r *Repository) LastVoteAt(ctx context.Context, voter string) (time.Time, bool, error) {
	var row ledgerModel
	err := r.db.WithContext(ctx).
		Where("voter = ?", voter).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, r.logError("registry_repo_last_vote_failed", err, "voter", voter)
	}
	return row.LastVoteAt.UTC(), true, nil
}

func (r *Repository) HasVoted(ctx context.Context, voter string, subjectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("subject_id = ?", subjectID).
		Where("voter = ?", voter).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("registry_repo_has_voted_failed", err,
			"subject_id", subjectID,
			"voter", voter,
		)
	}
	return count > 0, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("registry_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	at := publishedAt.UTC()
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		UpdateColumns(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &at,
		})
	if update.Error != nil {
		return r.logError("registry_repo_mark_outbox_failed", update.Error, "outbox_id", outboxID)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// SystemClock satisfies ports.Clock with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies ports.IDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "gallery/voting-registry",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("registry repository operation failed", fields...)
	return err
}

type subjectModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	Content     string    `gorm:"column:content"`
	Owner       string    `gorm:"column:owner"`
	VoteWeight  int64     `gorm:"column:vote_weight"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (subjectModel) TableName() string {
	return "subjects"
}

func subjectModelFromEntity(subject entities.Subject) subjectModel {
	return subjectModel{
		ID:          subject.SubjectID,
		Name:        subject.Name,
		Description: subject.Description,
		Content:     subject.Content,
		Owner:       subject.Owner,
		VoteWeight:  subject.VoteWeight,
		CreatedAt:   subject.CreatedAt.UTC(),
		UpdatedAt:   subject.UpdatedAt.UTC(),
	}
}

func (m subjectModel) toEntity() entities.Subject {
	return entities.Subject{
		SubjectID:   m.ID,
		Name:        m.Name,
		Description: m.Description,
		Content:     m.Content,
		Owner:       m.Owner,
		VoteWeight:  m.VoteWeight,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	SubjectID int64     `gorm:"column:subject_id;uniqueIndex:idx_subject_voter"`
	Voter     string    `gorm:"column:voter;uniqueIndex:idx_subject_voter"`
	Weight    int       `gorm:"column:weight"`
	CastAt    time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "subject_votes"
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		Voter:  m.Voter,
		Weight: m.Weight,
		CastAt: m.CastAt.UTC(),
	}
}

type ledgerModel struct {
	Voter      string    `gorm:"column:voter;primaryKey"`
	LastVoteAt time.Time `gorm:"column:last_vote_at"`
}

func (ledgerModel) TableName() string {
	return "voter_ledger"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "registry_outbox"
}

func outboxModelFromEnvelope(event ports.EventEnvelope) (outboxModel, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return outboxModel{}, err
	}
	outboxID := event.EventID
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := event.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return outboxModel{
		OutboxID:     outboxID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    createdAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.SubjectRepository = (*Repository)(nil)
var _ ports.VoterLedger = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
