package queries

import (
	"context"
	"sort"

	"galleria/contexts/gallery/voting-registry/domain/entities"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	"galleria/contexts/gallery/voting-registry/ports"
)

type RankingUseCase struct {
	Subjects ports.SubjectRepository
}

// GetSubject returns the read-side projection of one subject.
func (uc RankingUseCase) GetSubject(ctx context.Context, subjectID int64) (entities.SubjectProjection, error) {
	subject, err := uc.Subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return entities.SubjectProjection{}, err
	}
	return entities.SubjectProjection{
		SubjectID:   subject.SubjectID,
		Name:        subject.Name,
		Description: subject.Description,
		Content:     subject.Content,
		Owner:       subject.Owner,
		VoteWeight:  subject.VoteWeight,
		CreatedAt:   subject.CreatedAt,
		VoteCount:   subject.VoteCount(),
	}, nil
}

// TopSubjects returns the k subjects with the highest cumulative vote weight
// in descending order. Equal weights rank by ascending subject id; that
// tie-break is an observable contract, not an artifact of the sort. k must be
// positive and no larger than the current subject count.
func (uc RankingUseCase) TopSubjects(ctx context.Context, k int) ([]entities.RankedSubject, error) {
	subjects, err := uc.Subjects.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	if k <= 0 || k > len(subjects) {
		return nil, domainerrors.ErrInvalidArgument
	}

	sort.SliceStable(subjects, func(i, j int) bool {
		if subjects[i].VoteWeight == subjects[j].VoteWeight {
			return subjects[i].SubjectID < subjects[j].SubjectID
		}
		return subjects[i].VoteWeight > subjects[j].VoteWeight
	})

	ranked := make([]entities.RankedSubject, 0, k)
	for i, subject := range subjects[:k] {
		ranked = append(ranked, entities.RankedSubject{
			SubjectID:  subject.SubjectID,
			Name:       subject.Name,
			Owner:      subject.Owner,
			VoteWeight: subject.VoteWeight,
			Rank:       i + 1,
		})
	}
	return ranked, nil
}

// Stats summarizes registry-wide counters for dashboards and capacity
// monitoring.
func (uc RankingUseCase) Stats(ctx context.Context) (entities.RegistryStats, error) {
	subjects, err := uc.Subjects.ListSubjects(ctx)
	if err != nil {
		return entities.RegistryStats{}, err
	}
	votes, err := uc.Subjects.CountVotes(ctx)
	if err != nil {
		return entities.RegistryStats{}, err
	}

	stats := entities.RegistryStats{
		TotalSubjects:     int64(len(subjects)),
		TotalVotes:        votes,
		CapacityRemaining: entities.MaxSubjects - int64(len(subjects)),
	}
	for _, subject := range subjects {
		stats.TotalWeight += subject.VoteWeight
	}
	return stats, nil
}
