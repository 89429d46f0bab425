package httpadapter

import (
	"context"
	"log/slog"

	"galleria/contexts/gallery/voting-registry/application/commands"
	"galleria/contexts/gallery/voting-registry/application/queries"
	"galleria/contexts/gallery/voting-registry/domain/entities"
	httptransport "galleria/contexts/gallery/voting-registry/transport/http"
)

type Handler struct {
	Registry *commands.RegistryUseCase
	Rankings queries.RankingUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateSubjectHandler(
	ctx context.Context,
	creator string,
	req httptransport.CreateSubjectRequest,
) (httptransport.SubjectResponse, error) {
	subject, err := h.Registry.CreateSubject(ctx, commands.CreateSubjectCommand{
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
		Creator:     creator,
	})
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return subjectResponse(subject), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voter string,
	subjectID int64,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Registry.CastVote(ctx, commands.CastVoteCommand{
		SubjectID: subjectID,
		Voter:     voter,
		Weight:    req.Weight,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		SubjectID: subjectID,
		Voter:     vote.Voter,
		Weight:    vote.Weight,
		CastAt:    vote.CastAt,
	}, nil
}

func (h Handler) UpdateContentHandler(
	ctx context.Context,
	requester string,
	subjectID int64,
	req httptransport.UpdateContentRequest,
) error {
	return h.Registry.UpdateContent(ctx, commands.UpdateContentCommand{
		SubjectID:  subjectID,
		NewContent: req.Content,
		Requester:  requester,
	})
}

func (h Handler) GetSubjectHandler(ctx context.Context, subjectID int64) (httptransport.SubjectResponse, error) {
	projection, err := h.Rankings.GetSubject(ctx, subjectID)
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return httptransport.SubjectResponse{
		SubjectID:   projection.SubjectID,
		Name:        projection.Name,
		Description: projection.Description,
		Content:     projection.Content,
		Owner:       projection.Owner,
		VoteWeight:  projection.VoteWeight,
		CreatedAt:   projection.CreatedAt,
		VoteCount:   projection.VoteCount,
	}, nil
}

func (h Handler) LeaderboardHandler(ctx context.Context, k int) (httptransport.LeaderboardResponse, error) {
	ranked, err := h.Rankings.TopSubjects(ctx, k)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	items := make([]httptransport.LeaderboardItem, 0, len(ranked))
	for _, row := range ranked {
		items = append(items, httptransport.LeaderboardItem{
			SubjectID:  row.SubjectID,
			Name:       row.Name,
			Owner:      row.Owner,
			VoteWeight: row.VoteWeight,
			Rank:       row.Rank,
		})
	}
	return httptransport.LeaderboardResponse{Items: items}, nil
}

func (h Handler) StatsHandler(ctx context.Context) (httptransport.StatsResponse, error) {
	stats, err := h.Rankings.Stats(ctx)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}
	return httptransport.StatsResponse{
		TotalSubjects:     stats.TotalSubjects,
		TotalVotes:        stats.TotalVotes,
		TotalWeight:       stats.TotalWeight,
		CapacityRemaining: stats.CapacityRemaining,
	}, nil
}

func subjectResponse(subject entities.Subject) httptransport.SubjectResponse {
	return httptransport.SubjectResponse{
		SubjectID:   subject.SubjectID,
		Name:        subject.Name,
		Description: subject.Description,
		Content:     subject.Content,
		Owner:       subject.Owner,
		VoteWeight:  subject.VoteWeight,
		CreatedAt:   subject.CreatedAt,
		VoteCount:   subject.VoteCount(),
	}
}
