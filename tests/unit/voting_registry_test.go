package unit

import (
	"context"
	"errors"
	"testing"

	votingregistry "galleria/contexts/gallery/voting-registry"
	domainerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	httptransport "galleria/contexts/gallery/voting-registry/transport/http"
)

func TestRegistryCreateVoteAndRank(t *testing.T) {
	module := votingregistry.NewInMemoryModule(nil)

	first, err := module.Handler.CreateSubjectHandler(context.Background(), "alice", httptransport.CreateSubjectRequest{
		Name:        "Harbor at Dusk",
		Description: "oil on canvas",
		Content:     "ipfs://bafy-harbor",
	})
	if err != nil {
		t.Fatalf("create subject failed: %v", err)
	}
	second, err := module.Handler.CreateSubjectHandler(context.Background(), "alice", httptransport.CreateSubjectRequest{
		Name:    "Winter Field",
		Content: "ipfs://bafy-field",
	})
	if err != nil {
		t.Fatalf("create second subject failed: %v", err)
	}
	if first.SubjectID != 0 || second.SubjectID != 1 {
		t.Fatalf("expected sequential ids, got %d and %d", first.SubjectID, second.SubjectID)
	}

	vote, err := module.Handler.CastVoteHandler(context.Background(), "bob", second.SubjectID, httptransport.CastVoteRequest{Weight: 8})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if vote.Weight != 8 || vote.Voter != "bob" {
		t.Fatalf("unexpected vote %+v", vote)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), "carol", first.SubjectID, httptransport.CastVoteRequest{Weight: 3}); err != nil {
		t.Fatalf("second vote failed: %v", err)
	}

	board, err := module.Handler.LeaderboardHandler(context.Background(), 2)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board.Items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(board.Items))
	}
	if board.Items[0].SubjectID != 1 || board.Items[0].VoteWeight != 8 || board.Items[0].Rank != 1 {
		t.Fatalf("unexpected leader %+v", board.Items[0])
	}
	if board.Items[1].SubjectID != 0 || board.Items[1].Rank != 2 {
		t.Fatalf("unexpected runner-up %+v", board.Items[1])
	}

	stats, err := module.Handler.StatsHandler(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalSubjects != 2 || stats.TotalVotes != 2 || stats.TotalWeight != 11 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRegistryVotingGuards(t *testing.T) {
	module := votingregistry.NewInMemoryModule(nil)

	subject, err := module.Handler.CreateSubjectHandler(context.Background(), "alice", httptransport.CreateSubjectRequest{
		Name:    "Harbor at Dusk",
		Content: "ipfs://bafy-harbor",
	})
	if err != nil {
		t.Fatalf("create subject failed: %v", err)
	}
	other, err := module.Handler.CreateSubjectHandler(context.Background(), "alice", httptransport.CreateSubjectRequest{
		Name:    "Winter Field",
		Content: "ipfs://bafy-field",
	})
	if err != nil {
		t.Fatalf("create second subject failed: %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), "bob", subject.SubjectID, httptransport.CastVoteRequest{Weight: 5}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	_, err = module.Handler.CastVoteHandler(context.Background(), "bob", subject.SubjectID, httptransport.CastVoteRequest{Weight: 5})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}
	_, err = module.Handler.CastVoteHandler(context.Background(), "bob", other.SubjectID, httptransport.CastVoteRequest{Weight: 5})
	if !errors.Is(err, domainerrors.ErrCooldownActive) {
		t.Fatalf("expected cooldown active, got %v", err)
	}
	_, err = module.Handler.CastVoteHandler(context.Background(), "carol", other.SubjectID, httptransport.CastVoteRequest{Weight: 0})
	if !errors.Is(err, domainerrors.ErrInvalidWeight) {
		t.Fatalf("expected invalid weight, got %v", err)
	}
}

func TestRegistryContentOwnership(t *testing.T) {
	module := votingregistry.NewInMemoryModule(nil)

	subject, err := module.Handler.CreateSubjectHandler(context.Background(), "alice", httptransport.CreateSubjectRequest{
		Name:    "Harbor at Dusk",
		Content: "ipfs://bafy-harbor",
	})
	if err != nil {
		t.Fatalf("create subject failed: %v", err)
	}

	err = module.Handler.UpdateContentHandler(context.Background(), "mallory", subject.SubjectID, httptransport.UpdateContentRequest{Content: "ipfs://bafy-hijack"})
	if !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if err := module.Handler.UpdateContentHandler(context.Background(), "alice", subject.SubjectID, httptransport.UpdateContentRequest{Content: "ipfs://bafy-harbor-v2"}); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}

	got, err := module.Handler.GetSubjectHandler(context.Background(), subject.SubjectID)
	if err != nil {
		t.Fatalf("get subject failed: %v", err)
	}
	if got.Content != "ipfs://bafy-harbor-v2" {
		t.Fatalf("expected updated content, got %q", got.Content)
	}
}
