package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSubjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

type SubjectResponse struct {
	SubjectID   int64     `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	Owner       string    `json:"owner"`
	VoteWeight  int64     `json:"vote_weight"`
	CreatedAt   time.Time `json:"created_at"`
	VoteCount   int       `json:"vote_count"`
}

type CastVoteRequest struct {
	Weight int `json:"weight"`
}

type VoteResponse struct {
	SubjectID int64     `json:"subject_id"`
	Voter     string    `json:"voter"`
	Weight    int       `json:"weight"`
	CastAt    time.Time `json:"cast_at"`
}

type UpdateContentRequest struct {
	Content string `json:"content"`
}

type LeaderboardItem struct {
	SubjectID  int64  `json:"subject_id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	VoteWeight int64  `json:"vote_weight"`
	Rank       int    `json:"rank"`
}

type LeaderboardResponse struct {
	Items []LeaderboardItem `json:"items"`
}

type StatsResponse struct {
	TotalSubjects     int64 `json:"total_subjects"`
	TotalVotes        int64 `json:"total_votes"`
	TotalWeight       int64 `json:"total_weight"`
	CapacityRemaining int64 `json:"capacity_remaining"`
}
