package entities

import "time"

// Registry-wide constants. These are fixed contracts of the registry, not
// runtime configuration.
const (
	MaxSubjects  = 100
	VoteCooldown = 24 * time.Hour
	MinWeight    = 1
	MaxWeight    = 10
)

// Vote is a single weighted endorsement of a subject by one voter.
// Votes are immutable once recorded.
type Vote struct {
	Voter  string
	Weight int
	CastAt time.Time
}

// Subject is a votable record. Ids are sequential from zero, never reused,
// and subjects are never deleted. The vote sequence is append-only and
// VoteWeight always equals the sum of its weights.
type Subject struct {
	SubjectID   int64
	Name        string
	Description string
	Content     string
	Owner       string
	VoteWeight  int64
	Votes       []Vote
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Subject) VoteCount() int {
	return len(s.Votes)
}

// SubjectProjection is the read-side view returned to dependents. Field
// order matches the canonical projection contract.
type SubjectProjection struct {
	SubjectID   int64
	Name        string
	Description string
	Content     string
	Owner       string
	VoteWeight  int64
	CreatedAt   time.Time
	VoteCount   int
}

// RankedSubject is one leaderboard row. Rank starts at 1.
type RankedSubject struct {
	SubjectID  int64
	Name       string
	Owner      string
	VoteWeight int64
	Rank       int
}

type RegistryStats struct {
	TotalSubjects     int64
	TotalVotes        int64
	TotalWeight       int64
	CapacityRemaining int64
}
