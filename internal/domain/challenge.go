package domain

import "time"

// ChallengeType - cadence of a challenge
type ChallengeType string

const (
	ChallengeTypeDaily   ChallengeType = "daily"
	ChallengeTypeWeekly  ChallengeType = "weekly"
	ChallengeTypeMonthly ChallengeType = "monthly"
	ChallengeTypeSpecial ChallengeType = "special"
)

// ParticipantStatus - state of one account within a challenge.
// in_progress and failed are accepted in storage but never produced
// by the engine; they are reserved for future flows.
type ParticipantStatus string

const (
	ParticipantPending    ParticipantStatus = "pending"
	ParticipantInProgress ParticipantStatus = "in_progress"
	ParticipantCompleted  ParticipantStatus = "completed"
	ParticipantFailed     ParticipantStatus = "failed"
)

// Eligibility restricts who may join a challenge. Empty lists and nil
// fields mean "no restriction".
type Eligibility struct {
	Roles []Role `json:"roles,omitempty"`
	// Experience must exactly equal the account's farming experience
	// tier when set. Exact match, not a minimum.
	Experience *string  `json:"experience,omitempty"`
	States     []string `json:"states,omitempty"`
}

// Allows applies all three eligibility checks against an account
func (e Eligibility) Allows(u *User) bool {
	if len(e.Roles) > 0 {
		found := false
		for _, r := range e.Roles {
			if r == u.Role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if e.Experience != nil && *e.Experience != u.FarmingExperience {
		return false
	}

	if len(e.States) > 0 {
		found := false
		for _, s := range e.States {
			if s == u.State {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Challenge is an admin-defined task with a points reward
type Challenge struct {
	ID          int64         `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Category    string        `db:"category" json:"category"`
	Difficulty  string        `db:"difficulty" json:"difficulty"`
	Type        ChallengeType `db:"challenge_type" json:"type"`
	Points      int64         `db:"points" json:"points"`
	Eligibility Eligibility   `db:"eligibility" json:"eligibility"`
	StartsAt    time.Time     `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time     `db:"ends_at" json:"ends_at"`
	IsActive    bool          `db:"is_active" json:"is_active"`
	CreatedBy   int64         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`

	TotalParticipants     int `db:"total_participants" json:"total_participants"`
	CompletedParticipants int `db:"completed_participants" json:"completed_participants"`
}

// CompletionRate returns completed/total as a percentage (0-100)
func (c *Challenge) CompletionRate() float64 {
	if c.TotalParticipants == 0 {
		return 0
	}
	return float64(c.CompletedParticipants) / float64(c.TotalParticipants) * 100
}

// Participant is one account's progress entry within a challenge.
// At most one entry exists per (challenge, account) pair.
type Participant struct {
	ID           int64             `db:"id" json:"id"`
	ChallengeID  int64             `db:"challenge_id" json:"challenge_id"`
	UserID       int64             `db:"user_id" json:"user_id"`
	Status       ParticipantStatus `db:"status" json:"status"`
	JoinedAt     time.Time         `db:"joined_at" json:"joined_at"`
	CompletedAt  *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	Submissions  []string          `db:"submissions" json:"submissions,omitempty"`
	PointsEarned int64             `db:"points_earned" json:"points_earned"`
}

// CanComplete reports whether the entry may still transition to completed
func (p *Participant) CanComplete() bool {
	return p.Status != ParticipantCompleted
}

// ParticipantWithChallenge pairs a progress entry with its challenge
// definition for listing endpoints
type ParticipantWithChallenge struct {
	Participant
	Challenge Challenge `json:"challenge"`
}
