package domain

import "time"

// Badge is a static badge definition with award thresholds
type Badge struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rarity      string           `json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `json:"threshold"`
}

// UserBadge is an awarded badge instance
type UserBadge struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	BadgeCode string    `db:"badge_code" json:"badge_code"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

// BadgeProgress is the snapshot of account stats checked against thresholds
type BadgeProgress struct {
	Points              int64
	Level               int64
	Streak              int64
	ChallengesCompleted int64
}

// Badges holds the static definitions checked after every points award
var Badges = []Badge{
	{
		Code:        "WELCOME",
		Name:        "Welcome Aboard",
		Description: "Joined the platform",
		Rarity:      "common",
		Threshold:   map[string]int64{"event": 1}, // awarded on signup
	},
	{
		Code:        "FIRST_POINTS",
		Name:        "First Harvest",
		Description: "Earned your first points",
		Rarity:      "common",
		Threshold:   map[string]int64{"points": 1},
	},
	{
		Code:        "FIRST_CHALLENGE",
		Name:        "Challenger",
		Description: "Completed your first challenge",
		Rarity:      "common",
		Threshold:   map[string]int64{"challenges_completed": 1},
	},
	{
		Code:        "CHALLENGE_10",
		Name:        "Field Veteran",
		Description: "Completed 10 challenges",
		Rarity:      "rare",
		Threshold:   map[string]int64{"challenges_completed": 10},
	},
	{
		Code:        "LEVEL_5",
		Name:        "Growing Strong",
		Description: "Reached level 5",
		Rarity:      "rare",
		Threshold:   map[string]int64{"level": 5},
	},
	{
		Code:        "LEVEL_10",
		Name:        "Master Farmer",
		Description: "Reached level 10",
		Rarity:      "epic",
		Threshold:   map[string]int64{"level": 10},
	},
	{
		Code:        "STREAK_7",
		Name:        "Week of Dedication",
		Description: "Logged in 7 days in a row",
		Rarity:      "rare",
		Threshold:   map[string]int64{"streak": 7},
	},
	{
		Code:        "POINTS_10000",
		Name:        "Point Baron",
		Description: "Earned 10000 points",
		Rarity:      "legendary",
		Threshold:   map[string]int64{"points": 10000},
	},
}

// Meets reports whether the progress snapshot satisfies every threshold
func (b Badge) Meets(p BadgeProgress) bool {
	for key, required := range b.Threshold {
		switch key {
		case "points":
			if p.Points < required {
				return false
			}
		case "level":
			if p.Level < required {
				return false
			}
		case "streak":
			if p.Streak < required {
				return false
			}
		case "challenges_completed":
			if p.ChallengesCompleted < required {
				return false
			}
		case "event":
			// event badges are awarded explicitly, never by threshold sweep
			return false
		}
	}
	return true
}

// BadgeByCode looks up a static definition
func BadgeByCode(code string) (Badge, bool) {
	for _, b := range Badges {
		if b.Code == code {
			return b, true
		}
	}
	return Badge{}, false
}
