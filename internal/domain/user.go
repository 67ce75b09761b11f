package domain

import "time"

// Role defines what kind of member an account is
type Role string

const (
	RoleFarmer  Role = "farmer"
	RoleStudent Role = "student"
	RoleDealer  Role = "dealer"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the known roles
func ValidRole(r Role) bool {
	switch r {
	case RoleFarmer, RoleStudent, RoleDealer, RoleAdmin:
		return true
	}
	return false
}

// ExperiencePerLevel - experience needed per level step
const ExperiencePerLevel = 1000

// User is a platform account with embedded gamification and wallet state
type User struct {
	ID           int64  `db:"id" json:"id"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone,omitempty"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`

	IsEmailVerified bool       `db:"is_email_verified" json:"is_email_verified"`
	IsPhoneVerified bool       `db:"is_phone_verified" json:"is_phone_verified"`
	OTPCode         *string    `db:"otp_code" json:"-"`
	OTPChannel      *string    `db:"otp_channel" json:"-"`
	OTPExpiresAt    *time.Time `db:"otp_expires_at" json:"-"`

	// Gamification state. Experience mirrors Points on every award path;
	// both are kept because level and leaderboard logic read experience.
	Level      int   `db:"level" json:"level"`
	Experience int64 `db:"experience" json:"experience"`
	Points     int64 `db:"points" json:"points"`
	Streak     int   `db:"streak" json:"streak"`
	Balance    int64 `db:"balance" json:"balance"`

	// Farming profile used by challenge eligibility
	FarmingExperience string `db:"farming_experience" json:"farming_experience,omitempty"`
	State             string `db:"state" json:"state,omitempty"`

	IsActive    bool       `db:"is_active" json:"is_active"`
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// LevelForExperience returns the level implied by an experience total.
// Levels start at 1 and never regress; callers keep the max of the
// current level and this value.
func LevelForExperience(experience int64) int {
	if experience < 0 {
		return 1
	}
	return int(experience/ExperiencePerLevel) + 1
}

// HasValidOTP reports whether a code is stored and not yet expired at now.
// Expiry is evaluated lazily here; there is no background sweep.
func (u *User) HasValidOTP(now time.Time) bool {
	return u.OTPCode != nil && u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}

// MatchesOTP checks the candidate against the stored code. The code is
// bound to the channel it was issued for; a code requested over email
// cannot verify the phone. Expired, wrong-channel and wrong codes are
// indistinguishable to the caller.
func (u *User) MatchesOTP(candidate, channel string, now time.Time) bool {
	return u.HasValidOTP(now) &&
		u.OTPChannel != nil && *u.OTPChannel == channel &&
		*u.OTPCode == candidate
}

// NextStreak returns the streak value after a login at now, given the
// previous login time. Consecutive calendar days extend the streak.
func NextStreak(current int, lastLogin *time.Time, now time.Time) int {
	if lastLogin == nil {
		return 1
	}
	last := lastLogin.In(now.Location())
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		if current < 1 {
			return 1
		}
		return current
	}
	yesterday := now.AddDate(0, 0, -1)
	yy, ym, yd := yesterday.Date()
	if ly == yy && lm == ym && ld == yd {
		return current + 1
	}
	return 1
}
