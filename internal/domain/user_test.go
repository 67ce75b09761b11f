package domain

import (
	"testing"
	"time"
)

func TestLevelForExperience(t *testing.T) {
	cases := []struct {
		experience int64
		want       int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{1001, 2},
		{2500, 3},
		{10000, 11},
		{-5, 1},
	}

	for _, tc := range cases {
		if got := LevelForExperience(tc.experience); got != tc.want {
			t.Fatalf("LevelForExperience(%d) = %d; want %d", tc.experience, got, tc.want)
		}
	}
}

func TestMatchesOTP(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code := "482913"
	channel := "email"
	expires := base.Add(10 * time.Minute)

	u := &User{OTPCode: &code, OTPChannel: &channel, OTPExpiresAt: &expires}

	if !u.MatchesOTP("482913", "email", base.Add(5*time.Minute)) {
		t.Fatalf("expected correct code at T+5m to verify")
	}
	if u.MatchesOTP("482913", "email", base.Add(11*time.Minute)) {
		t.Fatalf("expected correct code at T+11m to be rejected as expired")
	}
	if u.MatchesOTP("000000", "email", base.Add(5*time.Minute)) {
		t.Fatalf("expected wrong code to be rejected")
	}
	if u.MatchesOTP("482913", "phone", base.Add(5*time.Minute)) {
		t.Fatalf("expected code issued for email to be rejected on the phone channel")
	}
	if u.MatchesOTP("482913", "email", expires) {
		t.Fatalf("expected code at exact expiry instant to be rejected")
	}

	var cleared User
	if cleared.MatchesOTP("482913", "email", base) {
		t.Fatalf("expected account without stored code to reject any candidate")
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	sameDay := now.Add(-2 * time.Hour)
	lastWeek := now.AddDate(0, 0, -7)

	cases := []struct {
		name      string
		current   int
		lastLogin *time.Time
		want      int
	}{
		{"first login", 0, nil, 1},
		{"second login same day", 3, &sameDay, 3},
		{"consecutive day", 3, &yesterday, 4},
		{"gap resets", 9, &lastWeek, 1},
	}

	for _, tc := range cases {
		if got := NextStreak(tc.current, tc.lastLogin, now); got != tc.want {
			t.Fatalf("%s: NextStreak = %d; want %d", tc.name, got, tc.want)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleFarmer, RoleStudent, RoleDealer, RoleAdmin} {
		if !ValidRole(r) {
			t.Fatalf("expected %q to be a valid role", r)
		}
	}
	if ValidRole("moderator") {
		t.Fatalf("expected unknown role to be invalid")
	}
}
