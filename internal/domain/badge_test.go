package domain

import "testing"

func TestBadgeMeets(t *testing.T) {
	progress := BadgeProgress{Points: 1500, Level: 2, Streak: 3, ChallengesCompleted: 1}

	cases := []struct {
		code string
		want bool
	}{
		{"FIRST_POINTS", true},
		{"FIRST_CHALLENGE", true},
		{"CHALLENGE_10", false},
		{"LEVEL_5", false},
		{"STREAK_7", false},
		{"POINTS_10000", false},
		{"WELCOME", false}, // event badges never trip on a sweep
	}

	for _, tc := range cases {
		badge, ok := BadgeByCode(tc.code)
		if !ok {
			t.Fatalf("badge %s not defined", tc.code)
		}
		if got := badge.Meets(progress); got != tc.want {
			t.Fatalf("Meets(%s) = %v; want %v", tc.code, got, tc.want)
		}
	}
}

func TestBadgeCodesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, b := range Badges {
		if seen[b.Code] {
			t.Fatalf("duplicate badge code %s", b.Code)
		}
		seen[b.Code] = true
	}
}
