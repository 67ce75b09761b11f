package domain

import "testing"

func strPtr(s string) *string { return &s }

func TestEligibilityAllows(t *testing.T) {
	farmer := &User{Role: RoleFarmer, FarmingExperience: "intermediate", State: "Punjab"}

	cases := []struct {
		name string
		elig Eligibility
		want bool
	}{
		{"no restrictions", Eligibility{}, true},
		{"role allowed", Eligibility{Roles: []Role{RoleFarmer, RoleStudent}}, true},
		{"role rejected", Eligibility{Roles: []Role{RoleDealer}}, false},
		{"experience exact match", Eligibility{Experience: strPtr("intermediate")}, true},
		{"experience mismatch", Eligibility{Experience: strPtr("beginner")}, false},
		{"state allowed", Eligibility{States: []string{"Punjab", "Haryana"}}, true},
		{"state rejected", Eligibility{States: []string{"Kerala"}}, false},
		{"all pass", Eligibility{
			Roles:      []Role{RoleFarmer},
			Experience: strPtr("intermediate"),
			States:     []string{"Punjab"},
		}, true},
		{"role rejected despite other matches", Eligibility{
			Roles:      []Role{RoleDealer},
			Experience: strPtr("intermediate"),
			States:     []string{"Punjab"},
		}, false},
	}

	for _, tc := range cases {
		if got := tc.elig.Allows(farmer); got != tc.want {
			t.Fatalf("%s: Allows = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		total, completed int
		want             float64
	}{
		{0, 0, 0},
		{4, 1, 25},
		{2, 2, 100},
	}

	for _, tc := range cases {
		c := Challenge{TotalParticipants: tc.total, CompletedParticipants: tc.completed}
		if got := c.CompletionRate(); got != tc.want {
			t.Fatalf("CompletionRate(%d/%d) = %v; want %v", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestCanComplete(t *testing.T) {
	cases := []struct {
		status ParticipantStatus
		want   bool
	}{
		{ParticipantPending, true},
		{ParticipantInProgress, true},
		{ParticipantFailed, true},
		{ParticipantCompleted, false},
	}

	for _, tc := range cases {
		p := Participant{Status: tc.status}
		if got := p.CanComplete(); got != tc.want {
			t.Fatalf("CanComplete(%s) = %v; want %v", tc.status, got, tc.want)
		}
	}
}
