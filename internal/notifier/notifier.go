package notifier

// Notifier dispatches one-time codes and award notices through an external
// channel. Calls are fire-and-forget from the caller's point of view:
// a failed dispatch is logged, never rolled back into the triggering
// operation.
type Notifier interface {
	SendOTP(to, name, code string) error
	SendChallengeAward(to, name, challengeTitle string, points int64) error
}
