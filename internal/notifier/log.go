package notifier

import "farmhub/internal/logger"

// LogNotifier writes notifications to the log instead of sending them.
// Used when no SMTP host is configured (local development, tests).
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (l *LogNotifier) SendOTP(to, name, code string) error {
	logger.Info("otp dispatch (log only)", "to", to, "code", code)
	return nil
}

func (l *LogNotifier) SendChallengeAward(to, name, challengeTitle string, points int64) error {
	logger.Info("challenge award dispatch (log only)", "to", to, "challenge", challengeTitle, "points", points)
	return nil
}
