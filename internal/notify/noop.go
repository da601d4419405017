package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier records notifications without delivering anything. Used in
// development when no SMTP host is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.log.Info().
		Str("kind", string(msg.Kind)).
		Str("recipient", msg.Recipient).
		Interface("data", msg.Data).
		Msg("notification (not delivered)")
	return nil
}
