package report

import "github.com/rs/zerolog"

// ZerologSink reports each notification as a structured warning log line,
// for runs where a markdown report isn't wanted but nothing should be
// silently dropped.
type ZerologSink struct {
	Logger zerolog.Logger
}

func (s ZerologSink) Report(resource string, explanation error) {
	s.Logger.Warn().Str("resource", resource).Err(explanation).Msg("notification")
}
