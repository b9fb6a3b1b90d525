// Package logging is the zap wrapper used across snakebot.
//
// A Logger takes a context on every call and adds the correlation fields it
// finds there: trace and span IDs, the game session, the turn number and
// acting side, and the HTTP request ID. Output goes to stdout, to the
// OpenTelemetry log bridge, or both.
//
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	ctx = logging.WithSessionID(ctx, session.ID())
//	ctx = logging.WithTurn(ctx, 4, "robot")
//	logger.Info(ctx, "dice read", zap.Int("value", 5))
//
// Fields named like credentials (operator_token, authentication, ...) and
// values that look like bearer tokens are redacted by the stdout encoder.
// Below error, stdout output is sampled unless the console format is used.
//
// Components that only need a *zap.Logger take Logger.Underlying().
package logging
