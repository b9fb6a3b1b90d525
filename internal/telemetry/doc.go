// Package telemetry provides OpenTelemetry tracing and metrics for snakebot.
//
// Spans cover a game session, each turn, and each step of an actuation
// plan. Metrics flow through the meter provider into the HTTP middleware.
// Both export over OTLP (gRPC or HTTP) to a collector.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("snakebot/plan").Start(ctx, "plan.execute")
//	defer span.End()
//
// Exporter failures are listed by Degraded and fall back to the global
// no-op providers. A game never stops because the collector is down.
//
// Tests use TestTelemetry, which records spans in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	... exercise code with tt.Tracer(...) ...
//	tt.AssertSpanExists(t, "plan.execute")
package telemetry
