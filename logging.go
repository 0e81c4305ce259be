package fsmsim

import "log/slog"

// LoggingObserver mirrors engine lifecycle events into a structured logger.
// The engine's own trace stays in its ActionLog; this observer is the
// optional process-wide sink a host attaches when it wants one.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates an observer writing to the given logger. A nil
// logger falls back to slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnTransition(from string, to string, event string) {
	o.logger.Info("fsm transition",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("event", event))
}

func (o *LoggingObserver) OnStateEnter(state string) {
	o.logger.Debug("fsm state entered", slog.String("state", state))
}

func (o *LoggingObserver) OnStateExit(state string) {
	o.logger.Debug("fsm state exited", slog.String("state", state))
}

func (o *LoggingObserver) OnStep(state string, event string) {
	o.logger.Debug("fsm step",
		slog.String("state", state),
		slog.String("event", event))
}

func (o *LoggingObserver) OnGuardEvaluation(from string, to string, event string, result bool) {
	o.logger.Debug("fsm condition evaluated",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("event", event),
		slog.Bool("result", result))
}

func (o *LoggingObserver) OnNoTransition(state string, event string) {
	o.logger.Debug("fsm no eligible transition",
		slog.String("state", state),
		slog.String("event", event))
}

func (o *LoggingObserver) OnEvaluationError(err *EvaluationError) {
	o.logger.Warn("fsm snippet evaluation failed",
		slog.String("kind", string(err.Kind)),
		slog.String("state", err.State),
		slog.String("snippet", err.Snippet),
		slog.Any("error", err.OriginalErr))
}

func (o *LoggingObserver) OnReset(initial string) {
	o.logger.Info("fsm reset", slog.String("initial", initial))
}
