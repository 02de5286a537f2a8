package jobs

import "log/slog"

// Recorder receives the outcome of each job run.
type Recorder interface {
	JobRun(task string, err error)
}

type nopRecorder struct{}

func (nopRecorder) JobRun(string, error) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

func jobLogger(logger *slog.Logger, task string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", task))
}
