package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/lichun/polisearch/proclog"
)

// Stage is one atomic unit of per-file processing. Stages run strictly in
// order for each file; the first failure skips the file's remaining stages.
type Stage struct {
	// Name keys the returned counters.
	Name string
	// Description is the human-readable stage description written to the
	// audit log, e.g. "PDF 轉換為 OCR JSON".
	Description string
	// LogPath receives a success/failure entry per file when non-empty.
	// Stages that do their own finer-grained logging leave it empty.
	LogPath string
	// LogKey maps the source filename to the name recorded in the log
	// (e.g. the chunking stage logs the derived JSON filename). Nil means
	// the source filename is used as-is.
	LogKey func(source string) string
	// Run performs the stage for one source file.
	Run func(ctx context.Context, source string) error
}

// Counts aggregates per-stage outcomes for a run.
type Counts struct {
	Succeeded int
	Failed    int
}

// Runner drives a sequence of stages over a set of source files, skipping
// files that already have a success entry in the resume log.
type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Unprocessed filters files down to those without a success entry in
// resumeLog, preserving the input order.
func (r *Runner) Unprocessed(files []string, resumeLog string) ([]string, error) {
	processed, err := proclog.ProcessedFiles(resumeLog)
	if err != nil {
		return nil, err
	}
	remaining := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := processed[f]; !ok {
			remaining = append(remaining, f)
		}
	}
	return remaining, nil
}

// ProcessFiles runs the stages over each file in order. The returned map is
// keyed by stage name. Errors never abort the run; they become counted
// failures and the runner moves to the next file.
func (r *Runner) ProcessFiles(ctx context.Context, files []string, stages []Stage) map[string]Counts {
	counts := make(map[string]Counts, len(stages))
	for _, st := range stages {
		counts[st.Name] = Counts{}
	}

	for i, file := range files {
		r.logger.Info("Processing file",
			slog.Int("position", i+1),
			slog.Int("total", len(files)),
			slog.String("filename", file))

		for _, st := range stages {
			logName := file
			if st.LogKey != nil {
				logName = st.LogKey(file)
			}

			start := time.Now()
			err := st.Run(ctx, file)

			c := counts[st.Name]
			if err != nil {
				c.Failed++
				counts[st.Name] = c
				r.appendStageEntry(st, logName, proclog.FailureMarker, start)
				r.logger.Error("Stage failed, skipping remaining stages for file",
					slog.String("stage", st.Name),
					slog.String("filename", file),
					slog.String("error", err.Error()))
				break
			}
			c.Succeeded++
			counts[st.Name] = c
			r.appendStageEntry(st, logName, proclog.SuccessMarker, start)
			r.logger.Info("Stage completed",
				slog.String("stage", st.Name),
				slog.String("filename", logName))
		}
	}

	return counts
}

func (r *Runner) appendStageEntry(st Stage, logName, marker string, start time.Time) {
	if st.LogPath == "" {
		return
	}
	entry := proclog.Entry(logName, st.Description+"｜"+marker, start)
	if err := proclog.Append(st.LogPath, entry); err != nil {
		r.logger.Error("Failed to append stage log entry",
			slog.String("stage", st.Name),
			slog.String("log_path", st.LogPath),
			slog.String("error", err.Error()))
	}
}
