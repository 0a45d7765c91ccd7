package batch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

type Outcome string

const (
	OutcomeNoop         Outcome = "no_op"
	OutcomeAllSucceeded Outcome = "all_succeeded"
	OutcomePartial      Outcome = "partial"
	OutcomeAllFailed    Outcome = "all_failed"
)

type skipError struct {
	reason string
}

func (e skipError) Error() string {
	return e.reason
}

// Skip marks an item as intentionally not processed. It counts as neither success nor failure.
func Skip(reason string) error {
	return skipError{reason: reason}
}

func IsSkip(err error) bool {
	var target skipError
	return errors.As(err, &target)
}

type Failure struct {
	Key string
	Err error
}

type Skipped struct {
	Key    string
	Reason string
}

// Result is the per-item outcome of one run. Successes and Failures keep input order.
type Result struct {
	RunID      string
	Total      int
	Successes  []string
	Failures   []Failure
	Skipped    []Skipped
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Result) Attempted() int {
	return len(r.Successes) + len(r.Failures)
}

func (r Result) Outcome() Outcome {
	switch {
	case r.Attempted() == 0:
		return OutcomeNoop
	case len(r.Failures) == 0:
		return OutcomeAllSucceeded
	case len(r.Successes) == 0:
		return OutcomeAllFailed
	default:
		return OutcomePartial
	}
}

// Summary renders counts for people, e.g. "applied to 4/5 predictions, 1 failed".
func (r Result) Summary(verb, noun string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if r.Total == 0 {
		_, _ = buf.WriteString("no eligible ")
		_, _ = buf.WriteString(plural(noun, 0))
		return buf.String()
	}

	_, _ = buf.WriteString(verb)
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(strconv.Itoa(len(r.Successes)))
	_ = buf.WriteByte('/')
	_, _ = buf.WriteString(strconv.Itoa(r.Total))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(plural(noun, r.Total))
	if n := len(r.Failures); n > 0 {
		_, _ = buf.WriteString(", ")
		_, _ = buf.WriteString(strconv.Itoa(n))
		_, _ = buf.WriteString(" failed")
	}
	if n := len(r.Skipped); n > 0 {
		_, _ = buf.WriteString(", ")
		_, _ = buf.WriteString(strconv.Itoa(n))
		_, _ = buf.WriteString(" skipped")
	}
	return buf.String()
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

type Runner struct {
	name   string
	logger *logging.Logger
	now    func() time.Time
}

func NewRunner(name string, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		name:   name,
		logger: logger,
		now:    time.Now,
	}
}

// Run calls fn for every item one at a time, in order. A failing or panicking item is
// recorded and the run moves on; there is no early exit and no rollback.
func Run[T any](ctx context.Context, r *Runner, items []T, key func(T) string, fn func(context.Context, T) error) Result {
	result := Result{
		RunID:     uuid.NewString(),
		Total:     len(items),
		StartedAt: r.now(),
	}

	for _, item := range items {
		k := key(item)
		err := capture(ctx, item, fn)
		switch {
		case err == nil:
			result.Successes = append(result.Successes, k)
		case IsSkip(err):
			result.Skipped = append(result.Skipped, Skipped{Key: k, Reason: err.Error()})
		default:
			result.Failures = append(result.Failures, Failure{Key: k, Err: err})
			r.logger.WarnContext(ctx, "batch item failed",
				"batch", r.name,
				"run_id", result.RunID,
				"key", k,
				"error", err,
			)
		}
	}

	result.FinishedAt = r.now()
	r.logger.InfoContext(ctx, "batch finished",
		"batch", r.name,
		"run_id", result.RunID,
		"outcome", string(result.Outcome()),
		"total", result.Total,
		"succeeded", len(result.Successes),
		"failed", len(result.Failures),
		"skipped", len(result.Skipped),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return result
}

func capture[T any](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		err = fn(ctx, item)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return recovered.AsError()
	}
	return err
}
