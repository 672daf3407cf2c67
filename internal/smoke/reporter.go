package smoke

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/loykin/apismoke/internal/common"
)

const (
	markOK   = "✓"
	markFail = "✗"
	markWarn = "⚠"
	rule     = "=================================================="
)

// Reporter prints human-readable progress. It is separate from the structured
// logger: progress goes to stdout, logs go to stderr or a file.
type Reporter struct {
	w     io.Writer
	color bool
}

// NewReporter writes to w; a nil w means stdout. Colour is used only when
// color is true and w is a terminal.
func NewReporter(w io.Writer, color bool) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{w: w, color: color && common.ShouldUseColor(w)}
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// Banner prints a framed title.
func (r *Reporter) Banner(title string) {
	r.printf("%s\n%s\n%s\n", rule, title, rule)
}

// Step prints the numbered header of a step.
func (r *Reporter) Step(n int, name string) {
	r.printf("\n%s\n", common.Colorize(r.color, common.Cyan, fmt.Sprintf("[%d] %s", n, name)))
}

// Info prints an indented plain line.
func (r *Reporter) Info(format string, args ...any) {
	r.printf("   %s\n", fmt.Sprintf(format, args...))
}

// Field prints "key: value", skipping absent values.
func (r *Reporter) Field(key string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return
	}
	r.printf("   %s: %v\n", key, value)
}

// Response prints the HTTP status and a preview of the body.
func (r *Reporter) Response(status int, preview string) {
	r.printf("   status: %d\n", status)
	if preview != "" {
		r.printf("   response: %s\n", preview)
	}
}

func (r *Reporter) OK(format string, args ...any) {
	r.mark(common.Green, markOK, fmt.Sprintf(format, args...))
}

func (r *Reporter) Fail(format string, args ...any) {
	r.mark(common.Red, markFail, fmt.Sprintf(format, args...))
}

func (r *Reporter) Warn(format string, args ...any) {
	r.mark(common.Yellow, markWarn, fmt.Sprintf(format, args...))
}

func (r *Reporter) mark(color, mark, msg string) {
	r.printf("   %s %s\n", common.Colorize(r.color, color, mark), msg)
}

// Summary prints the closing lines for one suite result.
func (r *Reporter) Summary(res Result) {
	r.printf("\n%s\n", rule)
	if res.Passed {
		r.printf("%s\n", common.Colorize(r.color, common.Green, fmt.Sprintf("%s %s: all tests passed (%s)", markOK, res.Suite, res.Duration.Round(time.Millisecond))))
	} else {
		msg := fmt.Sprintf("%s %s: tests failed", markFail, res.Suite)
		if f := res.FailedStep(); f != nil {
			msg += fmt.Sprintf(" at %q (%s)", f.Name, f.Kind)
		}
		r.printf("%s\n", common.Colorize(r.color, common.Red, msg))
	}
	if n := res.Warnings(); n > 0 {
		r.printf("%s\n", common.Colorize(r.color, common.Yellow, fmt.Sprintf("%s %d warning(s)", markWarn, n)))
	}
	r.printf("%s\n", rule)
}

// Overview prints one line per suite after a multi-suite run.
func (r *Reporter) Overview(results []Result) {
	if len(results) < 2 {
		return
	}
	r.printf("\n")
	for _, res := range results {
		if res.Passed {
			r.OK("%s", res.Suite)
		} else {
			r.Fail("%s", res.Suite)
		}
	}
}
