package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/orchestration"
	"github.com/spboyer/forge/internal/roundlog"
	"github.com/spboyer/forge/internal/spinner"
	"golang.org/x/term"
)

// roundProgress reports orchestrator events. On a terminal it keeps a spinner
// with a running count of finished agents; otherwise it prints one line per
// finished agent.
type roundProgress struct {
	out     io.Writer
	verbose bool
	spin    *spinner.Spinner

	mu       sync.Mutex
	total    map[models.Role]int
	finished map[models.Role]int
}

func newRoundProgress(out io.Writer, verbose bool) *roundProgress {
	p := &roundProgress{
		out:      out,
		verbose:  verbose,
		total:    map[models.Role]int{},
		finished: map[models.Role]int{},
	}
	if !verbose && isTerminal(out) {
		p.spin = spinner.Start(out, "Starting round...")
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *roundProgress) stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
}

func (p *roundProgress) printf(format string, args ...any) {
	if p.spin != nil {
		p.spin.Printf(format, args...)
		return
	}
	fmt.Fprintf(p.out, format, args...)
}

func (p *roundProgress) listener(event orchestration.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.EventType {
	case orchestration.EventRoundStart:
		if n, ok := event.Details["producers"].(int); ok {
			p.total[models.RoleProducer] = n
		}
		if n, ok := event.Details["evaluators"].(int); ok {
			p.total[models.RoleEvaluator] = n
		}
		if p.verbose {
			p.printf("Round %s started\n", event.RunID)
		}
	case orchestration.EventAgentStart:
		if p.verbose {
			p.printf("  %s %s: started\n", event.Role, event.Agent)
		}
	case orchestration.EventAgentRetry:
		if p.verbose {
			p.printf("  [RETRY] %s %s: attempt %d\n", event.Role, event.Agent, event.Attempt)
		}
	case orchestration.EventAgentFallback:
		if p.verbose {
			p.printf("  %s %s: retries exhausted, trying once more (%v)\n", event.Role, event.Agent, event.Err)
		}
	case orchestration.EventAgentCached:
		p.finished[event.Role]++
		p.printf("✓ %s %s [cached]\n", event.Role, event.Agent)
	case orchestration.EventAgentComplete:
		p.finished[event.Role]++
		if p.verbose {
			p.printf("  %s %s: done in %v (attempt %d)\n", event.Role, event.Agent, event.Duration, event.Attempt)
		} else {
			p.printf("✓ %s %s\n", event.Role, event.Agent)
		}
	case orchestration.EventAgentFailed:
		p.finished[event.Role]++
		p.printf("✗ %s %s: %v\n", event.Role, event.Agent, event.Err)
	case orchestration.EventPhaseComplete:
		if p.verbose {
			p.printf("%s phase complete: %v succeeded, %v failed\n", event.Role, event.Details["succeeded"], event.Details["failed"])
		}
	case orchestration.EventDegraded:
		p.printf("[WARN] no usable votes, falling back to complexity selection\n")
	case orchestration.EventRoundComplete:
		if p.verbose {
			p.printf("Round %s complete in %v\n", event.RunID, event.Duration)
		}
	}

	if p.spin != nil {
		p.spin.Update(fmt.Sprintf("Producers %d/%d, evaluators %d/%d",
			p.finished[models.RoleProducer], p.total[models.RoleProducer],
			p.finished[models.RoleEvaluator], p.total[models.RoleEvaluator]))
	}
}

// roundLogListener writes every orchestrator event to l. Write errors are
// reported once and the log is abandoned.
func roundLogListener(l roundlog.Logger) orchestration.ProgressListener {
	var (
		mu     sync.Mutex
		failed bool
	)
	return func(event orchestration.ProgressEvent) {
		ev := roundlog.NewEvent(string(event.EventType), event.RunID, event.Details)
		ev.Agent = event.Agent
		ev.Role = string(event.Role)
		ev.Attempt = event.Attempt
		ev.DurationMs = event.Duration.Milliseconds()
		if event.Err != nil {
			ev.Error = event.Err.Error()
		}

		mu.Lock()
		defer mu.Unlock()
		if failed {
			return
		}
		if err := l.Log(ev); err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "[WARN] round log write failed, no further events will be logged: %v\n", err)
		}
	}
}
