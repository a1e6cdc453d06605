package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/ideas"
	"github.com/oscarthedev15/domain-checker-tgbot/internal/whois"
)

// Verdict classifies one candidate after the availability lookup.
type Verdict string

const (
	VerdictAvailable Verdict = "available"
	VerdictTaken     Verdict = "taken"
	// VerdictUnknown means the lookup failed for this candidate; the batch
	// continues regardless.
	VerdictUnknown Verdict = "unknown"
)

// Result pairs a candidate with its verdict.
type Result struct {
	Domain  string
	Verdict Verdict
}

// Orchestrator runs one theme submission end to end: generate candidates,
// check each one, return the verdicts in generator order.
type Orchestrator struct {
	gen     ideas.Generator
	checker whois.Checker
	log     *zap.Logger
	timeout time.Duration // per external call
}

// New builds an orchestrator. timeout bounds each external call so a hung
// collaborator cannot hold a user's session lock indefinitely.
func New(gen ideas.Generator, checker whois.Checker, log *zap.Logger, timeout time.Duration) *Orchestrator {
	return &Orchestrator{gen: gen, checker: checker, log: log, timeout: timeout}
}

// Run generates candidates for the theme and resolves a verdict for each.
// Candidate order from the generator is preserved in the returned slice even
// though the lookups run concurrently. A generation failure aborts the run;
// a single lookup failure only degrades that candidate to unknown.
func (o *Orchestrator) Run(ctx context.Context, theme string) ([]Result, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	domains, err := o.gen.Generate(genCtx, theme)
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}
	o.log.Info("generated candidates", zap.Int("count", len(domains)))

	results := make([]Result, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range domains {
		i, d := i, d
		results[i] = Result{Domain: d, Verdict: VerdictUnknown}
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, o.timeout)
			defer cancel()

			available, err := o.checker.Check(cctx, d)
			if err != nil {
				// Degrade to unknown, keep the batch going.
				o.log.Warn("availability check failed",
					zap.String("domain", d), zap.Error(err))
				return nil
			}
			if available {
				results[i].Verdict = VerdictAvailable
			} else {
				results[i].Verdict = VerdictTaken
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
