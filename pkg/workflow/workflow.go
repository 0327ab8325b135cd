// Package workflow sequences the three agent tasks against one shared tool
// session and assembles their outputs into a report.
package workflow

import (
	"context"
	"fmt"

	"github.com/passionateSandy2004/agenticShopping/pkg/agenttask"
	"github.com/passionateSandy2004/agenticShopping/pkg/events"
	"github.com/passionateSandy2004/agenticShopping/pkg/mcpclient"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter/usage"
	"github.com/passionateSandy2004/agenticShopping/pkg/providers/gemini"
	"github.com/passionateSandy2004/agenticShopping/pkg/retry"
	"github.com/passionateSandy2004/agenticShopping/pkg/toolbox"
)

// Session is the workflow's view of the remote tool session: it lists tools
// once after opening and is closed when the run ends.
type Session interface {
	ListTools(ctx context.Context) ([]toolbox.Tool, error)
	Close() error
}

// SessionOpener opens the tool session. Failures must wrap
// mcpclient.ErrSessionInit.
type SessionOpener func(ctx context.Context) (Session, error)

// Workflow runs the fixed sequence of agent tasks: product, price, news.
type Workflow struct {
	cfg  Config
	sink events.Sink

	opener    SessionOpener
	completer modeladapter.Completer
	usage     *usage.Tracker
}

// New creates a Workflow from the given configuration. A nil sink is treated
// as events.Discard.
func New(cfg Config, sink events.Sink) *Workflow {
	if sink == nil {
		sink = events.Discard
	}

	w := &Workflow{cfg: cfg, sink: sink}

	w.opener = func(ctx context.Context) (Session, error) {
		return mcpclient.New(ctx, cfg.MCP.Command, cfg.MCP.Env, cfg.MCP.Args...)
	}

	adapter := gemini.New(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model)
	adapter.SetTemperature(0) // deterministic sampling
	w.completer = adapter
	w.usage = adapter.UsageTracker()

	return w
}

// TokenUsage reports the model token totals and the number of model calls
// accumulated so far. Zero values before the first call completes.
func (w *Workflow) TokenUsage() (usage.TokenCount, int) {
	if w.usage == nil {
		return usage.TokenCount{}, 0
	}
	return w.usage.Total(), w.usage.Count()
}

// SetSessionOpener overrides how the tool session is opened (for testing).
func (w *Workflow) SetSessionOpener(o SessionOpener) { w.opener = o }

// SetCompleter overrides the model completer (for testing).
func (w *Workflow) SetCompleter(c modeladapter.Completer) { w.completer = c }

// Specs returns the three section specs in order, with any configured goal
// overrides applied.
func (w *Workflow) Specs() []agenttask.Spec {
	specs := agenttask.DefaultSpecs()
	overrides := map[string]string{
		agenttask.SectionProduct: w.cfg.Goals.Product,
		agenttask.SectionPrice:   w.cfg.Goals.Price,
		agenttask.SectionNews:    w.cfg.Goals.News,
	}
	for i := range specs {
		if g := overrides[specs[i].Section]; g != "" {
			specs[i].Goal = g
		}
	}
	return specs
}

// Run executes the workflow for one user query: open the tool session, run
// the three agent tasks strictly in order against it, aggregate their texts,
// and close the session. The session is released exactly once on every exit
// path.
//
// A failing section aborts the run before the next section starts. The
// sections completed so far are still returned alongside the error so
// presenters can render a degraded report; callers that want the reference
// all-or-nothing behavior can ignore the report when err is non-nil.
func (w *Workflow) Run(ctx context.Context, query string) (Report, error) {
	if query == "" {
		query = w.cfg.Query
	}

	policy, err := w.cfg.Retry.Policy()
	if err != nil {
		return Report{}, err
	}

	session, err := w.opener(ctx)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("workflow: list tools: %w", err)
	}

	tb := toolbox.New()
	tb.Register(tools...)

	invoker := retry.New(w.completer, policy, w.sink)

	var report Report
	for _, spec := range w.Specs() {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		task := &agenttask.Task{
			Completer: invoker.ForSection(spec.Section),
			Tools:     tb,
			Sink:      w.sink,
			MaxTurns:  w.cfg.MaxTurns,
		}

		text, err := task.Run(ctx, spec, query)
		if err != nil {
			return report, fmt.Errorf("workflow: section %q: %w", spec.Section, err)
		}

		report.Sections = append(report.Sections, SectionResult{
			Section: spec.Section,
			Text:    text,
		})
	}

	return report, nil
}
