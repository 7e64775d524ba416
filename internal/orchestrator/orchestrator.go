// Package orchestrator classifies questions, dispatches them to the
// analytics and SEO pipelines, and merges the results into one response.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"insightd/internal/domain"
	"insightd/internal/summary"
)

// EmptyQueryAnswer is returned for blank queries without touching any
// backend.
const EmptyQueryAnswer = "Please provide a valid query."

// DefaultBackendTimeout bounds each external backend call.
const DefaultBackendTimeout = 30 * time.Second

// Response is the caller-facing result of a handled query.
type Response struct {
	Answer string `json:"answer"`
	Data   any    `json:"data"`
}

// AnalyticsPlanner derives a report plan from a question.
type AnalyticsPlanner interface {
	Plan(ctx context.Context, question string) domain.ReportPlan
}

// TabularPlanner derives a table plan from a question and the live columns.
type TabularPlanner interface {
	Plan(ctx context.Context, question string, columns []string) domain.TablePlan
}

// AnalyticsExecutor runs a report plan against a property.
type AnalyticsExecutor interface {
	Execute(ctx context.Context, plan domain.ReportPlan, propertyID string) (domain.ResultSet, error)
}

// TabularExecutor evaluates a table plan against a snapshot.
type TabularExecutor interface {
	Execute(snap *domain.Snapshot, plan domain.TablePlan) domain.ResultSet
}

// SnapshotSource hands out the current crawl snapshot, flagging staleness.
type SnapshotSource interface {
	Get(ctx context.Context) (*domain.Snapshot, bool, error)
}

// Fuser joins analytics records with crawl details.
type Fuser interface {
	Fuse(analytics []domain.Record, snap *domain.Snapshot) []domain.Composite
}

// Deps carries the orchestrator's collaborators.
type Deps struct {
	AnalyticsPlanner  AnalyticsPlanner
	TabularPlanner    TabularPlanner
	AnalyticsExecutor AnalyticsExecutor
	TabularExecutor   TabularExecutor
	Snapshots         SnapshotSource
	Fuser             Fuser
	Summarizer        summary.Summarizer
	Logger            *slog.Logger
	BackendTimeout    time.Duration
}

// Orchestrator routes questions across the two backends.
type Orchestrator struct {
	deps    Deps
	logger  *slog.Logger
	timeout time.Duration
}

// New builds an orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.BackendTimeout
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &Orchestrator{
		deps:    deps,
		logger:  logger.With("component", "orchestrator"),
		timeout: timeout,
	}
}

// Handle classifies the query and runs the selected pipeline(s). Pipeline
// failures degrade to explanatory answer strings; the only error returned
// to the caller is invalid input, such as an analytics question without a
// property ID.
func (o *Orchestrator) Handle(ctx context.Context, query, propertyID string) (Response, error) {
	intent, err := Classify(query, propertyID)
	if err != nil {
		return Response{}, err
	}

	o.logger.Info("query classified", "intent", intent.String(), "has_property", propertyID != "")

	switch intent {
	case domain.IntentNoBackend:
		return Response{Answer: EmptyQueryAnswer}, nil

	case domain.IntentAnalyticsOnly:
		return o.analyticsPipeline(ctx, query, propertyID), nil

	case domain.IntentSEOOnly:
		return o.seoPipeline(ctx, query), nil

	case domain.IntentBothParallel:
		return o.parallelPipelines(ctx, query, propertyID), nil

	case domain.IntentFused:
		return o.fusedPipeline(ctx, query, propertyID), nil
	}

	return Response{Answer: EmptyQueryAnswer}, nil
}

// analyticsPipeline plans and executes a report, then summarizes it.
// Execution failure becomes an error answer, never an error return.
func (o *Orchestrator) analyticsPipeline(ctx context.Context, query, propertyID string) Response {
	plan := o.deps.AnalyticsPlanner.Plan(ctx, query)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	rs, err := o.deps.AnalyticsExecutor.Execute(callCtx, plan, propertyID)
	if err != nil {
		o.logger.Error("analytics pipeline failed", "error", err)
		return Response{Answer: fmt.Sprintf("Error retrieving analytics data: %v", err)}
	}

	return Response{
		Answer: o.deps.Summarizer.Summarize(ctx, query, rs),
		Data:   rs.Records,
	}
}

// seoPipeline loads the snapshot, plans against its live columns, executes
// in memory, and summarizes. An unavailable dataset becomes a "no data"
// answer.
func (o *Orchestrator) seoPipeline(ctx context.Context, query string) Response {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	snap, stale, err := o.deps.Snapshots.Get(callCtx)
	if err != nil {
		o.logger.Error("seo dataset unavailable", "error", err)
		return Response{Answer: "Error loading the SEO dataset. Please try again later."}
	}
	if stale {
		o.logger.Warn("serving stale seo snapshot", "fetched_at", snap.FetchedAt)
	}

	plan := o.deps.TabularPlanner.Plan(ctx, query, snap.Columns)
	rs := o.deps.TabularExecutor.Execute(snap, plan)

	return Response{
		Answer: o.deps.Summarizer.Summarize(ctx, query, rs),
		Data:   rs.Records,
	}
}

// parallelPipelines fans out to both backends and joins both results. The
// pipelines never cancel each other; each degrades independently.
func (o *Orchestrator) parallelPipelines(ctx context.Context, query, propertyID string) Response {
	var analytics, seo Response

	g := new(errgroup.Group)
	g.Go(func() error {
		analytics = o.analyticsPipeline(ctx, query, propertyID)
		return nil
	})
	g.Go(func() error {
		seo = o.seoPipeline(ctx, query)
		return nil
	})
	_ = g.Wait()

	return Response{
		Answer: "Analytics:\n" + analytics.Answer + "\n\nSEO Info:\n" + seo.Answer,
		Data: map[string]any{
			"analytics": analytics.Data,
			"seo":       seo.Data,
		},
	}
}

// fusedPipeline runs analytics first, then enriches each result row with
// crawl details joined on URL path. Empty analytics results are returned
// without attempting enrichment.
func (o *Orchestrator) fusedPipeline(ctx context.Context, query, propertyID string) Response {
	plan := o.deps.AnalyticsPlanner.Plan(ctx, query)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	rs, err := o.deps.AnalyticsExecutor.Execute(callCtx, plan, propertyID)
	if err != nil {
		o.logger.Error("fused pipeline analytics stage failed", "error", err)
		return Response{Answer: fmt.Sprintf("Error retrieving analytics data: %v", err)}
	}
	if rs.Empty() {
		return Response{Answer: summary.NoResultsMessage, Data: []domain.Composite{}}
	}

	snapCtx, cancelSnap := context.WithTimeout(ctx, o.timeout)
	defer cancelSnap()
	snap, _, err := o.deps.Snapshots.Get(snapCtx)
	if err != nil {
		o.logger.Warn("snapshot unavailable during fusion, using placeholders", "error", err)
		snap = &domain.Snapshot{}
	}

	composites := o.deps.Fuser.Fuse(rs.Records, snap)

	flat := domain.ResultSet{
		Records:          compositeRecords(composites),
		TotalBeforeLimit: rs.TotalBeforeLimit,
	}
	return Response{
		Answer: o.deps.Summarizer.Summarize(ctx, query, flat),
		Data:   composites,
	}
}

// compositeRecords flattens composites so the summarizer sees one record
// per row with path, metrics, and crawl fields side by side.
func compositeRecords(composites []domain.Composite) []domain.Record {
	out := make([]domain.Record, 0, len(composites))
	for _, c := range composites {
		rec := make(domain.Record, len(c.Metrics)+3)
		for k, v := range c.Metrics {
			rec[k] = v
		}
		rec["path"] = c.Path
		rec["title"] = c.SEO.Title
		rec["indexability"] = c.SEO.Indexability
		out = append(out, rec)
	}
	return out
}
