// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pagedata

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/radiopage/internal/document"
	"github.com/ManuGH/radiopage/internal/extract"
	xglog "github.com/ManuGH/radiopage/internal/log"
	"github.com/ManuGH/radiopage/internal/metrics"
	"github.com/ManuGH/radiopage/internal/schedule"
	"github.com/ManuGH/radiopage/internal/telemetry"
	"github.com/ManuGH/radiopage/internal/upstream"
	"github.com/rs/zerolog"
)

const defaultScheduleTimeout = 2 * time.Second

// Options wires an Assembler.
type Options struct {
	Primary  upstream.Fetcher
	Schedule upstream.Fetcher // nil disables augmentation

	Manifests *extract.ManifestHolder
	Sink      extract.Sink

	// ScheduleTimeout bounds the wait for the schedule feed.
	ScheduleTimeout time.Duration
	// Labels returns the display labels of a service.
	Labels func(service string) schedule.Labels
	// RendererEnv is forwarded to the content API as renderer_env.
	RendererEnv string

	Now    func() time.Time
	Logger *zerolog.Logger
}

// Assembler builds page data. It holds no per-request state and is safe for
// concurrent use.
type Assembler struct {
	primary         upstream.Fetcher
	schedule        upstream.Fetcher
	manifests       *extract.ManifestHolder
	sink            extract.Sink
	scheduleTimeout time.Duration
	labels          func(string) schedule.Labels
	rendererEnv     string
	now             func() time.Time
	logger          zerolog.Logger
	tracer          trace.Tracer
}

// New creates an Assembler.
func New(opts Options) *Assembler {
	a := &Assembler{
		primary:         opts.Primary,
		schedule:        opts.Schedule,
		manifests:       opts.Manifests,
		sink:            opts.Sink,
		scheduleTimeout: opts.ScheduleTimeout,
		labels:          opts.Labels,
		rendererEnv:     opts.RendererEnv,
		now:             opts.Now,
		tracer:          telemetry.Tracer("radiopage/pagedata"),
	}
	if a.manifests == nil {
		a.manifests = extract.StaticManifest(extract.DefaultManifest())
	}
	if a.sink == nil {
		a.sink = extract.NopSink{}
	}
	if a.scheduleTimeout <= 0 {
		a.scheduleTimeout = defaultScheduleTimeout
	}
	if a.labels == nil {
		a.labels = func(string) schedule.Labels { return schedule.DefaultLabels() }
	}
	if a.now == nil {
		a.now = time.Now
	}
	if opts.Logger != nil {
		a.logger = *opts.Logger
	} else {
		a.logger = xglog.WithComponent("pagedata")
	}
	return a
}

type scheduleResult struct {
	window []schedule.Program
	err    error
	status Outcome
}

// Assemble fetches and assembles one page. Primary fetch failures produce
// an error envelope; schedule failures only omit the schedule data.
func (a *Assembler) Assemble(ctx context.Context, req Request) Envelope {
	started := time.Now()
	ctx, span := a.tracer.Start(ctx, "pagedata.assemble",
		trace.WithAttributes(telemetry.PageAttributes(req.Path, req.PageType, req.Service)...))
	defer span.End()

	logger := xglog.WithContext(ctx, a.logger).With().
		Str(xglog.FieldPath, req.Path).
		Str(xglog.FieldService, req.Service).
		Logger()

	now := a.now()
	radio := RadioService(req.Path, req.Service)

	schedCtx, cancel := context.WithTimeout(ctx, a.scheduleTimeout)
	defer cancel()

	var pending <-chan scheduleResult
	if req.Toggles.ScheduleEnabled && a.schedule != nil {
		pending = a.startSchedule(schedCtx, req, radio, now)
	}
	span.SetAttributes(attribute.Bool(telemetry.ScheduleEnabledKey, pending != nil))

	res, err := a.primary.Fetch(ctx, withRendererEnv(req.Path, req.Query, a.rendererEnv), req.PageType)
	if err != nil {
		status := upstream.StatusOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, status))
		metrics.RecordAssembly(req.PageType, false, time.Since(started))
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "pagedata.primary_failed").
			Int(xglog.FieldStatus, status).
			Msg("primary document fetch failed")
		return Envelope{Status: status, Error: upstream.Message(err)}
	}

	outcome := OutcomeDisabled
	var programs []schedule.Program
	if pending != nil {
		sr := a.awaitSchedule(schedCtx, pending)
		outcome, programs = sr.status, sr.window
		if sr.err != nil {
			logger.Info().
				Err(sr.err).
				Str(xglog.FieldEvent, "schedule.degraded").
				Str(xglog.FieldRadio, radio).
				Str("outcome", string(outcome)).
				Msg("rendering without radio schedule")
		}
	}
	metrics.RecordScheduleAugmentation(string(outcome))
	span.SetAttributes(attribute.String(telemetry.ScheduleOutcomeKey, string(outcome)))

	pd, diags := a.build(res.Doc, req, now, programs)

	errCount := 0
	for _, d := range diags {
		if d.Severity == extract.SeverityError {
			errCount++
		}
	}
	span.SetAttributes(telemetry.ExtractAttributes(len(diags), errCount)...)
	span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, res.Status))
	metrics.RecordAssembly(req.PageType, true, time.Since(started))

	logger.Debug().
		Str(xglog.FieldEvent, "pagedata.assembled").
		Str(xglog.FieldEpisodeID, pd.Field("episodeId")).
		Int(xglog.FieldStatus, res.Status).
		Int("diagnostics", len(diags)).
		Str("schedule", string(outcome)).
		Int64(xglog.FieldDuration, time.Since(started).Milliseconds()).
		Msg("page data assembled")

	return Envelope{
		Status:      res.Status,
		PageData:    pd,
		Diagnostics: diags,
		Schedule:    outcome,
	}
}

func (a *Assembler) build(doc document.Value, req Request, now time.Time, programs []schedule.Program) (*PageData, []extract.Diagnostic) {
	ex := extract.NewExtractor(doc, DocumentID(doc, req.Path), a.sink)
	fields := ex.ExtractAll(a.manifests.Get())

	if thumb := fields.Text("thumbnailImageUrl"); thumb != "" {
		fields["thumbnailImageUrl"] = document.String(PlaceholderImageURL(thumb))
	}

	pd := &PageData{
		Metadata:            Metadata{Type: PageTypeOnDemandRadio},
		Fields:              fields,
		EpisodeAvailability: EpisodeAvailability(doc, now),
		RadioScheduleData:   programs,
	}
	if req.Toggles.RecentEpisodesEnabled {
		pd.RecentEpisodes = RecentEpisodes(doc, fields.Text("episodeId"), req.Toggles.RecentEpisodesLimit)
	}
	return pd, ex.Diagnostics()
}

// startSchedule fetches the schedule feed in the background. The result
// channel is buffered so the goroutine never blocks after the caller has
// stopped waiting.
func (a *Assembler) startSchedule(ctx context.Context, req Request, radio string, now time.Time) <-chan scheduleResult {
	ch := make(chan scheduleResult, 1)
	go func() {
		ch <- a.selectSchedule(ctx, req, radio, now)
	}()
	return ch
}

func (a *Assembler) selectSchedule(ctx context.Context, req Request, radio string, now time.Time) scheduleResult {
	res, err := a.schedule.Fetch(ctx, SchedulePath(req.Service, radio), req.PageType)
	if err != nil {
		if errors.Is(err, upstream.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return scheduleResult{status: OutcomeTimeout, err: err}
		}
		return scheduleResult{status: OutcomeFetchFailed, err: err}
	}

	labels := a.labels(req.Service)
	entries, err := schedule.ParseFeed(res.Doc, labels.Duration)
	if err != nil {
		return scheduleResult{status: OutcomeMalformed, err: err}
	}
	if err := schedule.CheckOrder(entries); err != nil {
		return scheduleResult{status: OutcomeMalformed, err: err}
	}

	window, ok := schedule.Select(entries, now, schedule.ServiceLinker{Service: req.Service})
	if !ok {
		return scheduleResult{status: OutcomeInsufficient, err: errInsufficientSchedule}
	}
	return scheduleResult{status: OutcomeAugmented, window: window.Programs(labels)}
}

var errInsufficientSchedule = errors.New("schedule: not enough programmes around now")

func (a *Assembler) awaitSchedule(ctx context.Context, pending <-chan scheduleResult) scheduleResult {
	select {
	case sr := <-pending:
		return sr
	default:
	}
	select {
	case sr := <-pending:
		return sr
	case <-ctx.Done():
		return scheduleResult{status: OutcomeTimeout, err: ctx.Err()}
	}
}
