// Package pipeline runs one cover-image request through membership, cache,
// budget, generation and storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/cache"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/generation"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/keys"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/metrics"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

const tracerName = "github.com/burzuercher/group-meal-planner-sub001/pkg/pipeline"

// Response messages for non-fatal failures.
const (
	msgGenerationFailed = "image generation failed, please try again later"
	msgStorageFailed    = "could not store the generated image, please try again later"
	msgCacheFailed      = "artifact cache unavailable, please try again later"
	msgAccountingFailed = "could not record generation spend"
	msgCacheWriteFailed = "could not record generated artifact"
)

// writeTimeout bounds the ledger commit and cache insert once an artifact exists.
const writeTimeout = 5 * time.Second

// MembershipChecker answers whether a caller belongs to a group.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, callerName string) (bool, error)
}

// Ledger checks and records spend.
type Ledger interface {
	CheckAvailable(ctx context.Context) (bool, error)
	CommitIncrement(ctx context.Context) (models.BudgetState, error)
}

// Generator produces an image for a subject.
type Generator interface {
	Ready() error
	Generate(ctx context.Context, subject string) generation.Result
}

// ArtifactStore persists a payload and returns its public URL.
type ArtifactStore interface {
	Put(ctx context.Context, payload []byte, artifactName, mimeType string) (string, error)
}

// AuditLogger records one entry per finished run.
type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditEntry) error
}

// Options configures a Controller. The zero value is usable.
type Options struct {
	// RequestTimeout bounds the whole run. Zero means no extra deadline.
	RequestTimeout time.Duration
	// StorageTimeout bounds the upload step. Zero means no extra deadline.
	StorageTimeout time.Duration
	// RejectEmptyKey rejects subjects that normalize to the empty key.
	RejectEmptyKey bool
	Policy         Policy
	Logger         *zap.Logger
	Metrics        *metrics.Collector
	Auditor        AuditLogger
	TracerProvider trace.TracerProvider
}

// Controller sequences the collaborators for each request.
type Controller struct {
	gate   MembershipChecker
	cache  cache.ArtifactCache
	ledger Ledger
	gen    Generator
	store  ArtifactStore

	requestTimeout time.Duration
	storageTimeout time.Duration
	rejectEmptyKey bool
	policy         Policy
	logger         *zap.Logger
	metrics        *metrics.Collector
	auditor        AuditLogger
	tracer         trace.Tracer

	pending sync.WaitGroup
}

// New creates a Controller.
func New(gate MembershipChecker, c cache.ArtifactCache, ledger Ledger, gen Generator, store ArtifactStore, opts Options) *Controller {
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &Controller{
		gate:           gate,
		cache:          c,
		ledger:         ledger,
		gen:            gen,
		store:          store,
		requestTimeout: opts.RequestTimeout,
		storageTimeout: opts.StorageTimeout,
		rejectEmptyKey: opts.RejectEmptyKey,
		policy:         opts.Policy,
		logger:         opts.Logger.With(zap.String("component", "pipeline")),
		metrics:        opts.Metrics,
		auditor:        opts.Auditor,
		tracer:         opts.TracerProvider.Tracer(tracerName),
	}
}

// run carries per-request state through the steps.
type run struct {
	c     *Controller
	req   models.GenerationRequest
	key   string
	state State
	span  trace.Span
	log   *zap.Logger
}

// Handle runs req to completion. It returns an error wrapping ErrInvalidInput,
// ErrUnauthorized or ErrMisconfigured for fatal conditions; every other outcome
// is described by the Response.
func (c *Controller) Handle(ctx context.Context, req models.GenerationRequest) (models.Response, error) {
	start := time.Now()
	requestID := RequestID(ctx)

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "pipeline.Handle", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("group.id", req.GroupID),
	))
	defer span.End()

	r := &run{
		c:    c,
		req:  req,
		span: span,
		log: c.logger.With(
			zap.String("request_id", requestID),
			zap.String("group_id", req.GroupID),
		),
	}

	resp, err := r.execute(ctx)
	r.enter(StateResponding)

	outcome := outcomeOf(resp, err)
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.metrics.RecordOutcome(outcome)
	c.audit(requestID, r, resp, err, outcome, time.Since(start))

	r.log.Info("request finished",
		zap.String("outcome", string(outcome)),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err),
	)
	return resp, err
}

func (r *run) execute(ctx context.Context) (models.Response, error) {
	c := r.c
	if err := validate(r.req); err != nil {
		return models.Response{}, err
	}

	r.enter(StateAuthorizing)
	member, err := c.gate.IsMember(ctx, r.req.GroupID, r.req.CallerName)
	if err != nil {
		member = r.handleError(Membership, err)
	}
	if !member {
		return models.Response{}, fmt.Errorf("%w: %q in group %q", ErrUnauthorized, r.req.CallerName, r.req.GroupID)
	}

	r.key = keys.Normalize(r.req.SubjectText)
	if r.key == "" && c.rejectEmptyKey {
		return models.Response{}, fmt.Errorf("%w: subject has no usable characters", ErrInvalidInput)
	}

	r.enter(StateCacheChecking)
	url, hit, err := c.cache.Lookup(ctx, r.key)
	switch {
	case err != nil:
		c.metrics.RecordCacheLookup("error")
		if !r.handleError(CacheRead, err) {
			return models.FailedResponse(msgCacheFailed), nil
		}
		hit = false
	case hit:
		c.metrics.RecordCacheLookup("hit")
	default:
		c.metrics.RecordCacheLookup("miss")
	}
	if hit {
		r.enter(StateCacheHit)
		return models.HitResponse(url), nil
	}

	if err := c.gen.Ready(); err != nil {
		return models.Response{}, fmt.Errorf("%w: %w", ErrMisconfigured, err)
	}

	r.enter(StateBudgetChecking)
	available, err := c.ledger.CheckAvailable(ctx)
	if err != nil {
		available = r.handleError(BudgetRead, err)
	}
	if !available {
		r.enter(StateBudgetExceeded)
		return models.BudgetExceededResponse(), nil
	}

	r.enter(StateGenerating)
	genStart := time.Now()
	result := c.gen.Generate(ctx, r.req.SubjectText)
	c.metrics.ObserveGeneration(result.Kind.String(), time.Since(genStart))
	if err := result.Err(); err != nil {
		if !r.handleError(Generation, err) {
			return models.FailedResponse(msgGenerationFailed), nil
		}
	}
	if len(result.Payload) == 0 {
		// A proceeding policy cannot conjure a payload.
		return models.FailedResponse(msgGenerationFailed), nil
	}

	r.enter(StateUploading)
	url, err = r.upload(ctx, result)
	if err != nil {
		// A proceeding policy cannot conjure a URL either.
		r.handleError(Storage, err)
		return models.FailedResponse(msgStorageFailed), nil
	}

	// Once the artifact exists, commit and cache insert outlive caller cancellation.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	r.enter(StateAccountingCommit)
	state, err := c.ledger.CommitIncrement(wctx)
	if err != nil {
		if !r.handleError(BudgetCommit, err) {
			return models.FailedResponse(msgAccountingFailed), nil
		}
		// Uncounted artifacts are not cached.
		return models.GeneratedResponse(url), nil
	}
	c.metrics.SetBudget(state)

	r.enter(StateCacheWriting)
	if err := c.cache.Insert(wctx, r.key, url); err != nil {
		if !r.handleError(CacheWrite, err) {
			return models.FailedResponse(msgCacheWriteFailed), nil
		}
	}

	return models.GeneratedResponse(url), nil
}

func (r *run) upload(ctx context.Context, result generation.Result) (string, error) {
	if r.c.storageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.c.storageTimeout)
		defer cancel()
	}
	return r.c.store.Put(ctx, result.Payload, keys.ArtifactName(r.key), result.MIMEType)
}

// handleError applies the policy for collab and reports whether the run proceeds.
func (r *run) handleError(collab Collaborator, err error) bool {
	b := r.c.policy.For(collab)
	r.c.metrics.RecordCollaboratorError(string(collab), b.String())
	r.span.AddEvent("collaborator_error", trace.WithAttributes(
		attribute.String("collaborator", string(collab)),
		attribute.String("behavior", b.String()),
		attribute.String("error", err.Error()),
	))

	level := zap.WarnLevel
	if b == Surface {
		level = zap.ErrorLevel
	}
	r.log.Log(level, "collaborator error",
		zap.String("collaborator", string(collab)),
		zap.String("behavior", b.String()),
		zap.String("state", string(r.state)),
		zap.Error(err),
	)
	return b.proceeds()
}

func (r *run) enter(s State) {
	r.state = s
	r.span.AddEvent(string(s))
	r.log.Debug("state", zap.String("state", string(s)))
}

func (c *Controller) audit(requestID string, r *run, resp models.Response, err error, outcome models.Outcome, latency time.Duration) {
	if c.auditor == nil {
		return
	}
	entry := models.AuditEntry{
		RequestID:     requestID,
		GroupID:       r.req.GroupID,
		CallerName:    r.req.CallerName,
		SubjectText:   r.req.SubjectText,
		NormalizedKey: r.key,
		Outcome:       outcome,
		Error:         resp.Error,
		LatencyMs:     latency.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}
	if resp.ArtifactURL != nil {
		entry.ArtifactURL = *resp.ArtifactURL
	}
	if err != nil {
		entry.Error = err.Error()
	}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.auditor.Log(context.Background(), entry); err != nil {
			c.logger.Warn("audit log failed", zap.String("request_id", requestID), zap.Error(err))
		}
	}()
}

// Close waits for pending audit writes. Call it before closing the auditor.
func (c *Controller) Close() error {
	c.pending.Wait()
	return nil
}

func validate(req models.GenerationRequest) error {
	var missing []string
	if strings.TrimSpace(req.SubjectText) == "" {
		missing = append(missing, "subjectText")
	}
	if strings.TrimSpace(req.GroupID) == "" {
		missing = append(missing, "groupId")
	}
	if strings.TrimSpace(req.CallerName) == "" {
		missing = append(missing, "callerName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func outcomeOf(resp models.Response, err error) models.Outcome {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnauthorized):
		return models.OutcomeRejected
	case err != nil:
		return models.OutcomeFailed
	case resp.Cached:
		return models.OutcomeCacheHit
	case resp.BudgetExceeded:
		return models.OutcomeBudgetExceeded
	case resp.ArtifactURL != nil:
		return models.OutcomeGenerated
	default:
		return models.OutcomeFailed
	}
}
