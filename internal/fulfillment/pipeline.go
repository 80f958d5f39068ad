package fulfillment

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medipause/certserve/internal/document"
	"github.com/medipause/certserve/internal/mail"
	"github.com/medipause/certserve/internal/observability"
	"github.com/medipause/certserve/internal/payment"
	"github.com/medipause/certserve/model"
)

// DefaultClaimTTL keeps a processed event id claimed long past any realistic
// redelivery horizon.
const DefaultClaimTTL = 30 * 24 * time.Hour

// DefaultStageTimeout bounds each downstream call (render, deliver).
const DefaultStageTimeout = 60 * time.Second

// PipelineConfig tunes the fulfillment pipeline.
type PipelineConfig struct {
	ClaimTTL     time.Duration
	StageTimeout time.Duration
}

// Pipeline drives a verified payment notification to a delivered certificate.
// Acceptance is synchronous and cheap; the expensive stages run on their own
// goroutine so the sender gets a prompt acknowledgement.
type Pipeline struct {
	verifier *Verifier
	claims   ClaimStore
	renderer document.Renderer
	mailer   mail.Mailer
	metrics  *observability.Metrics
	log      *zap.Logger

	claimTTL     time.Duration
	stageTimeout time.Duration

	wg sync.WaitGroup
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(
	verifier *Verifier,
	claims ClaimStore,
	renderer document.Renderer,
	mailer mail.Mailer,
	metrics *observability.Metrics,
	log *zap.Logger,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = DefaultClaimTTL
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	return &Pipeline{
		verifier:     verifier,
		claims:       claims,
		renderer:     renderer,
		mailer:       mailer,
		metrics:      metrics,
		log:          log,
		claimTTL:     cfg.ClaimTTL,
		stageTimeout: cfg.StageTimeout,
	}
}

// Accept performs the synchronous part of notification handling: signature
// verification and payload parsing. Only these two failures produce an error
// (and thus a 4xx to the sender); every later stage is acknowledged first and
// processed in the background.
func (p *Pipeline) Accept(header string, body []byte) error {
	if err := p.verifier.Verify(header, body); err != nil {
		p.metrics.WebhookEvents.WithLabelValues("bad_signature").Inc()
		p.log.Warn("notification rejected", zap.Error(err))
		return err
	}

	var evt model.FulfillmentEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		p.metrics.WebhookEvents.WithLabelValues("unparseable").Inc()
		p.log.Warn("notification body unparseable", zap.Error(err))
		return model.NewBadRequestError("unparseable notification body")
	}

	if evt.Type != model.EventTypePaymentCompleted {
		p.metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		p.log.Debug("ignoring event type", zap.String("type", evt.Type))
		return nil
	}
	if evt.EventID == "" {
		p.metrics.WebhookEvents.WithLabelValues("unparseable").Inc()
		return model.NewBadRequestError("notification has no event id")
	}

	p.metrics.WebhookEvents.WithLabelValues("accepted").Inc()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 3*p.stageTimeout)
		defer cancel()
		if err := p.Process(ctx, &evt); err != nil {
			p.log.Error("fulfillment failed",
				zap.String("event_id", evt.EventID), zap.Error(err))
		}
	}()
	return nil
}

// Process runs the pipeline stages for one verified event. Exported so tests
// and replay tooling can run it synchronously. A failure in any stage after
// the claim leaves the claim in place: the event will not be retried
// automatically and needs operator attention, which is why every failure is
// logged with the event id.
func (p *Pipeline) Process(ctx context.Context, evt *model.FulfillmentEvent) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "fulfillment.process",
		observability.AttrEventID.String(evt.EventID))
	defer func() { observability.EndSpanWithError(span, err) }()

	claimCtx, claimSpan := observability.StartSpan(ctx, "fulfillment.claim",
		observability.AttrPipelineStage.String("claim"))
	claimed, err := p.claims.TryClaim(claimCtx, evt.EventID, p.claimTTL)
	observability.EndSpanWithError(claimSpan, err)
	if err != nil {
		p.stage("claim", "error")
		return err
	}
	if !claimed {
		p.stage("claim", "duplicate")
		p.log.Info("duplicate event, already claimed", zap.String("event_id", evt.EventID))
		return nil
	}
	p.stage("claim", "ok")

	req, err := payment.DecodeMetadata(evt.Metadata)
	if err != nil {
		p.stage("decode", "error")
		return err
	}
	p.stage("decode", "ok")

	pdf, err := p.render(ctx, req)
	if err != nil {
		p.stage("render", "error")
		return model.NewDocumentGenerationError(err.Error())
	}
	p.stage("render", "ok")

	if err := p.deliver(ctx, req, pdf); err != nil {
		p.stage("deliver", "error")
		return model.NewDeliveryError(err.Error())
	}
	p.stage("deliver", "ok")

	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	// The recipient address is sensitive; the event id is enough to find
	// the delivery.
	p.log.Info("certificate delivered", zap.String("event_id", evt.EventID))
	return nil
}

func (p *Pipeline) render(ctx context.Context, req *model.IntakeRequest) (pdf []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "fulfillment.render",
		observability.AttrPipelineStage.String("render"))
	defer func() { observability.EndSpanWithError(span, err) }()

	html, err := document.BuildCertificateHTML(req, time.Now())
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderPDF(ctx, html)
}

func (p *Pipeline) deliver(ctx context.Context, req *model.IntakeRequest, pdf []byte) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "fulfillment.deliver",
		observability.AttrPipelineStage.String("deliver"))
	defer func() { observability.EndSpanWithError(span, err) }()

	return p.mailer.Send(ctx, mail.BuildCertificateMessage(req, pdf))
}

func (p *Pipeline) stage(name, outcome string) {
	p.metrics.PipelineStages.WithLabelValues(name, outcome).Inc()
}

// Drain waits for in-flight background processing to finish, bounded by ctx.
// Used during graceful shutdown.
func (p *Pipeline) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
