package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medipause/certserve/internal/mail"
	"github.com/medipause/certserve/internal/observability"
	"github.com/medipause/certserve/internal/payment"
	"github.com/medipause/certserve/model"
)

type fakeRenderer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRenderer) RenderPDF(_ context.Context, _ []byte) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg *mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

const testSecret = "whsec_test"

func newTestPipeline(renderer *fakeRenderer, mailer *fakeMailer) (*Pipeline, *MemoryClaimStore) {
	claims := NewMemoryClaimStore()
	verifier := NewVerifier(testSecret, 5*time.Minute)
	metrics := observability.InitMetrics(prometheus.NewRegistry())
	p := NewPipeline(verifier, claims, renderer, mailer, metrics, zap.NewNop(),
		PipelineConfig{ClaimTTL: time.Hour, StageTimeout: 5 * time.Second})
	return p, claims
}

func testEvent(t *testing.T, eventID string) *model.FulfillmentEvent {
	t.Helper()
	md, err := payment.EncodeMetadata(&model.IntakeRequest{
		Firstname:       "Claire",
		Lastname:        "Moreau",
		Email:           "claire.moreau@example.com",
		Symptoms:        []string{"fievre"},
		SymptomDuration: "3-5 jours",
		StartDate:       "10/03/2025",
		EndDate:         "12/03/2025",
		Urgent:          true,
	}, 4498)
	require.NoError(t, err)
	return &model.FulfillmentEvent{
		EventID:  eventID,
		Type:     model.EventTypePaymentCompleted,
		Metadata: md,
	}
}

func signedBody(t *testing.T, evt *model.FulfillmentEvent) (string, []byte) {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	ts := time.Now().Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, signBody(testSecret, ts, body)), body
}

func TestProcessDeliversCertificate(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)

	require.NoError(t, p.Process(context.Background(), testEvent(t, "evt_1")))

	assert.Equal(t, int32(1), renderer.calls.Load())
	require.Equal(t, 1, mailer.sentCount())
	msg := mailer.sent[0]
	assert.Equal(t, "claire.moreau@example.com", msg.To)
	assert.Equal(t, "certificat-medical.pdf", msg.AttachmentName)
	assert.Equal(t, []byte("%PDF-1.4 fake"), msg.Attachment)
}

func TestProcessDuplicateEventIsNoOp(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)
	evt := testEvent(t, "evt_dup")

	require.NoError(t, p.Process(context.Background(), evt))
	require.NoError(t, p.Process(context.Background(), evt))
	require.NoError(t, p.Process(context.Background(), evt))

	assert.Equal(t, int32(1), renderer.calls.Load(), "one generation per event id")
	assert.Equal(t, 1, mailer.sentCount(), "one delivery per event id")
}

func TestProcessDecodeErrorKeepsClaim(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)

	evt := testEvent(t, "evt_bad_md")
	delete(evt.Metadata, "email")

	err := p.Process(context.Background(), evt)
	require.Error(t, err)
	ee, ok := err.(*model.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, model.ErrMetadataDecode, ee.Code)
	assert.Zero(t, renderer.calls.Load())

	// Redelivery hits the held claim and stays a no-op; the event needs
	// operator replay, not an automatic second charge at rendering.
	require.NoError(t, p.Process(context.Background(), evt))
	assert.Zero(t, renderer.calls.Load())
}

func TestProcessRenderFailureKeepsClaim(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("renderer down")}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)
	evt := testEvent(t, "evt_render_fail")

	err := p.Process(context.Background(), evt)
	require.Error(t, err)
	ee, ok := err.(*model.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, model.ErrDocumentGeneration, ee.Code)
	assert.Zero(t, mailer.sentCount())

	require.NoError(t, p.Process(context.Background(), evt))
	assert.Equal(t, int32(1), renderer.calls.Load())
}

func TestProcessDeliveryFailure(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{err: errors.New("smtp refused")}
	p, _ := newTestPipeline(renderer, mailer)

	err := p.Process(context.Background(), testEvent(t, "evt_mail_fail"))
	require.Error(t, err)
	ee, ok := err.(*model.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, model.ErrDelivery, ee.Code)
	assert.Equal(t, int32(1), renderer.calls.Load())
}

func TestProcessEmitsStageSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	p, _ := newTestPipeline(&fakeRenderer{}, &fakeMailer{})
	require.NoError(t, p.Process(context.Background(), testEvent(t, "evt_traced")))

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
		if s.Name() == "fulfillment.process" {
			assert.Contains(t, s.Attributes(),
				observability.AttrEventID.String("evt_traced"))
		}
	}
	assert.Contains(t, names, "fulfillment.process")
	assert.Contains(t, names, "fulfillment.claim")
	assert.Contains(t, names, "fulfillment.render")
	assert.Contains(t, names, "fulfillment.deliver")
}

func TestProcessLogsOmitRecipientAddress(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	claims := NewMemoryClaimStore()
	metrics := observability.InitMetrics(prometheus.NewRegistry())
	p := NewPipeline(NewVerifier(testSecret, 5*time.Minute), claims,
		&fakeRenderer{}, &fakeMailer{}, metrics, zap.New(core),
		PipelineConfig{ClaimTTL: time.Hour, StageTimeout: 5 * time.Second})

	require.NoError(t, p.Process(context.Background(), testEvent(t, "evt_log")))

	var delivered bool
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotEqual(t, "claire.moreau@example.com", f.String,
				"recipient address must not appear in logs")
		}
		if entry.Message == "certificate delivered" {
			delivered = true
			assert.Equal(t, "evt_log", entry.ContextMap()["event_id"])
		}
	}
	assert.True(t, delivered)
}

func TestAcceptRejectsBadSignature(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)

	_, body := signedBody(t, testEvent(t, "evt_1"))
	ts := time.Now().Unix()
	badHeader := fmt.Sprintf("t=%d,v1=%s", ts, signBody("whsec_wrong", ts, body))

	err := p.Accept(badHeader, body)
	require.Error(t, err)
	ee, ok := err.(*model.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, model.ErrSignatureInvalid, ee.Code)

	require.NoError(t, p.Drain(context.Background()))
	assert.Zero(t, renderer.calls.Load(), "unverified events never reach processing")
	assert.Zero(t, mailer.sentCount())
}

func TestAcceptRejectsUnparseableBody(t *testing.T) {
	p, _ := newTestPipeline(&fakeRenderer{}, &fakeMailer{})

	body := []byte("not json at all")
	ts := time.Now().Unix()
	h := fmt.Sprintf("t=%d,v1=%s", ts, signBody(testSecret, ts, body))

	err := p.Accept(h, body)
	require.Error(t, err)
	ee, ok := err.(*model.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, model.ErrBadRequest, ee.Code)
}

func TestAcceptIgnoresOtherEventTypes(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)

	evt := testEvent(t, "evt_other")
	evt.Type = "payment_intent.created"
	h, body := signedBody(t, evt)

	require.NoError(t, p.Accept(h, body))
	require.NoError(t, p.Drain(context.Background()))
	assert.Zero(t, renderer.calls.Load())
}

func TestAcceptProcessesInBackground(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	p, _ := newTestPipeline(renderer, mailer)

	h, body := signedBody(t, testEvent(t, "evt_async"))
	require.NoError(t, p.Accept(h, body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Drain(ctx))

	assert.Equal(t, int32(1), renderer.calls.Load())
	assert.Equal(t, 1, mailer.sentCount())
}
