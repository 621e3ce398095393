// Package processor buffers live interview calls from the voice-agent bridge
// and submits each finished call for feedback.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/hermes"
	"github.com/MikeSquared-Agency/mockview/internal/transcript"
)

// Submitter generates and stores feedback for a finished interview.
type Submitter interface {
	Submit(ctx context.Context, req feedback.Request) (string, error)
}

// Publisher emits outcome events.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor tracks calls between their started and ended events.
type Processor struct {
	submitter Submitter
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	calls  map[string]*call // keyed by call id
	closed bool

	// inflight.Add only happens under mu while !closed.
	inflight sync.WaitGroup
}

// call is the per-call buffer. It is only touched under Processor.mu until
// the call ends, after which a copy is handed to finish.
type call struct {
	InterviewID string
	UserID      string
	FeedbackID  string
	StartedAt   time.Time
	Turns       []transcript.Turn
}

func New(submitter Submitter, publisher Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		submitter: submitter,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		calls:     make(map[string]*call),
	}
}

// HandleCallStarted is the NATS handler for interview.call.started.
func (p *Processor) HandleCallStarted(subject string, data []byte) {
	var evt hermes.CallStarted
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse call started event", "error", err)
		return
	}
	if evt.CallID == "" || evt.InterviewID == "" || evt.UserID == "" {
		p.logger.Warn("call started event missing identifiers",
			"call_id", evt.CallID,
			"interview_id", evt.InterviewID,
			"user_id", evt.UserID,
		)
		return
	}

	p.mu.Lock()
	if _, exists := p.calls[evt.CallID]; exists {
		p.logger.Warn("call restarted, discarding buffered turns", "call_id", evt.CallID)
	}
	p.calls[evt.CallID] = &call{
		InterviewID: evt.InterviewID,
		UserID:      evt.UserID,
		FeedbackID:  evt.FeedbackID,
		StartedAt:   p.now(),
	}
	p.mu.Unlock()

	p.logger.Info("call started", "call_id", evt.CallID, "interview_id", evt.InterviewID)
}

// HandleTranscript is the NATS handler for interview.call.transcript. Only
// final transcripts are buffered.
func (p *Processor) HandleTranscript(subject string, data []byte) {
	var evt hermes.TranscriptEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "error", err)
		return
	}
	if evt.TranscriptType != hermes.TranscriptTypeFinal {
		return
	}

	p.mu.Lock()
	c, ok := p.calls[evt.CallID]
	if ok {
		c.Turns = append(c.Turns, transcript.Turn{Role: evt.Role, Content: evt.Transcript})
	}
	p.mu.Unlock()

	if !ok {
		p.logger.Warn("transcript for unknown call", "call_id", evt.CallID)
	}
}

// HandleCallEnded is the NATS handler for interview.call.ended. The buffer is
// removed and feedback is generated in the background; Wait blocks until all
// such work is done.
func (p *Processor) HandleCallEnded(subject string, data []byte) {
	var evt hermes.CallEnded
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse call ended event", "error", err)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("call ended after drain, not submitting", "call_id", evt.CallID)
		return
	}
	c, ok := p.calls[evt.CallID]
	delete(p.calls, evt.CallID)
	if ok {
		p.inflight.Add(1)
	}
	p.mu.Unlock()

	if !ok {
		p.logger.Warn("call ended for unknown call", "call_id", evt.CallID)
		return
	}

	snapshot := *c
	go func() {
		defer p.inflight.Done()
		p.finish(context.Background(), evt.CallID, snapshot)
	}()
}

func (p *Processor) finish(ctx context.Context, callID string, c call) {
	p.logger.Info("call ended",
		"call_id", callID,
		"interview_id", c.InterviewID,
		"turns", len(c.Turns),
		"duration", p.now().Sub(c.StartedAt).Round(time.Second).String(),
	)

	id, err := p.submitter.Submit(ctx, feedback.Request{
		InterviewID: c.InterviewID,
		UserID:      c.UserID,
		Transcript:  transcript.Flatten(c.Turns),
		FeedbackID:  c.FeedbackID,
	})
	if err != nil {
		p.logger.Error("feedback submission failed", "call_id", callID, "interview_id", c.InterviewID, "error", err)
		if perr := p.publisher.Publish(hermes.SubjectFeedbackFailed, hermes.FeedbackFailed{
			InterviewID: c.InterviewID,
			UserID:      c.UserID,
			Error:       err.Error(),
			Retryable:   feedback.Retryable(err),
		}); perr != nil {
			p.logger.Error("failed to publish feedback failure", "interview_id", c.InterviewID, "error", perr)
		}
		return
	}

	if err := p.publisher.Publish(hermes.SubjectFeedbackGenerated, hermes.FeedbackGenerated{
		InterviewID: c.InterviewID,
		UserID:      c.UserID,
		FeedbackID:  id,
	}); err != nil {
		p.logger.Error("failed to publish feedback generated", "interview_id", c.InterviewID, "error", err)
	}
}

// ActiveCalls returns the number of calls currently being buffered.
func (p *Processor) ActiveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Wait blocks until every ended call has been submitted.
func (p *Processor) Wait() {
	p.inflight.Wait()
}

// Drain stops accepting ended calls and waits for submissions already
// started. Calls ending afterwards are logged and dropped.
func (p *Processor) Drain() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.inflight.Wait()
}
