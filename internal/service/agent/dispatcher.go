package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
)

// State reports whether a turn is in flight.
type State int32

const (
	StateIdle State = iota
	StateProcessing
)

// String returns the state name.
func (s State) String() string {
	if s == StateProcessing {
		return "processing"
	}
	return "idle"
}

// errorPrefix marks a turn whose reply is an error.
const errorPrefix = "❌ Error: "

// TurnResult is the outcome of one turn.
type TurnResult struct {
	Seq      int
	Reply    string
	Table    core.SearchResultSet
	Tool     string
	IsError  bool
	Duration time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder persists every completed turn.
func WithRecorder(r core.TurnRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithMetrics counts every completed turn.
func WithMetrics(m *service.MetricsCollector) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithSessionID sets the initial session ID.
func WithSessionID(id string) Option {
	return func(d *Dispatcher) { d.sessionID = id }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// Dispatcher runs conversation turns one at a time. It owns the transcript
// for its session; turns never interleave.
type Dispatcher struct {
	mu    sync.Mutex
	state atomic.Int32

	reasoner core.Reasoner
	tools    *Registry
	recorder core.TurnRecorder
	metrics  *service.MetricsCollector
	logger   *logging.Logger

	transcript *core.Transcript
	sessionID  string
	seq        int
}

// NewDispatcher creates a dispatcher with an empty transcript.
func NewDispatcher(reasoner core.Reasoner, tools *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reasoner:   reasoner,
		tools:      tools,
		transcript: core.NewTranscript(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sessionID == "" {
		d.sessionID = uuid.NewString()
	}
	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	return d
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// SessionID returns the current session ID.
func (d *Dispatcher) SessionID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionID
}

// Transcript returns the session transcript.
func (d *Dispatcher) Transcript() *core.Transcript {
	return d.transcript
}

// Reset starts a new session with an empty transcript. It waits for any
// in-flight turn.
func (d *Dispatcher) Reset() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transcript.Reset()
	d.sessionID = uuid.NewString()
	d.seq = 0
	return d.sessionID
}

// Turn handles one user utterance. Every failure, including a panic in a
// tool, is turned into an error reply and the session stays usable.
// Blank utterances are ignored.
func (d *Dispatcher) Turn(ctx context.Context, utterance string) TurnResult {
	if strings.TrimSpace(utterance) == "" {
		return TurnResult{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Store(int32(StateProcessing))
	defer d.state.Store(int32(StateIdle))

	d.seq++
	logger := d.logger.WithSession(d.sessionID).WithTurn(d.seq)
	start := time.Now()

	history := d.transcript.Messages()
	d.transcript.Append(core.RoleUser, utterance)

	res, err := d.run(ctx, logger, utterance, history)
	if err != nil {
		res.Reply = errorPrefix + core.UserMessage(err)
		res.Table = nil
		res.IsError = true
		logger.Warn("turn failed", "tool", res.Tool, "error", err)
	} else if strings.HasPrefix(res.Reply, "❌") {
		res.IsError = true
	}
	res.Seq = d.seq
	res.Duration = time.Since(start)

	d.transcript.Append(core.RoleAssistant, res.Reply)
	d.record(ctx, logger, utterance, res)
	d.metrics.RecordTurn(service.TurnSample{
		Tool:     res.Tool,
		IsError:  res.IsError,
		Rows:     len(res.Table),
		Duration: res.Duration,
	})

	logger.Info("turn completed",
		"tool", res.Tool,
		"is_error", res.IsError,
		"rows", len(res.Table),
		"duration", res.Duration)
	return res
}

func (d *Dispatcher) run(ctx context.Context, logger *logging.Logger, utterance string, history []core.Message) (res TurnResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("turn panicked", "panic", r, "stack", string(debug.Stack()))
			err = &core.DomainError{
				Category: core.ErrCatInternal,
				Code:     core.CodeTurnPanicked,
				Message:  fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	action, err := d.reasoner.ChooseAction(ctx, utterance, history)
	if err != nil {
		return res, err
	}

	if action.Kind != core.ActionInvoke {
		res.Reply = action.Text
		return res, nil
	}

	res.Tool = action.Tool
	tool, ok := d.tools.Resolve(action.Tool)
	if !ok {
		return res, core.ErrValidation(core.CodeUnknownTool, fmt.Sprintf("unknown tool %q", action.Tool))
	}
	res.Tool = tool.Name

	toolLogger := logger.WithTool(tool.Name)
	toolLogger.Debug("invoking tool", "input", logger.Sanitize(action.Input))

	out, err := tool.Run(ctx, action.Input)
	if err != nil {
		return res, err
	}
	res.Reply = out.Text
	if len(out.Table) > 0 {
		res.Table = out.Table
	}
	return res, nil
}

func (d *Dispatcher) record(ctx context.Context, logger *logging.Logger, utterance string, res TurnResult) {
	if d.recorder == nil {
		return
	}
	rec := core.TurnRecord{
		SessionID: d.sessionID,
		Seq:       res.Seq,
		Utterance: utterance,
		Reply:     res.Reply,
		Tool:      res.Tool,
		IsError:   res.IsError,
		RowCount:  len(res.Table),
		CreatedAt: time.Now().UTC(),
	}
	if err := d.recorder.RecordTurn(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("failed to record turn", "error", err)
	}
}
