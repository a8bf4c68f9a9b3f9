package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/store"
)

var (
	// ErrUserNotFound and ErrTutorNotFound signal a request-shape
	// problem the caller should surface; they are the only errors that
	// escape ProcessMessage.
	ErrUserNotFound  = errors.New("user not found")
	ErrTutorNotFound = errors.New("tutor not found")
)

const (
	apologyMessage = "I'm sorry, I encountered an error while processing your request. Please try again later."
	timeoutMessage = "I'm sorry, that took longer than expected and I had to stop waiting. Please try again in a moment."

	defaultTurnTimeout = 60 * time.Second
)

// Outcome tags a reply so callers can distinguish a clean answer from
// a degraded one without string-matching the text.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDegraded
	OutcomeTimedOut
)

// String names the outcome for logs and API payloads.
func (o Outcome) String() string {
	switch o {
	case OutcomeDegraded:
		return "degraded"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "ok"
	}
}

// Reply is the orchestrator's result: the markdown text to show the
// user, always populated, plus the outcome tag.
type Reply struct {
	Text    string
	Outcome Outcome
}

// Orchestrator runs the conversational tool-calling loop: session
// lookup, model turn, envelope decode, tool resolution, follow-up
// turn, final composition. Model and tool failures never escape; the
// chat always gets a reply.
type Orchestrator struct {
	repo        store.Repository
	gateway     Gateway
	sessions    *SessionCache
	prompts     *PromptBuilder
	resolver    *Resolver
	turnTimeout time.Duration
	log         *zap.Logger
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithTurnTimeout bounds each model round-trip.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.turnTimeout = d
		}
	}
}

// NewOrchestrator wires the core chat loop.
func NewOrchestrator(repo store.Repository, gateway Gateway, log *zap.Logger, opts ...Option) (*Orchestrator, error) {
	prompts, err := NewPromptBuilder()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		repo:        repo,
		gateway:     gateway,
		sessions:    NewSessionCache(),
		prompts:     prompts,
		resolver:    NewResolver(repo, prompts, log),
		turnTimeout: defaultTurnTimeout,
		log:         log.Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ProcessMessage handles one incoming chat message and returns the
// final markdown reply. Missing user or tutor records are the only
// error returns; everything downstream degrades into the reply text.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message, userID, tutorID string, role user.Role) (Reply, error) {
	usr, tut, err := o.lookup(ctx, userID, tutorID)
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	err = o.sessions.With(userID, tutorID, func(sess *Session) error {
		reply = o.runTurn(ctx, sess, message, usr, tut, role)
		return nil
	})
	if err != nil {
		// Session bootstrap failures stay inside the chat too.
		o.log.Error("session turn failed", zap.String("userId", userID),
			zap.String("tutorId", tutorID), zap.Error(err))
		return Reply{Text: apologyMessage, Outcome: OutcomeDegraded}, nil
	}
	return reply, nil
}

func (o *Orchestrator) lookup(ctx context.Context, userID, tutorID string) (*user.User, *tutor.Tutor, error) {
	var (
		usr *user.User
		tut *tutor.Tutor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		usr, err = o.repo.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		tut, err = o.repo.GetTutor(gctx, tutorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("resolve chat participants: %w", err)
	}

	if usr == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if tut == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrTutorNotFound, tutorID)
	}
	return usr, tut, nil
}

// runTurn executes one full turn with the session lock held.
func (o *Orchestrator) runTurn(ctx context.Context, sess *Session, message string, usr *user.User, tut *tutor.Tutor, role user.Role) Reply {
	if !sess.Ready() {
		system, err := o.prompts.System(tut, usr, role)
		if err != nil {
			o.log.Error("system prompt build failed", zap.Error(err))
			return Reply{Text: apologyMessage, Outcome: OutcomeDegraded}
		}

		conv, err := o.gateway.NewConversation(ctx, system, EnvelopeSchema())
		if err != nil {
			o.log.Error("conversation open failed", zap.String("tutorId", tut.ID), zap.Error(err))
			return Reply{Text: apologyMessage, Outcome: OutcomeDegraded}
		}
		sess.Bind(conv)
	}

	raw, err := o.timedSend(ctx, sess, message)
	if err != nil {
		return o.degrade(err, usr.ID, tut.ID)
	}

	env := Decode(raw)

	if !env.RequireTools.IsAccessToToolsRequired {
		return Reply{Text: env.Message, Outcome: OutcomeOK}
	}

	final, err := o.resolveWithTimeout(ctx, sess, resolveInput{
		UserMessage: message,
		Envelope:    env,
		Caller:      usr,
		Tutor:       tut,
		Role:        role,
	})
	if err != nil {
		return o.degrade(err, usr.ID, tut.ID)
	}
	return Reply{Text: final, Outcome: OutcomeOK}
}

func (o *Orchestrator) timedSend(ctx context.Context, sess *Session, text string) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()
	return sess.Send(tctx, text)
}

func (o *Orchestrator) resolveWithTimeout(ctx context.Context, sess *Session, in resolveInput) (string, error) {
	// Fresh budget for the tool fetches plus the follow-up round-trip.
	tctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()
	return o.resolver.Resolve(tctx, sess, in)
}

func (o *Orchestrator) degrade(err error, userID, tutorID string) Reply {
	if errors.Is(err, context.DeadlineExceeded) {
		o.log.Warn("model turn timed out", zap.String("userId", userID),
			zap.String("tutorId", tutorID), zap.Error(err))
		return Reply{Text: timeoutMessage, Outcome: OutcomeTimedOut}
	}

	o.log.Error("model turn failed", zap.String("userId", userID),
		zap.String("tutorId", tutorID), zap.Error(err))
	return Reply{Text: apologyMessage, Outcome: OutcomeDegraded}
}

// ClearSession evicts the cached conversation for one pair, forcing
// the next message to rebuild the system prompt.
func (o *Orchestrator) ClearSession(userID, tutorID string) {
	o.sessions.Evict(userID, tutorID)
}

// ClearAllSessions evicts every cached conversation.
func (o *Orchestrator) ClearAllSessions() {
	o.sessions.Clear()
}
