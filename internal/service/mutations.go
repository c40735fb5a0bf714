package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/RaduPandor/Blog-Web-App/internal/cache"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/RaduPandor/Blog-Web-App/internal/repository"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
)

// MutationKind names one of the three post writes.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

var failureMessages = map[MutationKind]string{
	MutationCreate: "Failed to add post.",
	MutationUpdate: "Failed to update post.",
	MutationDelete: "Failed to delete post.",
}

// MutationState is the lifecycle of the latest call of one kind.
type MutationState int

const (
	StateIdle MutationState = iota
	StatePending
	StateSucceeded
	StateFailed
)

func (s MutationState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Failure is the content of the coordinator's error slot.
type Failure struct {
	Kind     MutationKind
	Message  string
	Severity models.Severity
	Err      error
}

// MutationOption configures a single mutation call.
type MutationOption func(*mutationCall)

type mutationCall struct {
	onSuccess []func()
}

// OnSuccess registers fn to run once after this call succeeds.
func OnSuccess(fn func()) MutationOption {
	return func(c *mutationCall) {
		if fn != nil {
			c.onSuccess = append(c.onSuccess, fn)
		}
	}
}

// CoordinatorOption configures a PostMutations.
type CoordinatorOption func(*PostMutations)

// WithOnDone registers fn to run after every successful create or update,
// the way an editor form closes itself.
func WithOnDone(fn func(kind MutationKind)) CoordinatorOption {
	return func(m *PostMutations) {
		m.onDone = fn
	}
}

// WithMutationLogger sets the coordinator's logger.
func WithMutationLogger(l *slog.Logger) CoordinatorOption {
	return func(m *PostMutations) {
		if l != nil {
			m.logger = l
		}
	}
}

// PostMutations sequences post writes with cache invalidation and keeps
// one shared error slot for all three kinds. Concurrent calls are not
// deduplicated.
type PostMutations struct {
	repo   repository.PostRepository
	cache  *cache.QueryCache
	onDone func(kind MutationKind)
	logger *slog.Logger

	mu       sync.Mutex
	states   map[MutationKind]MutationState
	inFlight map[MutationKind]int
	failure  *Failure
}

func NewPostMutations(repo repository.PostRepository, qc *cache.QueryCache, opts ...CoordinatorOption) *PostMutations {
	m := &PostMutations{
		repo:     repo,
		cache:    qc,
		logger:   slog.Default(),
		states:   make(map[MutationKind]MutationState),
		inFlight: make(map[MutationKind]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create adds a post. Title and content are checked before anything is sent.
func (m *PostMutations) Create(ctx context.Context, in models.NewPost, opts ...MutationOption) (*models.Post, error) {
	if err := validation.ValidatePostForm(in.Title, in.Content); err != nil {
		return nil, err
	}
	var created *models.Post
	err := m.perform(ctx, MutationCreate, 0, func(ctx context.Context) (int, error) {
		post, err := m.repo.Create(ctx, in)
		if err != nil {
			return 0, err
		}
		created = post
		return post.ID, nil
	}, opts)
	return created, err
}

// Update replaces a post with the edited record.
func (m *PostMutations) Update(ctx context.Context, post models.Post, opts ...MutationOption) (*models.Post, error) {
	if err := validation.ValidatePostForm(post.Title, post.Content); err != nil {
		return nil, err
	}
	var updated *models.Post
	err := m.perform(ctx, MutationUpdate, post.ID, func(ctx context.Context) (int, error) {
		p, err := m.repo.Update(ctx, post)
		if err != nil {
			return 0, err
		}
		updated = p
		return p.ID, nil
	}, opts)
	return updated, err
}

// Delete removes a post.
func (m *PostMutations) Delete(ctx context.Context, id int, opts ...MutationOption) error {
	return m.perform(ctx, MutationDelete, id, func(ctx context.Context) (int, error) {
		return id, m.repo.Delete(ctx, id)
	}, opts)
}

func (m *PostMutations) perform(ctx context.Context, kind MutationKind, id int, write func(context.Context) (int, error), opts []MutationOption) error {
	call := &mutationCall{}
	for _, opt := range opts {
		opt(call)
	}

	m.begin(kind)
	affected, err := write(ctx)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// The caller is gone; leave the error slot alone.
			m.abandon(kind)
			observability.MutationResults.WithLabelValues(string(kind), "cancelled").Inc()
			return err
		}
		m.fail(kind, err)
		observability.MutationResults.WithLabelValues(string(kind), "failure").Inc()
		m.logger.WarnContext(ctx, "post mutation failed",
			slog.String("kind", string(kind)),
			slog.Int("post_id", id),
			slog.String("severity", models.SeverityOf(err).String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	// The write happened, so the cache must learn about it even if the
	// caller has gone away in the meantime.
	keys := []string{cache.PostsListKey}
	if affected > 0 {
		keys = append(keys, cache.PostKey(affected))
	}
	if id > 0 && id != affected {
		keys = append(keys, cache.PostKey(id))
	}
	m.cache.Invalidate(context.WithoutCancel(ctx), keys...)

	m.succeed(kind)
	observability.MutationResults.WithLabelValues(string(kind), "success").Inc()
	if ctx.Err() != nil {
		return nil
	}

	for _, fn := range call.onSuccess {
		fn()
	}
	if m.onDone != nil && kind != MutationDelete {
		m.onDone(kind)
	}
	return nil
}

func (m *PostMutations) begin(kind MutationKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight[kind]++
	m.states[kind] = StatePending
}

func (m *PostMutations) settle(kind MutationKind, state MutationState) {
	m.inFlight[kind]--
	if m.inFlight[kind] > 0 {
		return
	}
	m.states[kind] = state
}

func (m *PostMutations) succeed(kind MutationKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = nil
	m.settle(kind, StateSucceeded)
}

func (m *PostMutations) fail(kind MutationKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = &Failure{
		Kind:     kind,
		Message:  failureMessages[kind],
		Severity: models.SeverityOf(err),
		Err:      err,
	}
	m.settle(kind, StateFailed)
}

func (m *PostMutations) abandon(kind MutationKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settle(kind, StateIdle)
}

// State returns the state of the latest call of kind.
func (m *PostMutations) State(kind MutationKind) MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[kind]
}

// Pending reports whether any call of kind is in flight.
func (m *PostMutations) Pending(kind MutationKind) bool {
	return m.State(kind) == StatePending
}

// ErrorMessage returns the message in the shared error slot, or "".
func (m *PostMutations) ErrorMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure == nil {
		return ""
	}
	return m.failure.Message
}

// LastFailure returns a copy of the shared error slot, or nil.
func (m *PostMutations) LastFailure() *Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure == nil {
		return nil
	}
	f := *m.failure
	return &f
}
