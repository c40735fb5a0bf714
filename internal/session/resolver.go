package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

const (
	defaultConfirmTimeout = 3 * time.Second
	retryBackoff          = 150 * time.Millisecond
)

// Confirmer asks the backend who the session belongs to.
// repository.AuthRepository implements it.
type Confirmer interface {
	Me(ctx context.Context) (*models.Identity, error)
}

// Confirmation is the outcome of one background confirmation. A nil
// Identity with a nil Err means the session is gone.
type Confirmation struct {
	Identity *models.Identity
	Err      error
}

// Resolver serves the stored identity immediately and confirms it against
// the backend.
type Resolver struct {
	store     Store
	confirmer Confirmer
	timeout   time.Duration
	retries   int
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConfirmTimeout bounds each confirmation attempt.
func WithConfirmTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried. Values
// above one are capped at one.
func WithRetries(n int) Option {
	return func(r *Resolver) {
		switch {
		case n < 0:
			r.retries = 0
		case n > 1:
			r.retries = 1
		default:
			r.retries = n
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver. By default each attempt is bounded by 3s
// and a transient failure is retried once.
func NewResolver(store Store, confirmer Confirmer, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		confirmer: confirmer,
		timeout:   defaultConfirmTimeout,
		retries:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cached returns the stored identity without contacting the backend.
func (r *Resolver) Cached(ctx context.Context) *models.Identity {
	identity, err := r.store.Load(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to load stored identity", slog.String("error", err.Error()))
		return nil
	}
	return identity
}

// Resolve returns the stored identity at once and confirms it in the
// background. The channel yields exactly one Confirmation and is closed.
func (r *Resolver) Resolve(ctx context.Context) (*models.Identity, <-chan Confirmation) {
	cached := r.Cached(ctx)
	ch := make(chan Confirmation, 1)
	go func() {
		defer close(ch)
		identity, err := r.Confirm(ctx)
		ch <- Confirmation{Identity: identity, Err: err}
	}()
	return cached, ch
}

// Confirm asks the backend for the session owner and updates the store:
//   - success stores the normalized identity and returns it,
//   - an unauthenticated answer clears the store and returns (nil, nil),
//   - any other failure keeps the stored identity and returns it with the error.
//
// When ctx is cancelled the store is left untouched and ctx.Err() is returned.
func (r *Resolver) Confirm(ctx context.Context) (*models.Identity, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		identity, err := r.attempt(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if err == nil {
			if identity == nil {
				lastErr = models.NewFetchError(0, "empty identity response")
				break
			}
			normalized := identity.Normalize()
			if saveErr := r.store.Save(ctx, normalized); saveErr != nil {
				r.logger.WarnContext(ctx, "failed to store confirmed identity", slog.String("error", saveErr.Error()))
			}
			return normalized, nil
		}

		if models.IsUnauthenticated(err) {
			if clearErr := r.store.Clear(ctx); clearErr != nil {
				r.logger.WarnContext(ctx, "failed to clear stored identity", slog.String("error", clearErr.Error()))
			}
			return nil, nil
		}

		lastErr = err
		if models.SeverityOf(err) != models.SeverityTransient {
			break
		}
		r.logger.DebugContext(ctx, "identity confirmation failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	r.logger.InfoContext(ctx, "keeping stored identity after failed confirmation", slog.String("error", lastErr.Error()))
	return r.Cached(ctx), lastErr
}

func (r *Resolver) attempt(ctx context.Context) (*models.Identity, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.confirmer.Me(attemptCtx)
}
