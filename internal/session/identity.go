package session

import (
	"context"
	"sync"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// IdentityContext is the single owner of "who is signed in" for one client.
// Components read it through Current and change it only through Refresh,
// Set and Reset; subscribers are told about every change.
type IdentityContext struct {
	resolver *Resolver
	store    Store

	mu      sync.RWMutex
	current *models.Identity
	subs    map[int]chan *models.Identity
	nextSub int
}

// NewIdentityContext creates an IdentityContext seeded from the store.
func NewIdentityContext(ctx context.Context, resolver *Resolver) *IdentityContext {
	return &IdentityContext{
		resolver: resolver,
		store:    resolver.store,
		current:  resolver.Cached(ctx),
		subs:     make(map[int]chan *models.Identity),
	}
}

// Current returns a copy of the identity, or nil when signed out.
func (c *IdentityContext) Current() *models.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneIdentity(c.current)
}

// Resolve returns the current identity at once and applies the backend's
// answer when it arrives. The returned channel is closed after that.
func (c *IdentityContext) Resolve(ctx context.Context) (*models.Identity, <-chan struct{}) {
	cached, confirmations := c.resolver.Resolve(ctx)
	if cached != nil {
		c.publish(cached)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		conf, ok := <-confirmations
		if !ok || ctx.Err() != nil {
			return
		}
		c.apply(conf.Identity, conf.Err)
	}()
	return c.Current(), done
}

// Refresh confirms the session synchronously and returns the resulting
// identity. Errors other than cancellation still leave the stale identity
// in place.
func (c *IdentityContext) Refresh(ctx context.Context) (*models.Identity, error) {
	identity, err := c.resolver.Confirm(ctx)
	if ctx.Err() != nil {
		return c.Current(), err
	}
	c.apply(identity, err)
	return c.Current(), err
}

// Set records a freshly signed-in identity.
func (c *IdentityContext) Set(ctx context.Context, identity *models.Identity) error {
	normalized := identity.Normalize()
	if err := c.store.Save(ctx, normalized); err != nil {
		return err
	}
	c.publish(normalized)
	return nil
}

// Reset signs the client out locally.
func (c *IdentityContext) Reset(ctx context.Context) error {
	err := c.store.Clear(ctx)
	c.publish(nil)
	return err
}

// Subscribe returns a channel that receives the identity after every change
// (nil for signed out) and a function that stops the subscription. Slow
// subscribers only see the latest value.
func (c *IdentityContext) Subscribe() (<-chan *models.Identity, func()) {
	ch := make(chan *models.Identity, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *IdentityContext) apply(identity *models.Identity, err error) {
	if err != nil && identity == nil {
		// Failed confirmation with nothing stored: keep whatever is current.
		return
	}
	c.publish(identity)
}

func (c *IdentityContext) publish(identity *models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = cloneIdentity(identity)
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cloneIdentity(identity)
	}
}
