package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/cache"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryPosts is a tiny in-process backend for coordinator tests.
type memoryPosts struct {
	mu     sync.Mutex
	nextID int
	posts  map[int]models.Post
	lists  int
}

func newMemoryPosts() *memoryPosts {
	return &memoryPosts{nextID: 1, posts: make(map[int]models.Post)}
}

func (m *memoryPosts) stub() *postRepoStub {
	return &postRepoStub{
		listFn: func(context.Context) ([]models.PostPreview, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.lists++
			out := make([]models.PostPreview, 0, len(m.posts))
			for id := 1; id < m.nextID; id++ {
				if p, ok := m.posts[id]; ok {
					out = append(out, models.PostPreview{ID: p.ID, Title: p.Title, ContentPreview: p.Content})
				}
			}
			return out, nil
		},
		getFn: func(_ context.Context, id int) (*models.Post, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			p, ok := m.posts[id]
			if !ok {
				return nil, models.NewNotFoundError("post", id)
			}
			return &p, nil
		},
		createFn: func(_ context.Context, in models.NewPost) (*models.Post, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			p := models.Post{ID: m.nextID, Title: in.Title, Content: in.Content, AuthorID: in.Author}
			m.posts[p.ID] = p
			m.nextID++
			return &p, nil
		},
		updateFn: func(_ context.Context, in models.Post) (*models.Post, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.posts[in.ID]; !ok {
				return nil, models.NewNotFoundError("post", in.ID)
			}
			m.posts[in.ID] = in
			return &in, nil
		},
		deleteFn: func(_ context.Context, id int) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.posts[id]; !ok {
				return models.NewNotFoundError("post", id)
			}
			delete(m.posts, id)
			return nil
		},
	}
}

func newCoordinator(repo *postRepoStub, opts ...CoordinatorOption) (*PostMutations, *PostQueries) {
	qc := cache.NewQueryCache(nil, time.Minute, observability.Discard())
	opts = append(opts, WithMutationLogger(observability.Discard()))
	return NewPostMutations(repo, qc, opts...), NewPostQueries(repo, qc)
}

func TestPostMutations_CreateInvalidatesList(t *testing.T) {
	backend := newMemoryPosts()
	mutations, queries := newCoordinator(backend.stub())
	ctx := context.Background()

	before, err := queries.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)

	_, err = queries.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.lists, "second read is served from cache")

	created, err := mutations.Create(ctx, models.NewPost{Title: "Hello", Content: "World", Author: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, StateSucceeded, mutations.State(MutationCreate))

	after, err := queries.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "Hello", after[0].Title)
	assert.Equal(t, "World", after[0].ContentPreview)
	assert.Equal(t, 2, backend.lists)
}

func TestPostMutations_UpdateInvalidatesDetail(t *testing.T) {
	backend := newMemoryPosts()
	mutations, queries := newCoordinator(backend.stub())
	ctx := context.Background()

	created, err := mutations.Create(ctx, models.NewPost{Title: "v1", Content: "body", Author: "u"})
	require.NoError(t, err)

	post, err := queries.Get(ctx, created.ID)
	require.NoError(t, err)

	_, err = mutations.Update(ctx, post.WithEdits("v2", "body"))
	require.NoError(t, err)

	again, err := queries.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", again.Title)
}

func TestPostMutations_CallbacksRunOnce(t *testing.T) {
	backend := newMemoryPosts()
	var done []MutationKind
	mutations, _ := newCoordinator(backend.stub(), WithOnDone(func(kind MutationKind) { done = append(done, kind) }))
	ctx := context.Background()

	calls := 0
	created, err := mutations.Create(ctx, models.NewPost{Title: "t", Content: "c"}, OnSuccess(func() { calls++ }))
	require.NoError(t, err)
	require.NoError(t, mutations.Delete(ctx, created.ID, OnSuccess(func() { calls++ })))

	assert.Equal(t, 2, calls)
	assert.Equal(t, []MutationKind{MutationCreate}, done, "delete does not close the editor")
}

func TestPostMutations_SharedErrorSlot(t *testing.T) {
	backend := newMemoryPosts()
	stub := backend.stub()
	stub.createFn = func(context.Context, models.NewPost) (*models.Post, error) {
		return nil, models.NewNetworkError(errors.New("connection refused"))
	}
	mutations, _ := newCoordinator(stub)
	ctx := context.Background()
	failed := false

	_, err := mutations.Create(ctx, models.NewPost{Title: "t", Content: "c"}, OnSuccess(func() { failed = true }))
	require.Error(t, err)
	assert.False(t, failed)
	assert.Equal(t, "Failed to add post.", mutations.ErrorMessage())
	assert.Equal(t, models.SeverityTransient, mutations.LastFailure().Severity)
	assert.Equal(t, StateFailed, mutations.State(MutationCreate))

	err = mutations.Delete(ctx, 99)
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, "Failed to delete post.", mutations.ErrorMessage(), "later failure overwrites the slot")
	assert.Equal(t, models.SeverityRejected, mutations.LastFailure().Severity)
	assert.Equal(t, MutationDelete, mutations.LastFailure().Kind)

	stub.createFn = backend.stub().createFn
	_, err = mutations.Create(ctx, models.NewPost{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Empty(t, mutations.ErrorMessage(), "success clears the slot")
	assert.Nil(t, mutations.LastFailure())
}

func TestPostMutations_ForbiddenUpdate(t *testing.T) {
	stub := newMemoryPosts().stub()
	stub.updateFn = func(context.Context, models.Post) (*models.Post, error) {
		return nil, models.NewForbiddenError(403, "Forbidden")
	}
	mutations, _ := newCoordinator(stub)

	_, err := mutations.Update(context.Background(), models.Post{ID: 1, Title: "t", Content: "c"})
	assert.True(t, models.IsForbidden(err))
	assert.Equal(t, "Failed to update post.", mutations.ErrorMessage())
	assert.Equal(t, models.SeverityRejected, mutations.LastFailure().Severity)
}

func TestPostMutations_PendingWhileInFlight(t *testing.T) {
	stub := newMemoryPosts().stub()
	entered := make(chan struct{})
	release := make(chan struct{})
	stub.deleteFn = func(context.Context, int) error {
		close(entered)
		<-release
		return nil
	}
	mutations, _ := newCoordinator(stub)

	assert.Equal(t, StateIdle, mutations.State(MutationDelete))
	errCh := make(chan error, 1)
	go func() { errCh <- mutations.Delete(context.Background(), 1) }()

	<-entered
	assert.True(t, mutations.Pending(MutationDelete))
	close(release)
	require.NoError(t, <-errCh)
	assert.Equal(t, StateSucceeded, mutations.State(MutationDelete))
}

func TestPostMutations_CancelledCallerLeavesSlotAlone(t *testing.T) {
	stub := newMemoryPosts().stub()
	ctx, cancel := context.WithCancel(context.Background())
	stub.createFn = func(ctx context.Context, _ models.NewPost) (*models.Post, error) {
		cancel()
		return nil, ctx.Err()
	}
	mutations, _ := newCoordinator(stub)

	_, err := mutations.Create(ctx, models.NewPost{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mutations.ErrorMessage())
	assert.Equal(t, StateIdle, mutations.State(MutationCreate))
}

func TestPostMutations_LocalValidation(t *testing.T) {
	stub := newMemoryPosts().stub()
	stub.createFn = func(context.Context, models.NewPost) (*models.Post, error) {
		t.Fatal("invalid forms must not reach the backend")
		return nil, nil
	}
	mutations, _ := newCoordinator(stub)

	_, err := mutations.Create(context.Background(), models.NewPost{Title: " ", Content: "c"})
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, StateIdle, mutations.State(MutationCreate))
}

func TestPostQueries_ViewEvaluatesAccess(t *testing.T) {
	backend := newMemoryPosts()
	mutations, queries := newCoordinator(backend.stub())
	ctx := context.Background()

	created, err := mutations.Create(ctx, models.NewPost{Title: "t", Content: "c", Author: "user-1"})
	require.NoError(t, err)

	view, err := queries.View(ctx, created.ID, userIdentity())
	require.NoError(t, err)
	assert.True(t, view.CanEdit)

	view, err = queries.View(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.False(t, view.CanEdit)

	_, err = queries.Get(ctx, 0)
	assert.True(t, models.IsValidation(err))
}
