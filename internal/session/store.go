// Package session resolves the current identity and keeps it, together with
// the session cookies, between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/redis/go-redis/v9"
)

// Store keeps the last confirmed identity.
type Store interface {
	// Load returns nil when nothing is stored.
	Load(ctx context.Context) (*models.Identity, error)
	Save(ctx context.Context, identity *models.Identity) error
	// Clear drops the identity and any saved cookies.
	Clear(ctx context.Context) error
}

// CookieStore keeps the backend session cookies.
type CookieStore interface {
	LoadCookies(ctx context.Context) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, cookies []*http.Cookie) error
}

// savedCookie is the persisted form of an http.Cookie. Only the fields a
// cookie jar needs to send it back are kept.
type savedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Domain  string    `json:"domain,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func toSaved(cookies []*http.Cookie) []savedCookie {
	out := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, savedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Domain: c.Domain, Expires: c.Expires})
	}
	return out
}

func fromSaved(saved []savedCookie) []*http.Cookie {
	now := time.Now()
	out := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: path, Domain: c.Domain, Expires: c.Expires})
	}
	return out
}

func cloneIdentity(id *models.Identity) *models.Identity {
	if id == nil {
		return nil
	}
	out := *id
	out.Roles = append([]string(nil), id.Roles...)
	return &out
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	identity *models.Identity
	cookies  []*http.Cookie
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneIdentity(s.identity), nil
}

func (s *MemoryStore) Save(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = cloneIdentity(identity)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.cookies = nil
	return nil
}

func (s *MemoryStore) LoadCookies(context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Cookie(nil), s.cookies...), nil
}

func (s *MemoryStore) SaveCookies(_ context.Context, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = append([]*http.Cookie(nil), cookies...)
	return nil
}

type fileDocument struct {
	Identity *models.Identity `json:"identity,omitempty"`
	Cookies  []savedCookie    `json:"cookies,omitempty"`
}

// FileStore keeps the session in a JSON file readable only by its owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore backed by path. The file is created on
// the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (fileDocument, error) {
	var doc fileDocument
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("reading session file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fileDocument{}, fmt.Errorf("decoding session file %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load(context.Context) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Identity, nil
}

func (s *FileStore) Save(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		doc = fileDocument{}
	}
	doc.Identity = cloneIdentity(identity)
	return s.write(doc)
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func (s *FileStore) LoadCookies(context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return fromSaved(doc.Cookies), nil
}

func (s *FileStore) SaveCookies(_ context.Context, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		doc = fileDocument{}
	}
	doc.Cookies = toSaved(cookies)
	return s.write(doc)
}

// RedisStore keeps the session in Redis under prefix, expiring after ttl.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl keeps keys until cleared.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) identityKey() string { return s.prefix + "identity" }
func (s *RedisStore) cookiesKey() string  { return s.prefix + "cookies" }

func (s *RedisStore) Load(ctx context.Context) (*models.Identity, error) {
	data, err := s.client.Get(ctx, s.identityKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var identity models.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("decoding stored identity: %w", err)
	}
	return &identity, nil
}

func (s *RedisStore) Save(ctx context.Context, identity *models.Identity) error {
	if identity == nil {
		return s.client.Del(ctx, s.identityKey()).Err()
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.identityKey(), data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.identityKey(), s.cookiesKey()).Err()
}

func (s *RedisStore) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	data, err := s.client.Get(ctx, s.cookiesKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decoding stored cookies: %w", err)
	}
	return fromSaved(saved), nil
}

func (s *RedisStore) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	data, err := json.Marshal(toSaved(cookies))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.cookiesKey(), data, s.ttl).Err()
}
