// Package session owns the lifecycle of ephemeral per-document contexts. All
// state is in-memory and TTL-bound; nothing survives a process restart.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tutor-rag/internal/models"
	"tutor-rag/internal/vectorindex"
)

const (
	// DefaultTTL is how long a session lives unless overridden. Queries do
	// not extend a session's life; only re-uploading resets it.
	DefaultTTL = 20 * time.Minute

	// DefaultSweepInterval is the period of the background expiry sweep.
	DefaultSweepInterval = 60 * time.Second

	idPrefix  = "s_"
	idEntropy = 16 // bytes of randomness; the ID is also the access credential
)

// Context is the ephemeral unit of document state. The index, chunks and raw
// image are exclusively owned by the session and released on deletion.
type Context struct {
	ID        string
	Index     *vectorindex.Index
	Chunks    []models.Chunk
	CreatedAt time.Time
	ExpiresAt time.Time
	Metadata  map[string]any
	RawImage  []byte
}

func (c *Context) expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Info is the caller-visible summary of a session.
type Info struct {
	ID                  string         `json:"session_id"`
	CreatedAt           time.Time      `json:"created_at"`
	ExpiresAt           time.Time      `json:"expires_at"`
	TTLRemainingSeconds int            `json:"ttl_remaining_seconds"`
	ChunkCount          int            `json:"chunk_count"`
	VectorCount         int            `json:"vector_count"`
	Metadata            map[string]any `json:"metadata"`
}

// Store maps session IDs to contexts. It is the only state shared across
// concurrent requests; every mutation happens under one mutex so a reader
// never observes a session mid-deletion.
type Store struct {
	mu            sync.Mutex
	sessions      map[string]*Context
	defaultTTL    time.Duration
	sweepInterval time.Duration
	running       bool
	closed        bool
	stop          chan struct{}
	done          chan struct{}
}

func NewStore(defaultTTL, sweepInterval time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Store{
		sessions:      make(map[string]*Context),
		defaultTTL:    defaultTTL,
		sweepInterval: sweepInterval,
	}
}

// Start launches the periodic expiry sweeper. Calling it again while running
// is a no-op.
func (s *Store) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.sweepLoop(s.stop, s.done)
	log.Info().Dur("sweep_interval", s.sweepInterval).Msg("session store started")
}

// Stop cancels the sweeper and deletes every remaining session, releasing
// their resources before returning. The store is closed for good: a Create
// racing Stop must not leave a session alive with no sweeper running.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.closed = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	n := len(s.sessions)
	for id := range s.sessions {
		s.deleteLocked(id)
	}
	s.mu.Unlock()
	log.Info().Int("cleared", n).Msg("session store stopped")
}

// Create registers a fully populated session and returns its ID. The session
// becomes visible to readers atomically; no partial state is observable. On a
// stopped store the session is released immediately and the returned ID
// resolves to not found, same as an expired one.
func (s *Store) Create(index *vectorindex.Index, chunks []models.Chunk, metadata map[string]any, rawImage []byte, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()
	ctx := &Context{
		ID:        newSessionID(),
		Index:     index,
		Chunks:    chunks,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Metadata:  metadata,
		RawImage:  rawImage,
	}
	if ctx.Metadata == nil {
		ctx.Metadata = make(map[string]any)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		index.Clear()
		log.Warn().Str("session_id", ctx.ID).Msg("store stopped, dropping session")
		return ctx.ID
	}
	s.sessions[ctx.ID] = ctx
	s.mu.Unlock()

	log.Info().
		Str("session_id", ctx.ID).
		Dur("ttl", ttl).
		Int("chunks", len(chunks)).
		Int("vectors", index.Size()).
		Bool("raw_image", rawImage != nil).
		Msg("created session")

	return ctx.ID
}

// Get returns the session or ErrNotFound. An expired-but-not-yet-swept
// session is treated as absent and deleted on the spot (lazy expiry).
func (s *Store) Get(id string) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if ctx.expired(time.Now()) {
		log.Info().Str("session_id", id).Msg("session expired, removing")
		s.deleteLocked(id)
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return ctx, nil
}

// Delete removes a session, reporting whether anything was removed. Deleting
// an absent or already-deleted session is a safe no-op.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

// Info summarizes a session without exposing its owned resources.
func (s *Store) Info(id string) (*Info, error) {
	ctx, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return &Info{
		ID:                  ctx.ID,
		CreatedAt:           ctx.CreatedAt,
		ExpiresAt:           ctx.ExpiresAt,
		TTLRemainingSeconds: int(time.Until(ctx.ExpiresAt).Seconds()),
		ChunkCount:          len(ctx.Chunks),
		VectorCount:         ctx.Index.Size(),
		Metadata:            ctx.Metadata,
	}, nil
}

// Len reports the number of live sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// deleteLocked releases the session's resources eagerly so memory is bounded
// under many concurrent uploads. Caller holds s.mu.
func (s *Store) deleteLocked(id string) bool {
	ctx, ok := s.sessions[id]
	if !ok {
		return false
	}
	delete(s.sessions, id)

	ctx.Index.Clear()
	ctx.Chunks = nil
	ctx.RawImage = nil
	ctx.Metadata = nil

	log.Debug().Str("session_id", id).Msg("deleted session")
	return true
}

func (s *Store) sweepLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	var expired []string
	for id, ctx := range s.sessions {
		if ctx.expired(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.deleteLocked(id)
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("swept expired sessions")
	}
}

// newSessionID returns an unguessable token with 128 bits of entropy. The ID
// doubles as the access credential, so a CSPRNG is required.
func newSessionID() string {
	b := make([]byte, idEntropy)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: crypto/rand unavailable: %v", err))
	}
	return idPrefix + base64.RawURLEncoding.EncodeToString(b)
}
