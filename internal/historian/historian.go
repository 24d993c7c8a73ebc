// Package historian drains the room action queue from Redis and stores it in
// Postgres in batches. Hands that stop producing actions are marked abandoned.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Queue yields raw action records. Pop returns ("", nil) when nothing arrived
// within timeout.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// ActionStore persists actions and hand status.
type ActionStore interface {
	InsertRoomActions(ctx context.Context, records []cache.RoomActionRecord) error
	MarkHandAbandoned(ctx context.Context, handID uuid.UUID) error
}

// RedisQueue pops from a Redis list with BLPOP.
type RedisQueue struct {
	Client *redis.Client
	Name   string
}

func (q RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.Client.BLPop(ctx, timeout, q.Name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// PostgresStore writes through the database package.
type PostgresStore struct{}

func (PostgresStore) InsertRoomActions(ctx context.Context, records []cache.RoomActionRecord) error {
	return database.InsertRoomActions(ctx, records)
}

func (PostgresStore) MarkHandAbandoned(ctx context.Context, handID uuid.UUID) error {
	return database.MarkHandAbandoned(ctx, handID)
}

// Options tune batching and abandonment.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration
	PopTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 500 * time.Millisecond
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 10 * time.Minute
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 3 * time.Second
	}
	return o
}

// terminalActions close a hand; their hands stop being tracked for inactivity.
var terminalActions = map[string]bool{
	"hand_won":     true,
	"hand_aborted": true,
}

// Service is the historian loop.
type Service struct {
	queue Queue
	store ActionStore
	opts  Options
	now   func() time.Time

	batchMu sync.Mutex
	batch   []cache.RoomActionRecord

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time
}

func NewService(queue Queue, store ActionStore, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		queue:        queue,
		store:        store,
		opts:         opts,
		now:          time.Now,
		batch:        make([]cache.RoomActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run pops records until ctx ends, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	log.Info("uno-historian service started.")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.timerLoop(ctx)
	}()
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(flushCtx); err != nil {
		log.Errorf("final flush: %v", err)
	}
	log.Info("uno-historian shutting down.")
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := s.queue.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("queue pop: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if raw == "" {
			continue
		}
		rec, err := cache.DecodeRoomAction(raw)
		if err != nil {
			log.Warnf("invalid action record: %v", err)
			continue
		}
		s.Add(ctx, rec)
	}
}

func (s *Service) timerLoop(ctx context.Context) {
	flush := time.NewTicker(s.opts.FlushInterval)
	defer flush.Stop()
	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush.C:
			if err := s.Flush(ctx); err != nil {
				log.Errorf("flush: %v", err)
			}
		case <-sweep.C:
			s.SweepInactive(ctx)
		}
	}
}

// Add tracks rec's hand and queues it, flushing once the batch is full.
func (s *Service) Add(ctx context.Context, rec cache.RoomActionRecord) {
	s.activityMu.Lock()
	if terminalActions[rec.ActionType] {
		delete(s.lastActivity, rec.HandID)
	} else {
		s.lastActivity[rec.HandID] = s.now()
	}
	s.activityMu.Unlock()

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		if err := s.Flush(ctx); err != nil {
			log.Errorf("flush: %v", err)
		}
	}
}

// Flush writes the pending batch in one call. On failure the batch is kept
// for the next attempt.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return nil
	}
	if err := s.store.InsertRoomActions(ctx, s.batch); err != nil {
		return err
	}
	log.Debugf("Flushed %d actions to DB.", len(s.batch))
	s.batch = s.batch[:0]
	return nil
}

// Pending is the number of records waiting to be flushed.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// SweepInactive marks hands idle for longer than the inactivity window as abandoned.
func (s *Service) SweepInactive(ctx context.Context) {
	now := s.now()
	var stale []uuid.UUID
	s.activityMu.Lock()
	for handID, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, handID)
			delete(s.lastActivity, handID)
		}
	}
	s.activityMu.Unlock()

	for _, handID := range stale {
		if err := s.store.MarkHandAbandoned(ctx, handID); err != nil {
			log.Errorf("failed to mark hand %v abandoned: %v", handID, err)
			continue
		}
		log.Infof("Marked hand %v as 'abandoned' due to inactivity.", handID)
	}
}
