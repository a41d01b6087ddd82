// Package sync implements the offline-cache synchronization engine: per
// entity kind, pull every page of changes since the last successful sync,
// merge into the local store, and persist the cursor, retrying transient
// failures with exponential backoff.
package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/turnernet/tracksync/internal/infrastructure/api"
	"github.com/turnernet/tracksync/internal/infrastructure/pubsub"
	"github.com/turnernet/tracksync/internal/infrastructure/repository"
	"github.com/turnernet/tracksync/internal/shared/clock"
	"github.com/turnernet/tracksync/internal/shared/db"
	"github.com/turnernet/tracksync/internal/shared/goroutine"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// Kind is an independently synced entity collection.
type Kind string

const (
	KindTickets         Kind = "tickets"
	KindClients         Kind = "clients"
	KindHardware        Kind = "hardware"
	KindInventoryEvents Kind = "inventory-events"
)

// Path returns the list endpoint for the kind.
func (k Kind) Path() string {
	switch k {
	case KindTickets:
		return "/api/v1/tickets"
	case KindClients:
		return "/api/v1/clients"
	case KindHardware:
		return "/api/v1/hardware"
	case KindInventoryEvents:
		return "/api/v1/inventory/events"
	default:
		return "/api/v1/" + string(k)
	}
}

// AllKinds lists every synced collection.
func AllKinds() []Kind {
	return []Kind{KindTickets, KindClients, KindHardware, KindInventoryEvents}
}

// Merger merges wire records into the local store, returning the merged
// record's updatedAt.
type Merger interface {
	UpsertTicket(ctx context.Context, dto api.TicketDTO) (time.Time, error)
	UpsertClient(ctx context.Context, dto api.ClientDTO) (time.Time, error)
	UpsertHardware(ctx context.Context, dto api.HardwareDTO) (time.Time, error)
	UpsertInventoryEvent(ctx context.Context, dto api.InventoryEventDTO) (time.Time, error)
}

// Engine orchestrates paginated fetch, merge, and cursor advance for all
// entity kinds.
type Engine struct {
	client    *api.Client
	merger    Merger
	txManager *db.TransactionManager
	metadata  *repository.SyncMetadataRepository
	bus       *pubsub.StoreBus
	clk       clock.Clock
	logger    logger.Interface
	pageLimit int

	mu        stdsync.Mutex
	syncing   bool
	lastError string
	backoffs  map[Kind]*Backoff
}

// NewEngine creates a sync engine.
func NewEngine(
	client *api.Client,
	merger Merger,
	txManager *db.TransactionManager,
	metadata *repository.SyncMetadataRepository,
	bus *pubsub.StoreBus,
	clk clock.Clock,
	log logger.Interface,
	pageLimit int,
) *Engine {
	if pageLimit <= 0 {
		pageLimit = 200
	}
	backoffs := make(map[Kind]*Backoff, len(AllKinds()))
	for _, kind := range AllKinds() {
		backoffs[kind] = NewBackoff()
	}
	return &Engine{
		client:    client,
		merger:    merger,
		txManager: txManager,
		metadata:  metadata,
		bus:       bus,
		clk:       clk,
		logger:    log,
		pageLimit: pageLimit,
		backoffs:  backoffs,
	}
}

// IsSyncing reports whether a SyncAll run is in flight.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// LastError returns the user-facing message of the most recent SyncAll
// failure, empty after a clean run.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// LastSyncTimes returns the last successful sync timestamp per kind.
func (e *Engine) LastSyncTimes(ctx context.Context) (map[Kind]*time.Time, error) {
	rows, err := e.metadata.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[Kind]*time.Time, len(rows))
	for _, row := range rows {
		out[Kind(row.Key)] = row.LastSuccessfulSync
	}
	return out, nil
}

// SyncAll syncs every kind concurrently and waits for all to finish. A call
// while a run is already in flight is a no-op. One kind's failure does not
// roll back another's progress; the first failure is recorded as the last
// error and returned.
func (e *Engine) SyncAll(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		e.logger.Debugw("sync already in flight, skipping")
		return nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	var (
		wg       stdsync.WaitGroup
		errMu    stdsync.Mutex
		firstErr error
	)
	for _, kind := range AllKinds() {
		kind := kind
		wg.Add(1)
		goroutine.SafeGo(e.logger, "sync-"+string(kind), func() {
			defer wg.Done()
			if err := e.Sync(ctx, kind); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		})
	}
	wg.Wait()

	e.mu.Lock()
	if firstErr != nil {
		e.lastError = api.UserMessage(firstErr)
	} else {
		e.lastError = ""
	}
	e.mu.Unlock()

	return firstErr
}

// Sync pulls all pending pages for one kind. Safe to call for a single kind
// while a SyncAll run is in flight; merges are idempotent by id.
func (e *Engine) Sync(ctx context.Context, kind Kind) error {
	switch kind {
	case KindTickets:
		return syncKind(ctx, e, kind, e.merger.UpsertTicket)
	case KindClients:
		return syncKind(ctx, e, kind, e.merger.UpsertClient)
	case KindHardware:
		return syncKind(ctx, e, kind, e.merger.UpsertHardware)
	case KindInventoryEvents:
		return syncKind(ctx, e, kind, e.merger.UpsertInventoryEvent)
	default:
		return errors.New("sync: unknown entity kind " + string(kind))
	}
}

// syncKind is the per-kind sync loop. Pages are processed strictly in
// order: page N+1 is not fetched until page N is merged and the metadata
// row saved, because updated_since/cursor correctness depends on it.
func syncKind[T any](ctx context.Context, e *Engine, kind Kind, upsert func(context.Context, T) (time.Time, error)) error {
	meta, err := e.metadata.Get(ctx, string(kind))
	if err != nil {
		return err
	}

	initialSync := meta.LastSuccessfulSync
	var (
		page       = 1
		cursor     *string
		since      = initialSync
		newestSeen = initialSync
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		query := api.SyncQuery{
			Limit:        e.pageLimit,
			Page:         page,
			UpdatedSince: since,
			Cursor:       cursor,
		}
		// A conditional request only makes sense on the first page of a
		// repeat sync; a first-ever sync has nothing to validate against.
		if page == 1 && initialSync != nil && meta.ETag != nil {
			query.IfNoneMatch = *meta.ETag
		}

		resp, err := api.ListPage[T](ctx, e.client, kind.Path(), query)
		if err != nil {
			retry, delay := classifyRetry(e, kind, err)
			if !retry {
				e.logger.Warnw("sync failed",
					"kind", kind,
					"page", page,
					"error", err,
				)
				return err
			}
			e.logger.Infow("sync retrying after transient failure",
				"kind", kind,
				"page", page,
				"delay", delay,
				"error", err,
			)
			if err := e.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == 304 {
			if resp.ETag != "" {
				if err := e.metadata.Update(ctx, string(kind), nil, &resp.ETag); err != nil {
					return err
				}
			}
			e.logger.Debugw("collection unchanged", "kind", kind)
			break
		}

		var items []T
		if resp.Value != nil {
			items = resp.Value.Items
		}

		if len(items) > 0 {
			pageNewest := newestSeen
			err := e.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
				for _, item := range items {
					updatedAt, err := upsert(txCtx, item)
					if err != nil {
						return err
					}
					if pageNewest == nil || updatedAt.After(*pageNewest) {
						t := updatedAt
						pageNewest = &t
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			newestSeen = pageNewest
		}

		// The etag is recorded even for an empty final page; the next run's
		// conditional request must validate against the freshest value.
		var etag *string
		if resp.ETag != "" {
			etag = &resp.ETag
		}
		if len(items) > 0 || etag != nil {
			if err := e.metadata.Update(ctx, string(kind), newestSeen, etag); err != nil {
				return err
			}
		}
		if len(items) > 0 {
			e.bus.Publish(pubsub.StoreEvent{Kind: string(kind), Count: len(items)})
			since = newestSeen
		}

		e.logger.Debugw("page merged",
			"kind", kind,
			"page", page,
			"items", len(items),
		)

		if resp.Value == nil || len(items) == 0 || resp.Value.NextCursor == nil {
			break
		}
		cursor = resp.Value.NextCursor
		page++
	}

	if advanced(initialSync, newestSeen) {
		e.backoff(kind).Reset()
	}
	return nil
}

// classifyRetry decides whether an error is transient and what delay to
// wait before retrying the same page. Rate limits honor the server's
// Retry-After when present.
func classifyRetry(e *Engine, kind Kind, err error) (bool, time.Duration) {
	var rateLimited *api.RateLimitedError
	if errors.As(err, &rateLimited) {
		if rateLimited.RetryAfter != nil {
			return true, *rateLimited.RetryAfter
		}
		return true, e.backoff(kind).NextDelay()
	}
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		return true, e.backoff(kind).NextDelay()
	}
	return false, 0
}

func (e *Engine) backoff(kind Kind) *Backoff {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.backoffs[kind]
	if !ok {
		b = NewBackoff()
		e.backoffs[kind] = b
	}
	return b
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clk.After(d):
		return nil
	}
}

func advanced(before, after *time.Time) bool {
	if after == nil {
		return false
	}
	return before == nil || after.After(*before)
}
