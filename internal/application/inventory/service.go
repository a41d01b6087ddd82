// Package inventory implements client-originated inventory writes: a
// quantity adjustment is applied optimistically to the local store first,
// then reconciled against the server's authoritative record.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turnernet/tracksync/internal/application/sync"
	"github.com/turnernet/tracksync/internal/infrastructure/api"
	"github.com/turnernet/tracksync/internal/infrastructure/persistence/mappers"
	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
	"github.com/turnernet/tracksync/internal/infrastructure/pubsub"
	"github.com/turnernet/tracksync/internal/infrastructure/repository"
	"github.com/turnernet/tracksync/internal/shared/clock"
	"github.com/turnernet/tracksync/internal/shared/db"
	apperrors "github.com/turnernet/tracksync/internal/shared/errors"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// minimum wait before a scoped re-sync after a rate-limited adjustment
const rateLimitFloor = 5 * time.Second

// Service coordinates optimistic inventory adjustments.
type Service struct {
	client    *api.Client
	txManager *db.TransactionManager
	mapper    *mappers.EntityMapper
	hardware  *repository.HardwareRepository
	events    *repository.InventoryEventRepository
	pending   *repository.PendingAdjustmentRepository
	engine    *sync.Engine
	bus       *pubsub.StoreBus
	clk       clock.Clock
	logger    logger.Interface
}

// NewService creates an inventory service.
func NewService(
	client *api.Client,
	txManager *db.TransactionManager,
	mapper *mappers.EntityMapper,
	hardware *repository.HardwareRepository,
	events *repository.InventoryEventRepository,
	pending *repository.PendingAdjustmentRepository,
	engine *sync.Engine,
	bus *pubsub.StoreBus,
	clk clock.Clock,
	log logger.Interface,
) *Service {
	return &Service{
		client:    client,
		txManager: txManager,
		mapper:    mapper,
		hardware:  hardware,
		events:    events,
		pending:   pending,
		engine:    engine,
		bus:       bus,
		clk:       clk,
		logger:    log,
	}
}

// AdjustmentResult reports what happened to a submitted adjustment.
type AdjustmentResult struct {
	// EventID is the id of the locally visible event: the server's record
	// after confirmation, or the optimistic placeholder while unconfirmed.
	EventID string
	// Confirmed is false while the event is still pendingRetry.
	Confirmed bool
	// Message is a user-facing confirmation or failure summary.
	Message string
}

// SubmitAdjustment applies a quantity change optimistically, pushes it to
// the server, and reconciles. A confirmed adjustment is followed by a
// scoped sync of inventory events. On remote failure the optimistic event
// stays unconfirmed and a retry breadcrumb is queued; a rate-limited
// failure schedules the scoped re-sync after the server's suggested delay.
func (s *Service) SubmitAdjustment(ctx context.Context, hardwareID string, delta int, note *string) (*AdjustmentResult, error) {
	hw, err := s.hardware.FindByID(ctx, hardwareID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("hardware not found", hardwareID)
		}
		return nil, err
	}

	now := clock.NowUTC()
	optimistic := &models.InventoryEventModel{
		ID:           uuid.NewString(),
		HardwareID:   &hw.ID,
		Delta:        delta,
		Balance:      hw.QuantityOnHand + delta,
		Note:         note,
		CreatedAt:    now,
		UpdatedAt:    now,
		PendingRetry: true,
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.events.Create(txCtx, optimistic); err != nil {
			return err
		}
		return s.hardware.SetQuantity(txCtx, hw.ID, optimistic.Balance)
	})
	if err != nil {
		// Local persistence failures are surfaced, not masked: the store
		// and the would-be optimistic state must not silently diverge.
		return nil, fmt.Errorf("failed to apply optimistic adjustment: %w", err)
	}
	s.bus.Publish(pubsub.StoreEvent{Kind: string(sync.KindInventoryEvents), Count: 1})

	resp, err := s.client.AdjustInventory(ctx, api.InventoryAdjustmentRequest{
		HardwareID: hw.ID,
		Quantity:   delta,
		Note:       note,
		Barcode:    hw.Barcode,
	})
	if err != nil {
		return s.handleRemoteFailure(ctx, hw, optimistic, delta, note, err)
	}

	return s.reconcile(ctx, hw, optimistic, resp)
}

// reconcile merges the server's authoritative record over the optimistic
// one. When the server assigned its own event id, the optimistic
// placeholder is removed so exactly one event represents the adjustment.
// The confirmed event goes through the same merge path the sync engine
// uses, so the hardware's lastInventoryEventAt moves with it.
func (s *Service) reconcile(ctx context.Context, hw *models.HardwareModel, optimistic *models.InventoryEventModel, resp *api.InventoryReceiveResponse) (*AdjustmentResult, error) {
	eventID := optimistic.ID

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if resp != nil && resp.Event != nil {
			event := *resp.Event
			if event.ID != "" && event.ID != optimistic.ID {
				if err := s.events.DeleteByID(txCtx, optimistic.ID); err != nil {
					return err
				}
			}
			if event.ID == "" {
				event.ID = optimistic.ID
			}
			if event.HardwareID == "" {
				event.HardwareID = hw.ID
			}
			event.PendingRetry = false
			if _, err := s.mapper.UpsertInventoryEvent(txCtx, event); err != nil {
				return err
			}
			eventID = event.ID
			return s.hardware.SetQuantity(txCtx, hw.ID, event.Balance)
		}

		// No event in the response body: the write succeeded, keep the
		// optimistic balance and just clear the pending flag.
		return s.events.MarkConfirmed(txCtx, optimistic.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile adjustment: %w", err)
	}
	s.bus.Publish(pubsub.StoreEvent{Kind: string(sync.KindInventoryEvents), Count: 1})

	// Pull whatever else the server recorded around this adjustment.
	if err := s.engine.Sync(ctx, sync.KindInventoryEvents); err != nil {
		s.logger.Warnw("inventory sync after adjustment failed", "error", err)
	}

	_, message := resp.Confirmation()
	return &AdjustmentResult{EventID: eventID, Confirmed: true, Message: message}, nil
}

// handleRemoteFailure leaves the optimistic event unconfirmed, queues a
// retry breadcrumb, and for rate limits waits out the suggested delay
// before a scoped re-sync of inventory events.
func (s *Service) handleRemoteFailure(ctx context.Context, hw *models.HardwareModel, optimistic *models.InventoryEventModel, delta int, note *string, cause error) (*AdjustmentResult, error) {
	message := api.UserMessage(cause)
	if _, err := s.pending.Enqueue(ctx, hw.ID, delta, note, message); err != nil {
		s.logger.Errorw("failed to enqueue pending adjustment",
			"hardware_id", hw.ID,
			"error", err,
		)
	}
	s.bus.Publish(pubsub.StoreEvent{Kind: "pending-adjustments", Count: 1})

	var rateLimited *api.RateLimitedError
	if errors.As(cause, &rateLimited) {
		delay := rateLimitFloor
		if rateLimited.RetryAfter != nil && *rateLimited.RetryAfter > delay {
			delay = *rateLimited.RetryAfter
		}
		s.logger.Infow("adjustment rate limited, scheduling inventory re-sync",
			"hardware_id", hw.ID,
			"delay", delay,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.clk.After(delay):
		}
		if err := s.engine.Sync(ctx, sync.KindInventoryEvents); err != nil {
			s.logger.Warnw("inventory re-sync after rate limit failed", "error", err)
		}
	}

	return &AdjustmentResult{EventID: optimistic.ID, Confirmed: false, Message: message}, nil
}

// Receive posts a stock receipt by barcode and returns the user-facing
// confirmation. Receipts are server-first (no optimistic write): the
// hardware row updates on the next sync or from the response event.
func (s *Service) Receive(ctx context.Context, req api.InventoryReceiveRequest) (title, message string, err error) {
	resp, err := s.client.ReceiveInventory(ctx, req)
	if err != nil {
		return "", "", err
	}

	if resp != nil && resp.Event != nil && resp.Event.HardwareID != "" {
		err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
			if err := s.hardware.SetQuantity(txCtx, resp.Event.HardwareID, resp.Event.Balance); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			return nil
		})
		if err != nil {
			s.logger.Warnw("failed to apply received balance locally", "error", err)
		} else {
			s.bus.Publish(pubsub.StoreEvent{Kind: string(sync.KindHardware), Count: 1})
		}
	}

	title, message = resp.Confirmation()
	return title, message, nil
}
