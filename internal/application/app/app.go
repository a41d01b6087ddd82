// Package app wires the application graph: config, logger, local store,
// keychain, auth session, API client, sync engine, and inventory service.
// CLI commands build an App instead of repeating the wiring.
package app

import (
	"fmt"

	"github.com/turnernet/tracksync/internal/application/inventory"
	"github.com/turnernet/tracksync/internal/application/sync"
	"github.com/turnernet/tracksync/internal/infrastructure/api"
	"github.com/turnernet/tracksync/internal/infrastructure/auth"
	"github.com/turnernet/tracksync/internal/infrastructure/config"
	"github.com/turnernet/tracksync/internal/infrastructure/database"
	"github.com/turnernet/tracksync/internal/infrastructure/keychain"
	"github.com/turnernet/tracksync/internal/infrastructure/persistence/mappers"
	"github.com/turnernet/tracksync/internal/infrastructure/pubsub"
	"github.com/turnernet/tracksync/internal/infrastructure/repository"
	"github.com/turnernet/tracksync/internal/shared/clock"
	"github.com/turnernet/tracksync/internal/shared/db"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// App holds the wired application graph.
type App struct {
	Config    *config.Config
	Logger    logger.Interface
	Keychain  keychain.Store
	Session   *auth.SessionController
	Client    *api.Client
	Bus       *pubsub.StoreBus
	Engine    *sync.Engine
	Inventory *inventory.Service

	Tickets  *repository.TicketRepository
	Clients  *repository.ClientRepository
	Hardware *repository.HardwareRepository
	Events   *repository.InventoryEventRepository
	Pending  *repository.PendingAdjustmentRepository
	Metadata *repository.SyncMetadataRepository
}

// New loads configuration and builds the full graph. The database is opened
// and migrated; call Close when done.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}
	gdb := database.Get()
	if err := database.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	store := keychain.NewKeyringStore(cfg.Keychain.Service)
	session := auth.NewSessionController(cfg.API.BaseURL, store, log)
	session.Bootstrap()

	client := api.NewClient(cfg.API.BaseURL, session, log, api.WithTimeout(cfg.API.Timeout))

	bus := pubsub.NewStoreBus(log)
	txManager := db.NewTransactionManager(gdb)
	mapper := mappers.NewEntityMapper(gdb)

	tickets := repository.NewTicketRepository(gdb, log)
	clients := repository.NewClientRepository(gdb, log)
	hardware := repository.NewHardwareRepository(gdb, log)
	events := repository.NewInventoryEventRepository(gdb, log)
	pending := repository.NewPendingAdjustmentRepository(gdb, log)
	metadata := repository.NewSyncMetadataRepository(gdb, log)

	clk := clock.Real()
	engine := sync.NewEngine(client, mapper, txManager, metadata, bus, clk, log, cfg.Sync.PageLimit)
	inv := inventory.NewService(client, txManager, mapper, hardware, events, pending, engine, bus, clk, log)

	return &App{
		Config:    cfg,
		Logger:    log,
		Keychain:  store,
		Session:   session,
		Client:    client,
		Bus:       bus,
		Engine:    engine,
		Inventory: inv,
		Tickets:   tickets,
		Clients:   clients,
		Hardware:  hardware,
		Events:    events,
		Pending:   pending,
		Metadata:  metadata,
	}, nil
}

// Close releases the local store.
func (a *App) Close() error {
	return database.Close()
}
