//go:build wireinject
// +build wireinject

package di

import (
	"TickPulse/internal/domain/repository"
	"TickPulse/internal/service/telegram"
	"TickPulse/pkg/config"
	"TickPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegisterer,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideTelegramClient,
		wire.Bind(new(repository.Notifier), new(*telegram.Client)),
		wire.Bind(new(repository.CommandSource), new(*telegram.Client)),
		ProvideVenueDialer,
		ProvideJournalBackend,

		// Repositories
		ProvideControlStore,
		ProvideJournalPipeline,

		// Use cases
		ProvideControlState,
		ProvideAnnouncer,
		ProvideSettlementTracker,
		ProvideOrderSubmitter,
		ProvideStreamSessions,
		ProvideCommandRelay,
		ProvideAgent,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
