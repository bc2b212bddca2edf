package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/internal"
	"chat-sync/presence"
	"chat-sync/repositories"
	"chat-sync/rest"
	"chat-sync/runtime"
	"chat-sync/runtime/workers"
	"chat-sync/transport"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the client lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the session and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Credential & Collaborators
	credential, err := auth.NewCredential(config.AccessToken)
	if err != nil {
		return fmt.Errorf("credential error: %w", err)
	}
	restClient := rest.NewClient(log, config.RestURL, credential)
	rosterCache := repositories.NewRosterRepository(db, log)

	// 4. Session Wiring
	registry := runtime.NewRegistry(log)
	bus := runtime.NewBus(log)
	dialer := transport.NewWebsocketDialer(log, config.GatewayURL)
	conns := runtime.NewConnectionManager(log, dialer, credential, registry, bus).
		WithRetryPolicy(config.RetryInterval, config.MaxRetryAttempts)
	reconciler := presence.NewReconciler(log, rosterCache, bus)
	local := domain.ParticipantRecord{
		MemberID: config.MemberID,
		Nickname: config.Nickname,
		Online:   true,
	}
	controller := runtime.NewController(log, conns, registry, reconciler,
		restClient, restClient, bus, local, config.HistoryPageSize)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Connect & Attach
	if err = conns.Connect(ctx); err != nil {
		return fmt.Errorf("session failed to start: %w", err)
	}
	if err = controller.Attach(); err != nil {
		return fmt.Errorf("standing subscriptions failed: %w", err)
	}
	if err = controller.RefreshRooms(ctx); err != nil {
		log.Warn("Initial room list fetch failed", "err", err)
	}

	// 7. Background Workers under Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval).Add(
		workers.NewKeepaliveWorker(log, controller, config.KeepaliveInterval),
		workers.NewListRefreshWorker(log, bus, controller, config.ListDebounce),
	)
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 8. Optional Debug Server
	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
			return map[string]any{
				"Status": conns.Status().String(),
				"Rooms":  len(controller.MyRooms()),
				"Time":   time.Now().Format(time.RFC822),
			}
		})
		log.Info("Debug server started", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
	}

	renderRooms(controller.PublicRooms())

	// 9. Session Events until Shutdown
	offClosed := bus.On(contract.TopicRoomClosed, func(payload any) {
		log.Warn("Current room was deleted by its creator", "room", payload)
	})
	defer offClosed()
	offTerminal := bus.On(contract.TopicConnectionTerminal, func(any) {
		log.Error("Connection lost and retries exhausted")
		stop()
	})
	defer offTerminal()
	offAuth := bus.On(contract.TopicAuthExpired, func(any) {
		log.Error("Session expired, please sign in again")
		stop()
	})
	defer offAuth()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	// 10. Final Cleanup
	conns.Disconnect()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
