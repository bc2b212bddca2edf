package e2e

import (
	"fmt"
	"testing"

	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/presence"
	"chat-sync/repositories"
	"chat-sync/rest"
	"chat-sync/runtime"
	"chat-sync/transport"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseSuite wires a complete client stack against a live gateway. Every
// scenario skips itself when E2E_GATEWAY_URL is unset.
type BaseSuite struct {
	suite.Suite
	Config Config

	Rest       *rest.Client
	Conns      *runtime.ConnectionManager
	Controller *runtime.Controller
	Bus        *runtime.Bus
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GatewayURL == "" {
		s.T().Skip("E2E_GATEWAY_URL not set, skipping live scenarios")
	}

	log := logs.GetLoggerFromString("debug")

	credential, err := auth.NewCredential(s.Config.AccessToken)
	s.Require().NoError(err)

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.WARNING))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	registry := runtime.NewRegistry(log)
	s.Bus = runtime.NewBus(log)
	dialer := transport.NewWebsocketDialer(log, s.Config.GatewayURL)
	s.Conns = runtime.NewConnectionManager(log, dialer, credential, registry, s.Bus)
	reconciler := presence.NewReconciler(log, repositories.NewRosterRepository(db, log), s.Bus)
	s.Rest = rest.NewClient(log, s.Config.RestURL, credential)
	s.Controller = runtime.NewController(log, s.Conns, registry, reconciler,
		s.Rest, s.Rest, s.Bus, domain.ParticipantRecord{
			MemberID: s.Config.MemberID,
			Nickname: s.Config.Nickname,
			Online:   true,
		}, 20)
}

// Step prints a colorized header so scenario phases stand out in logs.
func (s *BaseSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}
