package e2e

import (
	"context"
	"testing"
	"time"

	"chat-sync/domain"
	"chat-sync/rest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testRoomChatSuite struct {
	BaseSuite
}

func TestRoomChatSuite(t *testing.T) {
	suite.Run(t, &testRoomChatSuite{})
}

func (s *testRoomChatSuite) TestFullRoomChatFlow() {
	ctx := context.Background()
	roomName := "e2e-" + uuid.NewString()[:8]
	var room domain.RoomSummary

	s.Run("Step 0: Connect the session", func() {
		s.Step(s.T(), "Connecting")
		s.Require().NoError(s.Conns.Connect(ctx))
		s.Require().NoError(s.Controller.Attach())
	})

	s.Run("Step 1: Create a room over REST", func() {
		s.Step(s.T(), "Creating room "+roomName)
		var err error
		room, err = s.Rest.CreateRoom(ctx, rest.CreateRoomRequest{
			Name:            roomName,
			MaxParticipants: 10,
			Visibility:      domain.Public,
		})
		s.Require().NoError(err)
		s.Require().NotZero(room.ID)
	})

	s.Run("Step 2: Join and see ourselves in the roster", func() {
		s.Step(s.T(), "Joining")
		window, err := s.Controller.Join(ctx, room.ID)
		s.Require().NoError(err)
		s.Require().NotNil(window)
		s.Require().Equal(domain.Member, s.Controller.State(room.ID))
	})

	s.Run("Step 3: Send a message and receive the echo", func() {
		s.Step(s.T(), "Sending")
		content := "hello from " + s.Config.Nickname
		s.Require().NoError(s.Controller.SendMessage(room.ID, content))

		window, ok := s.Controller.Window(room.ID)
		s.Require().True(ok)
		s.Require().Eventually(func() bool {
			for _, msg := range window.Messages() {
				if msg.Content == content && msg.Status == domain.Confirmed {
					return true
				}
			}
			return false
		}, 10*time.Second, 200*time.Millisecond)
	})

	s.Run("Step 4: Leave and delete the room", func() {
		s.Step(s.T(), "Cleaning up")
		s.Controller.Leave(room.ID)
		s.Require().Equal(domain.NotMember, s.Controller.State(room.ID))
		s.Require().NoError(s.Rest.DeleteRoom(ctx, room.ID))
	})

	s.Conns.Disconnect()
}
