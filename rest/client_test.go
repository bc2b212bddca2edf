package rest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/stretchr/testify/require"
)

type staticTokens struct{ token string }

func (s staticTokens) Token() (string, error) { return s.token, nil }

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(slog.Default(), server.URL, staticTokens{token: "bearer-token"})
}

func TestListRooms(t *testing.T) {
	req := require.New(t)
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/api/rooms", r.URL.Path)
		req.Equal("Bearer bearer-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"roomId":1,"name":"leg day","maxParticipants":50,"currentParticipants":3,"visibility":"PUBLIC"},
			{"roomId":2,"name":"cardio crew","maxParticipants":20,"currentParticipants":8,"visibility":"PUBLIC"}
		]`))
	})

	rooms, err := client.ListRooms(context.Background())

	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal(domain.RoomID(1), rooms[0].ID)
	req.Equal("cardio crew", rooms[1].Name)
}

func TestGetMessages_Skips_Malformed_Records(t *testing.T) {
	req := require.New(t)
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/api/rooms/4/messages", r.URL.Path)
		req.Equal("2", r.URL.Query().Get("page"))
		req.Equal("20", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"content":[
			{"messageId":"7c9e6679-7425-40de-944b-e07fc1f90ae7","senderNickname":"Alice","content":"hi","createdAt":1764600000000},
			{"messageId":"not-a-uuid","senderNickname":"Bob","content":"broken","createdAt":1764600001000}
		]}`))
	})

	messages, err := client.GetMessages(context.Background(), domain.RoomID(4), 2, 20)

	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("hi", messages[0].Content)
	req.Equal(domain.RoomID(4), messages[0].Room)
}

func TestCreateRoom_Rejects_Invalid_Request_Locally(t *testing.T) {
	req := require.New(t)
	calls := 0
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := client.CreateRoom(context.Background(), CreateRoomRequest{
		Name:            "",
		MaxParticipants: 1,
		Visibility:      "SECRET",
	})

	req.Error(err)
	req.Zero(calls)
}

func TestCreateRoom_Submits_Valid_Request(t *testing.T) {
	req := require.New(t)
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		req.Equal("application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"roomId":9,"name":"spin class","maxParticipants":30,"visibility":"PUBLIC"}`))
	})

	summary, err := client.CreateRoom(context.Background(), CreateRoomRequest{
		Name:            "spin class",
		MaxParticipants: 30,
		Visibility:      domain.Public,
	})

	req.NoError(err)
	req.Equal(domain.RoomID(9), summary.ID)
}

func TestDeleteRoom(t *testing.T) {
	req := require.New(t)
	var method, path string
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	req.NoError(client.DeleteRoom(context.Background(), domain.RoomID(9)))
	req.Equal(http.MethodDelete, method)
	req.Equal("/api/rooms/9", path)
}

func TestUnauthorized_Maps_To_Auth_Expiry(t *testing.T) {
	req := require.New(t)
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListRooms(context.Background())

	req.ErrorIs(err, errors.ErrAuthExpired)
}
