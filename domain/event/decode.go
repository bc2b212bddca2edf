package event

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Notification kind names as the broker spells them.
const (
	kindUserListUpdate       = "USER_LIST_UPDATE"
	kindUserJoined           = "USER_JOINED"
	kindUserLeft             = "USER_LEFT"
	kindParticipantList      = "PARTICIPANT_LIST_UPDATE"
	kindRoomInfoUpdate       = "ROOM_INFO_UPDATE"
	kindRoomParticipantCount = "ROOM_PARTICIPANT_COUNT_UPDATE"
	kindRoomCreated          = "ROOM_CREATED"
	kindRoomDeleted          = "ROOM_DELETED"
	kindParticipantsUpdated  = "PARTICIPANTS_UPDATED"
	kindForcedLogout         = "FORCED_LOGOUT"
)

// envelope is the common wire shape of a notification. The same logical
// event arrives under several field spellings; keep every alias here and
// nowhere else.
type envelope struct {
	Type         string            `json:"type"`
	RoomID       domain.RoomID     `json:"roomId"`
	MemberID     string            `json:"memberId"`
	Nickname     string            `json:"nickname"`
	Participants []participantWire `json:"participants"`
	OnlineUsers  []string          `json:"onlineUsers"`
	Count        *int              `json:"participantCount"`
	Room         *roomWire         `json:"room"`
	Reason       string            `json:"reason"`
}

type participantWire struct {
	MemberID string `json:"memberId"`
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
	JoinedAt int64  `json:"joinedAt"` // unix millis
	Role     string `json:"role"`
}

type roomWire struct {
	ID                  domain.RoomID `json:"roomId"`
	Name                string        `json:"name"`
	MaxParticipants     int           `json:"maxParticipants"`
	CurrentParticipants int           `json:"currentParticipants"`
	CreatorNickname     string        `json:"creatorNickname"`
	Visibility          string        `json:"visibility"`
	Status              string        `json:"status"`
}

func (p participantWire) toRecord() domain.ParticipantRecord {
	rec := domain.ParticipantRecord{
		MemberID: p.MemberID,
		Nickname: p.Nickname,
		Online:   p.Online,
		Role:     domain.Role(p.Role),
	}
	if p.JoinedAt > 0 {
		rec.JoinedAt = time.UnixMilli(p.JoinedAt).UTC()
	}
	return rec
}

func (r roomWire) toSummary() domain.RoomSummary {
	return domain.RoomSummary{
		ID:                  r.ID,
		Name:                r.Name,
		MaxParticipants:     r.MaxParticipants,
		CurrentParticipants: r.CurrentParticipants,
		CreatorNickname:     r.CreatorNickname,
		Visibility:          domain.Visibility(r.Visibility),
		Status:              r.Status,
	}
}

// Decode classifies one raw notification payload. Unrecognized kinds come
// back as Unknown, not as an error; a payload that fails to parse at all is
// ErrMalformedPayload.
func Decode(room domain.RoomID, payload []byte) (Notification, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	if env.RoomID != 0 {
		room = env.RoomID
	}

	records := func() []domain.ParticipantRecord {
		return lo.Map(env.Participants, func(p participantWire, _ int) domain.ParticipantRecord {
			return p.toRecord()
		})
	}

	switch env.Type {
	case kindUserListUpdate:
		return UserListUpdate{Room: room, Participants: records(), OnlineUsers: env.OnlineUsers}, nil
	case kindParticipantList:
		return ParticipantListUpdate{Room: room, Participants: records()}, nil
	case kindUserJoined:
		return UserJoined{Room: room, MemberID: env.MemberID, Nickname: env.Nickname}, nil
	case kindUserLeft:
		return UserLeft{Room: room, MemberID: env.MemberID, Nickname: env.Nickname}, nil
	case kindRoomInfoUpdate:
		if env.Room == nil {
			return nil, fmt.Errorf("%w: %s without room body", errors.ErrMalformedPayload, env.Type)
		}
		return RoomInfoUpdate{Room: env.Room.ID, Summary: env.Room.toSummary()}, nil
	case kindRoomParticipantCount:
		if env.Count == nil {
			return nil, fmt.Errorf("%w: %s without count", errors.ErrMalformedPayload, env.Type)
		}
		return RoomParticipantCountUpdate{Room: room, Count: *env.Count}, nil
	case kindParticipantsUpdated:
		// Some broker versions send the roster length, others the full list.
		if env.Count != nil {
			return ParticipantsUpdated{Room: room, Count: *env.Count}, nil
		}
		return ParticipantsUpdated{Room: room, Count: len(env.Participants)}, nil
	case kindRoomCreated:
		if env.Room == nil {
			return nil, fmt.Errorf("%w: %s without room body", errors.ErrMalformedPayload, env.Type)
		}
		return RoomCreated{Summary: env.Room.toSummary()}, nil
	case kindRoomDeleted:
		return RoomDeleted{Room: room}, nil
	case kindForcedLogout:
		return ForcedLogout{Reason: env.Reason}, nil
	default:
		return Unknown{Room: room, Kind: env.Type, Raw: payload}, nil
	}
}

// DecodeMessage parses one inbound chat message frame.
func DecodeMessage(room domain.RoomID, payload []byte) (domain.Message, error) {
	var wire struct {
		ID             string `json:"messageId"`
		SenderID       string `json:"senderId"`
		SenderNickname string `json:"senderNickname"`
		Content        string `json:"content"`
		Kind           string `json:"kind"`
		CreatedAt      int64  `json:"createdAt"` // unix millis
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	msg := domain.Message{
		Room:           room,
		SenderID:       wire.SenderID,
		SenderNickname: wire.SenderNickname,
		Content:        wire.Content,
		Kind:           domain.MessageKind(wire.Kind),
		CreatedAt:      time.UnixMilli(wire.CreatedAt).UTC(),
		Status:         domain.Confirmed,
	}
	if msg.Kind == "" {
		msg.Kind = domain.KindChat
	}
	if wire.ID != "" {
		id, err := uuid.Parse(wire.ID)
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: message id: %v", errors.ErrMalformedPayload, err)
		}
		msg.ID = id
	}
	return msg, nil
}
