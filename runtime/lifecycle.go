package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/presence"
	"chat-sync/projection"

	"github.com/samber/lo"
)

// Controller drives per-room membership: join and keepalive intents,
// explicit leaves, the room-deleted cascade, and the re-join after a
// reconnect. It also maintains the public and my-rooms directory views.
type Controller struct {
	mu         sync.Mutex
	log        *slog.Logger
	conns      *ConnectionManager
	registry   *Registry
	reconciler *presence.Reconciler
	history    contract.HistoryClient
	directory  contract.RoomDirectory
	bus        contract.Bus
	local      domain.ParticipantRecord
	pageSize   int

	states      map[domain.RoomID]domain.MembershipState
	windows     map[domain.RoomID]*projection.Window
	publicRooms map[domain.RoomID]domain.RoomSummary
	myRooms     map[domain.RoomID]domain.RoomSummary
}

func NewController(log *slog.Logger, conns *ConnectionManager, registry *Registry,
	reconciler *presence.Reconciler, history contract.HistoryClient,
	directory contract.RoomDirectory, bus contract.Bus,
	local domain.ParticipantRecord, pageSize int) *Controller {
	c := &Controller{
		log:         log,
		conns:       conns,
		registry:    registry,
		reconciler:  reconciler,
		history:     history,
		directory:   directory,
		bus:         bus,
		local:       local,
		pageSize:    pageSize,
		states:      make(map[domain.RoomID]domain.MembershipState),
		windows:     make(map[domain.RoomID]*projection.Window),
		publicRooms: make(map[domain.RoomID]domain.RoomSummary),
		myRooms:     make(map[domain.RoomID]domain.RoomSummary),
	}
	conns.OnRejoin(c.resync)
	// The roster is authoritative for occupancy: keep the directory views
	// in step with every count the reconciler publishes.
	bus.On(contract.TopicParticipantCount, func(payload any) {
		if change, ok := payload.(contract.ParticipantCountChange); ok {
			c.updateCount(change.Room, change.Count)
		}
	})
	return c
}

// Attach subscribes the standing channels: the public directory topic and
// the member's point-to-point queue. Called once connected, and again by
// the re-join path after a reconnect.
func (c *Controller) Attach() error {
	if err := c.registry.Subscribe(domain.RoomListChannel, c.handleDirectoryFrame); err != nil {
		return err
	}
	if err := c.registry.Subscribe(domain.AdminStatusChannel, c.handleDirectoryFrame); err != nil {
		return err
	}
	if c.local.MemberID != "" {
		if err := c.registry.Subscribe(domain.MemberQueueChannel(c.local.MemberID), c.handleQueueFrame); err != nil {
			return err
		}
	}
	return nil
}

// Join makes the local user a member of the room: channels first, an
// optimistic roster seed, then the join intent and the newest history page.
func (c *Controller) Join(ctx context.Context, room domain.RoomID) (*projection.Window, error) {
	c.mu.Lock()
	state := c.states[room]
	if state == domain.Member {
		window := c.windows[room]
		c.mu.Unlock()
		c.conns.SetActiveRoom(room)
		return window, nil
	}
	if state == domain.Joining {
		// The window is not built yet; handing out nil with a nil error
		// would invite a deref on the caller side.
		c.mu.Unlock()
		return nil, fmt.Errorf("room %d: %w", room, errors.ErrJoinInProgress)
	}
	c.states[room] = domain.Joining
	c.mu.Unlock()

	if err := c.subscribeRoomChannels(room); err != nil {
		c.setState(room, domain.NotMember)
		return nil, err
	}

	// Seed the roster before any acknowledgment so the view never opens on
	// an empty participant list.
	c.reconciler.Enter(room, c.local)

	if err := c.conns.Send(domain.RoomJoinPath(room), c.joinIntent(room, false)); err != nil {
		c.setState(room, domain.NotMember)
		c.registry.Unsubscribe(domain.RoomMessagesChannel(room))
		c.registry.Unsubscribe(domain.RoomNotificationsChannel(room))
		// The optimistic seed must not outlive a join that never happened.
		c.reconciler.Leave(room, true)
		return nil, fmt.Errorf("join room %d: %w", room, err)
	}

	window := projection.NewWindow(c.log, c.history, room, c.pageSize)
	if err := window.Load(ctx); err != nil {
		// Membership holds even when history is late; the window stays
		// usable for realtime traffic.
		c.log.Warn("Initial history load failed", "room", room, "err", err)
	}

	c.mu.Lock()
	c.states[room] = domain.Member
	c.windows[room] = window
	if _, tracked := c.myRooms[room]; !tracked {
		c.myRooms[room] = c.summaryFor(room)
	}
	c.mu.Unlock()

	c.conns.SetActiveRoom(room)
	return window, nil
}

// Keepalive re-sends the join intent in its keepalive variant for a room
// the user is a passive member of. It never touches the roster, the
// membership state, or any UI-facing event.
func (c *Controller) Keepalive(room domain.RoomID) error {
	return c.conns.Send(domain.RoomJoinPath(room), c.joinIntent(room, true))
}

// SendMessage publishes one chat message. A failed publish falls back to an
// unconfirmed local insertion so the sender still sees their message.
func (c *Controller) SendMessage(room domain.RoomID, content string) error {
	intent := domain.SendIntent{
		Room:      room,
		MemberID:  c.local.MemberID,
		Nickname:  c.local.Nickname,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.conns.Send(domain.RoomSendPath(room), intent); err != nil {
		c.mu.Lock()
		window := c.windows[room]
		c.mu.Unlock()
		if window != nil {
			window.AppendUnconfirmed(c.local.MemberID, c.local.Nickname, content)
		}
		return fmt.Errorf("room %d: %w: %v", room, errors.ErrSendFailure, err)
	}
	return nil
}

// Leave is the explicit, user-initiated departure: the only path that sends
// a real-leave intent, tears the room channels down, and clears the cached
// roster. Incidental disconnects and unmounts go through Detach instead.
func (c *Controller) Leave(room domain.RoomID) {
	c.setState(room, domain.Leaving)

	if err := c.conns.Send(domain.RoomLeavePath(room), domain.LeaveIntent{
		Room:     room,
		MemberID: c.local.MemberID,
		Nickname: c.local.Nickname,
	}); err != nil {
		c.log.Warn("Leave intent failed, tearing down anyway", "room", room, "err", err)
	}

	c.registry.Unsubscribe(domain.RoomMessagesChannel(room))
	c.registry.Unsubscribe(domain.RoomNotificationsChannel(room))
	c.reconciler.Leave(room, true)

	c.mu.Lock()
	delete(c.windows, room)
	delete(c.myRooms, room)
	c.states[room] = domain.NotMember
	c.mu.Unlock()

	c.conns.ClearActiveRoom(room)
	c.bus.Emit(contract.TopicRoomListChanged, room)
}

// Detach releases the open view without leaving: membership, channel
// subscriptions, and the cached roster all survive for the next mount.
func (c *Controller) Detach(room domain.RoomID) {
	c.reconciler.Leave(room, false)
	c.mu.Lock()
	delete(c.windows, room)
	c.mu.Unlock()
	c.conns.ClearActiveRoom(room)
}

// RefreshRooms replaces the public directory from the REST collaborator.
func (c *Controller) RefreshRooms(ctx context.Context) error {
	rooms, err := c.directory.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("refresh rooms: %w", err)
	}
	c.mu.Lock()
	c.publicRooms = make(map[domain.RoomID]domain.RoomSummary, len(rooms))
	for _, summary := range rooms {
		c.publicRooms[summary.ID] = summary
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) State(room domain.RoomID) domain.MembershipState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[room]
}

func (c *Controller) Window(room domain.RoomID) (*projection.Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	window, ok := c.windows[room]
	return window, ok
}

// PublicRooms returns the directory view ordered by room id.
func (c *Controller) PublicRooms() []domain.RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedSummaries(c.publicRooms)
}

// MyRooms returns the rooms the user is a (possibly passive) member of.
func (c *Controller) MyRooms() []domain.RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedSummaries(c.myRooms)
}

// MyRoomIDs feeds the keepalive worker.
func (c *Controller) MyRoomIDs() []domain.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := lo.Keys(c.myRooms)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TrackRoom records background membership (e.g. loaded from "my rooms").
func (c *Controller) TrackRoom(summary domain.RoomSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.myRooms[summary.ID] = summary
}

func (c *Controller) subscribeRoomChannels(room domain.RoomID) error {
	err := c.registry.Subscribe(domain.RoomMessagesChannel(room), func(payload []byte) error {
		msg, err := event.DecodeMessage(room, payload)
		if err != nil {
			return err
		}
		c.mu.Lock()
		window := c.windows[room]
		c.mu.Unlock()
		if window != nil {
			window.Append(msg)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("join room %d: %w", room, err)
	}

	err = c.registry.Subscribe(domain.RoomNotificationsChannel(room), func(payload []byte) error {
		n, err := event.Decode(room, payload)
		if err != nil {
			return err
		}
		c.handleNotification(n)
		return nil
	})
	if err != nil {
		return fmt.Errorf("join room %d: %w", room, err)
	}
	return nil
}

func (c *Controller) handleDirectoryFrame(payload []byte) error {
	n, err := event.Decode(0, payload)
	if err != nil {
		return err
	}
	c.handleNotification(n)
	return nil
}

func (c *Controller) handleQueueFrame(payload []byte) error {
	n, err := event.Decode(0, payload)
	if err != nil {
		return err
	}
	if logout, ok := n.(event.ForcedLogout); ok {
		c.log.Warn("Forced logout received", "reason", logout.Reason)
		c.bus.Emit(contract.TopicAuthExpired, errors.ErrAuthExpired)
		c.conns.Disconnect()
		return nil
	}
	c.handleNotification(n)
	return nil
}

// handleNotification routes one classified notification. Presence shapes go
// to the reconciler; directory and lifecycle shapes are handled here.
func (c *Controller) handleNotification(n event.Notification) {
	switch evt := n.(type) {
	case event.UserListUpdate, event.ParticipantListUpdate, event.UserJoined, event.UserLeft:
		c.reconciler.Apply(n)
	case event.RoomParticipantCountUpdate:
		c.bus.Emit(contract.TopicParticipantCount, contract.ParticipantCountChange{Room: evt.Room, Count: evt.Count})
	case event.ParticipantsUpdated:
		c.bus.Emit(contract.TopicParticipantCount, contract.ParticipantCountChange{Room: evt.Room, Count: evt.Count})
	case event.RoomInfoUpdate:
		// Creator transfer included: the server is the source of truth,
		// the client only reflects the reported summary.
		c.mu.Lock()
		if _, ok := c.publicRooms[evt.Room]; ok {
			c.publicRooms[evt.Room] = evt.Summary
		}
		if _, ok := c.myRooms[evt.Room]; ok {
			c.myRooms[evt.Room] = evt.Summary
		}
		c.mu.Unlock()
		c.bus.Emit(contract.TopicRoomListChanged, evt.Room)
	case event.RoomCreated:
		c.mu.Lock()
		c.publicRooms[evt.Summary.ID] = evt.Summary
		c.mu.Unlock()
		c.bus.Emit(contract.TopicRoomListChanged, evt.Summary.ID)
	case event.RoomDeleted:
		c.cascadeDeletion(evt.Room)
	case event.Unknown:
		c.log.Warn("Ignoring unknown notification kind", "room", evt.Room, "kind", evt.Kind)
	default:
		c.log.Debug("Unrouted notification", "room", n.RoomID())
	}
}

// cascadeDeletion removes every trace of a deleted room and, when it is the
// one currently open, raises the terminal notice for the UI layer.
func (c *Controller) cascadeDeletion(room domain.RoomID) {
	c.registry.Unsubscribe(domain.RoomMessagesChannel(room))
	c.registry.Unsubscribe(domain.RoomNotificationsChannel(room))
	c.reconciler.Drop(room)

	c.mu.Lock()
	delete(c.publicRooms, room)
	delete(c.myRooms, room)
	delete(c.windows, room)
	c.states[room] = domain.NotMember
	c.mu.Unlock()

	wasOpen := c.conns.ActiveRoom() == room
	c.conns.ClearActiveRoom(room)
	c.bus.Emit(contract.TopicRoomListChanged, room)
	if wasOpen {
		c.bus.Emit(contract.TopicRoomClosed, room)
	}
}

// resync restores subscriptions after a reconnect: standing channels, the
// active room's channels, and a silent keepalive join so membership carries
// over without a fresh entrance broadcast.
func (c *Controller) resync(room domain.RoomID) {
	if err := c.Attach(); err != nil {
		c.log.Warn("Re-attaching standing channels failed", "err", err)
	}
	if err := c.subscribeRoomChannels(room); err != nil {
		c.log.Warn("Re-subscribing room channels failed", "room", room, "err", err)
		return
	}
	if err := c.Keepalive(room); err != nil {
		c.log.Warn("Silent re-join failed", "room", room, "err", err)
	}
	c.setState(room, domain.Member)
	c.log.Info("Room re-joined after reconnect", "room", room)
}

func (c *Controller) updateCount(room domain.RoomID, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if summary, ok := c.publicRooms[room]; ok {
		summary.CurrentParticipants = count
		c.publicRooms[room] = summary
	}
	if summary, ok := c.myRooms[room]; ok {
		summary.CurrentParticipants = count
		c.myRooms[room] = summary
	}
}

func (c *Controller) setState(room domain.RoomID, state domain.MembershipState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[room] = state
}

func (c *Controller) summaryFor(room domain.RoomID) domain.RoomSummary {
	if summary, ok := c.publicRooms[room]; ok {
		return summary
	}
	return domain.RoomSummary{ID: room}
}

func (c *Controller) joinIntent(room domain.RoomID, keepalive bool) domain.JoinIntent {
	return domain.JoinIntent{
		Room:      room,
		MemberID:  c.local.MemberID,
		Nickname:  c.local.Nickname,
		Keepalive: keepalive,
	}
}

func sortedSummaries(m map[domain.RoomID]domain.RoomSummary) []domain.RoomSummary {
	summaries := lo.Values(m)
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}
