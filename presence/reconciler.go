// Package presence folds the broker's heterogeneous participant-update
// shapes into one canonical roster per room.
//
// Removal semantics are deliberately asymmetric: a full participant list
// replaces the roster (stale entries go away), while an online-nickname
// delta is a refresh that only marks or adds, never removes.
package presence

import (
	"log/slog"
	"sync"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
)

// Reconciler owns the live rosters and keeps the per-room cache in step
// with every mutation.
type Reconciler struct {
	mu      sync.Mutex
	log     *slog.Logger
	cache   contract.RosterCache
	bus     contract.Bus
	rosters map[domain.RoomID]*domain.Roster
}

func NewReconciler(log *slog.Logger, cache contract.RosterCache, bus contract.Bus) *Reconciler {
	return &Reconciler{
		log:     log,
		cache:   cache,
		bus:     bus,
		rosters: make(map[domain.RoomID]*domain.Roster),
	}
}

// Enter seeds the live roster when a room view opens: from the cache when
// one exists, otherwise with the local participant alone so the view never
// renders an empty roster while the authoritative update is in flight.
func (r *Reconciler) Enter(room domain.RoomID, local domain.ParticipantRecord) domain.Roster {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rosters[room]; ok {
		return copyRoster(existing)
	}

	cached, found, err := r.cache.Load(room)
	if err != nil {
		r.log.Warn("Roster cache read failed, seeding with local user", "room", room, "err", err)
		found = false
	}
	seed := cached
	if !found {
		seed = domain.NewRoster(local)
	}
	r.rosters[room] = &seed
	r.persistLocked(room)
	return copyRoster(&seed)
}

// Apply merges one inbound notification into the room's roster. Reapplying
// the same notification is a no-op with respect to roster content.
func (r *Reconciler) Apply(n event.Notification) {
	r.mu.Lock()
	room := n.RoomID()
	roster, ok := r.rosters[room]
	if !ok {
		fresh := domain.NewRoster()
		roster = &fresh
		r.rosters[room] = roster
	}

	mutated := false
	switch evt := n.(type) {
	case event.UserListUpdate:
		if len(evt.Participants) > 0 {
			// Detailed records are the base; the online delta is unioned in
			// by nickname, detailed fields win on a match.
			base := domain.NewRoster(evt.Participants...)
			for _, nickname := range evt.OnlineUsers {
				if _, found := base.GetByNickname(nickname); !found {
					base.Add(domain.ParticipantRecord{Nickname: nickname, Online: true})
				}
			}
			*roster = base
		} else {
			// Delta-only refresh: mark matches online, add the rest,
			// remove nobody.
			for _, nickname := range evt.OnlineUsers {
				if !roster.MarkOnline(nickname) {
					roster.Add(domain.ParticipantRecord{Nickname: nickname, Online: true})
				}
			}
		}
		mutated = true
	case event.ParticipantListUpdate:
		*roster = domain.NewRoster(evt.Participants...)
		mutated = true
	case event.UserJoined:
		mutated = roster.Add(domain.ParticipantRecord{
			MemberID: evt.MemberID,
			Nickname: evt.Nickname,
			Online:   true,
		})
	case event.UserLeft:
		if evt.MemberID != "" && roster.Remove(evt.MemberID) {
			mutated = true
		} else {
			mutated = roster.RemoveByNickname(evt.Nickname)
		}
	case event.Unknown:
		r.log.Warn("Ignoring unknown notification kind", "room", room, "kind", evt.Kind)
	default:
		// Lifecycle notifications are not presence; the controller routes
		// them before they reach this point.
		r.log.Debug("Notification is not a presence event", "room", room)
	}

	size := roster.Size()
	if mutated {
		r.persistLocked(room)
	}
	r.mu.Unlock()

	if mutated {
		r.bus.Emit(contract.TopicParticipantCount, contract.ParticipantCountChange{Room: room, Count: size})
	}
}

// Roster returns a copy of the live roster for the room.
func (r *Reconciler) Roster(room domain.RoomID) (domain.Roster, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roster, ok := r.rosters[room]
	if !ok {
		return domain.Roster{}, false
	}
	return copyRoster(roster), true
}

// Leave releases the live roster. An explicit leave also clears the cache;
// a passive detach persists it so the next mount can seed from it.
func (r *Reconciler) Leave(room domain.RoomID, explicit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if explicit {
		if err := r.cache.Clear(room); err != nil {
			r.log.Warn("Roster cache clear failed", "room", room, "err", err)
		}
	} else if _, ok := r.rosters[room]; ok {
		r.persistLocked(room)
	}
	delete(r.rosters, room)
}

// Drop discards everything known about the room, live and cached.
// Used by the room-deleted cascade.
func (r *Reconciler) Drop(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rosters, room)
	if err := r.cache.Clear(room); err != nil {
		r.log.Warn("Roster cache clear failed", "room", room, "err", err)
	}
}

func (r *Reconciler) persistLocked(room domain.RoomID) {
	roster, ok := r.rosters[room]
	if !ok {
		return
	}
	if err := r.cache.Save(room, *roster); err != nil {
		r.log.Warn("Roster cache write failed", "room", room, "err", err)
	}
}

func copyRoster(r *domain.Roster) domain.Roster {
	return domain.NewRoster(r.Records()...)
}
