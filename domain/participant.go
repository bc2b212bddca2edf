// Package domain contains core concepts of the sync client.
// This file defines Participant entities and the Roster invariants.
package domain

import "time"

// Role is the participant's role inside a room.
type Role string

const (
	RoleCreator Role = "CREATOR"
	RoleAdmin   Role = "ADMIN"
	RoleMember  Role = "MEMBER"
)

// ParticipantRecord is one member of a room roster.
// MemberID may be empty for records built from a bare nickname delta.
type ParticipantRecord struct {
	MemberID string    `json:"memberId,omitempty"`
	Nickname string    `json:"nickname"`
	Online   bool      `json:"online"`
	JoinedAt time.Time `json:"joinedAt,omitempty"`
	Role     Role      `json:"role,omitempty"`
}

// Key is the identity key the roster deduplicates on:
// the member id when known, the nickname otherwise.
func (p ParticipantRecord) Key() string {
	if p.MemberID != "" {
		return p.MemberID
	}
	return p.Nickname
}

// Roster is the canonical, deduplicated set of current room participants.
// Records keep insertion order; uniqueness by identity key is an invariant
// every mutation preserves.
type Roster struct {
	records []ParticipantRecord
}

func NewRoster(records ...ParticipantRecord) Roster {
	r := Roster{}
	for _, rec := range records {
		r.Upsert(rec)
	}
	return r
}

// Upsert inserts the record, or replaces the existing record sharing its
// identity key. Returns true when a new record was added.
func (r *Roster) Upsert(rec ParticipantRecord) bool {
	for i, existing := range r.records {
		if existing.Key() == rec.Key() {
			r.records[i] = rec
			return false
		}
	}
	r.records = append(r.records, rec)
	return true
}

// Add inserts the record only if its identity key is absent.
func (r *Roster) Add(rec ParticipantRecord) bool {
	if _, ok := r.Get(rec.Key()); ok {
		return false
	}
	r.records = append(r.records, rec)
	return true
}

// Remove drops the record matching the identity key. Safe no-op when absent.
func (r *Roster) Remove(key string) bool {
	for i, existing := range r.records {
		if existing.Key() == key {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveByNickname drops the record matching the nickname; leave events
// may carry a nickname for a record that was added without a member id.
func (r *Roster) RemoveByNickname(nickname string) bool {
	for i, existing := range r.records {
		if existing.Nickname == nickname {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Roster) Get(key string) (ParticipantRecord, bool) {
	for _, existing := range r.records {
		if existing.Key() == key {
			return existing, true
		}
	}
	return ParticipantRecord{}, false
}

// GetByNickname matches on nickname regardless of the identity key.
// Online deltas carry nicknames only, so merges need this lookup.
func (r *Roster) GetByNickname(nickname string) (ParticipantRecord, bool) {
	for _, existing := range r.records {
		if existing.Nickname == nickname {
			return existing, true
		}
	}
	return ParticipantRecord{}, false
}

// MarkOnline flips the online flag of the record matching the nickname.
func (r *Roster) MarkOnline(nickname string) bool {
	for i, existing := range r.records {
		if existing.Nickname == nickname {
			r.records[i].Online = true
			return true
		}
	}
	return false
}

func (r *Roster) Size() int { return len(r.records) }

// Records returns a copy; callers never mutate the roster through it.
func (r *Roster) Records() []ParticipantRecord {
	out := make([]ParticipantRecord, len(r.records))
	copy(out, r.records)
	return out
}
