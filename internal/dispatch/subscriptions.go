package dispatch

import "sync"

// Subscription represents one user's current interest. Regions and
// AlertTypes are stored canonicalized, in first-seen order.
type Subscription struct {
	UserID     string
	Regions    []string
	AlertTypes []string
}

// SubscriptionManager stores per-user interest and translates it into
// room memberships on the connection registry.
//
// A single mutex serializes every mutation: racing subscribe and
// unsubscribe calls for the same user resolve to whichever arrives last
// at the lock, and a superseded operation's room joins are always undone
// before the superseding one applies.
//
// Subscription lifetime is independent of connection lifetime. A
// disconnect removes room membership (connection-scoped) but the stored
// record survives until an explicit unsubscribe.
type SubscriptionManager struct {
	mu       sync.Mutex
	registry *Registry
	subs     map[string]*Subscription
}

// NewSubscriptionManager initializes an empty subscription manager bound
// to the registry.
func NewSubscriptionManager(registry *Registry) *SubscriptionManager {
	return &SubscriptionManager{
		registry: registry,
		subs:     make(map[string]*Subscription),
	}
}

// Subscribe stores or replaces the subscription for userID, joins the
// connection to the room for every (region, alertType) pair plus the
// general room, and returns the effective regions and types. Empty
// regions or alert types mean "general alerts only".
func (m *SubscriptionManager) Subscribe(userID string, regions, alertTypes []string, h *Handle) ([]string, []string) {
	regions = canonicalSet(regions)
	alertTypes = canonicalSet(alertTypes)

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.subs[userID]; ok {
		m.leaveImpliedLocked(prev, h)
	}

	m.subs[userID] = &Subscription{
		UserID:     userID,
		Regions:    regions,
		AlertTypes: alertTypes,
	}

	for _, region := range regions {
		for _, alertType := range alertTypes {
			m.registry.JoinRoom(h, RoomName(region, alertType))
		}
	}
	m.registry.JoinRoom(h, GeneralRoom)

	return regions, alertTypes
}

// Unsubscribe leaves every room the stored subscription implies plus the
// general room, then deletes the record. No-op when no subscription
// exists for the user.
func (m *SubscriptionManager) Unsubscribe(userID string, h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[userID]
	if !ok {
		return
	}
	m.leaveImpliedLocked(sub, h)
	m.registry.LeaveRoom(h, GeneralRoom)
	delete(m.subs, userID)
}

// UpdateRegions applies the symmetric difference between the stored and
// new region sets: rooms for removed regions are left, rooms for added
// regions are joined, and unaffected rooms are untouched. Returns the
// effective region set. Without a stored subscription the regions are
// recorded with no alert types, so no rooms are joined.
func (m *SubscriptionManager) UpdateRegions(userID string, newRegions []string, h *Handle) []string {
	newRegions = canonicalSet(newRegions)

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[userID]
	if !ok {
		m.subs[userID] = &Subscription{UserID: userID, Regions: newRegions}
		return newRegions
	}

	current := make(map[string]struct{}, len(newRegions))
	for _, region := range newRegions {
		current[region] = struct{}{}
	}
	previous := make(map[string]struct{}, len(sub.Regions))
	for _, region := range sub.Regions {
		previous[region] = struct{}{}
	}

	for _, region := range sub.Regions {
		if _, keep := current[region]; keep {
			continue
		}
		for _, alertType := range sub.AlertTypes {
			m.registry.LeaveRoom(h, RoomName(region, alertType))
		}
	}
	for _, region := range newRegions {
		if _, had := previous[region]; had {
			continue
		}
		for _, alertType := range sub.AlertTypes {
			m.registry.JoinRoom(h, RoomName(region, alertType))
		}
	}

	sub.Regions = newRegions
	return newRegions
}

// Lookup returns a copy of the stored subscription for userID.
func (m *SubscriptionManager) Lookup(userID string) (Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[userID]
	if !ok {
		return Subscription{}, false
	}
	out := Subscription{
		UserID:     sub.UserID,
		Regions:    append([]string(nil), sub.Regions...),
		AlertTypes: append([]string(nil), sub.AlertTypes...),
	}
	return out, true
}

func (m *SubscriptionManager) leaveImpliedLocked(sub *Subscription, h *Handle) {
	for _, region := range sub.Regions {
		for _, alertType := range sub.AlertTypes {
			m.registry.LeaveRoom(h, RoomName(region, alertType))
		}
	}
}
