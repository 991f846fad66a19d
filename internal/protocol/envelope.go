package protocol

import "time"

// EventType enumerates high-level protocol intents.
type EventType string

const (
	EventSubscribeAlerts         EventType = "subscribe_alerts"
	EventSubscriptionConfirmed   EventType = "subscription_confirmed"
	EventUnsubscribeAlerts       EventType = "unsubscribe_alerts"
	EventUnsubscriptionConfirmed EventType = "unsubscription_confirmed"
	EventUpdateAlertRegions      EventType = "update_alert_regions"
	EventRegionsUpdated          EventType = "regions_updated"
	EventPublishAlert            EventType = "publish_alert"
	EventNewAlert                EventType = "new_alert"
	EventMessage                 EventType = "message"
	EventAck                     EventType = "ack"
)

// Envelope wraps every payload sent over the wire. Each event type carries
// a fixed payload schema; payloads are decoded at the boundary.
type Envelope struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AckPayload represents acknowledgement semantics.
type AckPayload struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// SubscribeRequest declares a user's interest profile.
type SubscribeRequest struct {
	UserID     string   `json:"userId"`
	Regions    []string `json:"regions"`
	AlertTypes []string `json:"alertTypes"`
}

// SubscriptionConfirmed echoes the effective interest back to the caller.
type SubscriptionConfirmed struct {
	Regions    []string `json:"regions"`
	AlertTypes []string `json:"alertTypes"`
}

// UnsubscribeRequest withdraws a user's interest profile.
type UnsubscribeRequest struct {
	UserID string `json:"userId"`
}

// UnsubscriptionConfirmed acknowledges a completed unsubscribe.
type UnsubscriptionConfirmed struct{}

// UpdateRegionsRequest replaces the region set of an existing subscription.
type UpdateRegionsRequest struct {
	UserID  string   `json:"userId"`
	Regions []string `json:"regions"`
}

// RegionsUpdated echoes the effective region set back to the caller.
type RegionsUpdated struct {
	Regions []string `json:"regions"`
}

// PublishAlertRequest carries a new alert into the creation workflow.
type PublishAlertRequest struct {
	Alert Alert `json:"alert"`
}

// ChatMessage is the generic welcome/echo channel payload.
type ChatMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

// Alert is the record broadcast to clients. Immutable once handed to the
// router; lifecycle is owned by the creation workflow.
type Alert struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Severity    string     `json:"severity"`
	Region      string     `json:"region"`
	IssuedAt    time.Time  `json:"issuedAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Actions     string     `json:"actions,omitempty"`
	Source      string     `json:"source,omitempty"`
	Contact     string     `json:"contact,omitempty"`
}

// Severity tags carried by alerts. The router treats them as opaque;
// clients use them for display emphasis.
const (
	SeverityLow      = "LOW"
	SeverityModerate = "MODERATE"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)
