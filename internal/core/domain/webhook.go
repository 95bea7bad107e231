package domain

// WebhookEventType enumerates the mini app lifecycle events delivered by
// Farcaster clients.
type WebhookEventType string

const (
	EventAppAdded              WebhookEventType = "miniapp_added"
	EventAppRemoved            WebhookEventType = "miniapp_removed"
	EventNotificationsEnabled  WebhookEventType = "notifications_enabled"
	EventNotificationsDisabled WebhookEventType = "notifications_disabled"
)

// legacyEventNames maps the frame-era event names onto their current ones.
var legacyEventNames = map[string]WebhookEventType{
	"frame_added":   EventAppAdded,
	"frame_removed": EventAppRemoved,
}

// ParseWebhookEventType accepts both current and frame-era event names.
func ParseWebhookEventType(s string) (WebhookEventType, bool) {
	if t, ok := legacyEventNames[s]; ok {
		return t, true
	}
	switch t := WebhookEventType(s); t {
	case EventAppAdded, EventAppRemoved, EventNotificationsEnabled, EventNotificationsDisabled:
		return t, true
	}
	return "", false
}

// WebhookEvent is a verified webhook delivery.
type WebhookEvent struct {
	FID          int64
	AppKey       string
	Type         WebhookEventType
	Notification *NotificationDetails
}

// Notification is a single push message.
type Notification struct {
	ID        string
	Title     string
	Body      string
	TargetURL string
}

// NotificationResult is the push provider's verdict for one token.
type NotificationResult string

const (
	NotificationSent         NotificationResult = "ok"
	NotificationInvalidToken NotificationResult = "invalid_token"
	NotificationRateLimited  NotificationResult = "rate_limited"
	NotificationFailed       NotificationResult = "error"
)
