// Package signal carries the process-wide broadcasts the views react to:
// an "events changed" tick and transient user alerts. Hubs are injected
// into each view; there is no global bus. Delivery is fire-and-forget —
// listeners subscribed after a broadcast never see it, and slow listeners
// drop rather than block the publisher.
package signal

// Alert is a transient user notification.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	AlertSuccess = "success"
	AlertError   = "error"
)

// Hub broadcasts change ticks and alerts to its subscribers. Both
// subscribe calls return an unsubscribe func the caller must invoke when
// its view unmounts.
type Hub interface {
	PublishEventsChanged()
	PublishAlert(alert Alert)
	SubscribeEventsChanged() (<-chan struct{}, func())
	SubscribeAlerts() (<-chan Alert, func())
	Close() error
}

// subscriber channels hold one pending notification; since the events
// signal carries no payload, collapsing bursts is harmless.
const subscriberBuffer = 1

const alertBuffer = 8
