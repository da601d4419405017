// Package notify is the boundary to message delivery. Business flows decide
// when to notify and with what data; how the message reaches the recipient is
// entirely this package's concern. A delivery failure must never fail or roll
// back the flow that triggered it.
package notify

import "context"

type Kind string

const (
	KindVerification  Kind = "verification"
	KindLoginAlert    Kind = "login_alert"
	KindPasswordReset Kind = "password_reset"
	KindWelcome       Kind = "welcome"
	KindInvite        Kind = "invite"
)

// Message carries the per-kind context fields. Token-bearing kinds put the
// opaque token under "token"; login alerts carry ip/location/device/browser.
type Message struct {
	Kind      Kind
	Recipient string
	Data      map[string]string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
