// Package queue defines message payloads exchanged over the message broker.
package queue

// Mail event kinds.  The consumer switches on Kind only for the log
// line prefix; delivery is identical for all of them.
const (
    MailKindConfirmation      = "confirmation"       // email address confirmation link
    MailKindPasswordReset     = "password_reset"     // password reset link
    MailKindOrderConfirmation = "order_confirmation" // checkout receipt
)

// MailEvent is published for every outbound email.  The web process
// never talks SMTP; it enqueues one of these and the mail worker owns
// delivery, so a slow or down mail path cannot stall a request.
type MailEvent struct {
    Kind     string `json:"kind"`
    To       string `json:"to"`
    Subject  string `json:"subject"`
    Body     string `json:"body"`
    UserID   uint64 `json:"user_id"`
    QueuedAt string `json:"queued_at"`
}
