// Package notifications maintains the operator's working set of alerts: the
// merge of the REST-fetched history and the live broker stream, together with
// read state and the moderation actions surfaced from the panel.
package notifications

import "time"

// Notification is a single alert as delivered by the platform. A non-zero
// JoinRequestID marks a pending group-join request; GroupID plus OffenderID
// together mark a moderation-relevant event.
type Notification struct {
	ID            int64     `json:"id"`
	RecipientID   int64     `json:"recipientUserId"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Link          string    `json:"link"`
	GroupID       int64     `json:"groupId,omitempty"`
	OffenderID    int64     `json:"offenderId,omitempty"`
	JoinRequestID int64     `json:"joinRequestId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Read          bool      `json:"read"`
}

// IsJoinRequest reports whether this notification represents a pending
// group-join request.
func (n Notification) IsJoinRequest() bool {
	return n.JoinRequestID != 0
}

// Moderatable reports whether the notification carries enough context for a
// block action.
func (n Notification) Moderatable() bool {
	return n.GroupID != 0 && n.OffenderID != 0
}
