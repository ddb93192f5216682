package notifications

import "context"

// Service is the REST collaborator behind the notification panel. The bridge
// treats every call as an opaque success/failure; retries, if any, are the
// collaborator's concern.
type Service interface {
	// FetchAll returns the full notification history for a recipient, in
	// the collaborator's order (newest-relevant-first).
	FetchAll(ctx context.Context, recipientID int64) ([]Notification, error)

	// FetchUnread returns only the unread notifications for a recipient.
	FetchUnread(ctx context.Context, recipientID int64) ([]Notification, error)

	// MarkRead marks a single notification as read.
	MarkRead(ctx context.Context, notificationID int64) error

	// MarkAllRead marks every notification for the recipient as read.
	MarkAllRead(ctx context.Context, recipientID int64) error

	// BlockUser blocks the offender inside the given group.
	BlockUser(ctx context.Context, groupID, offenderID int64) error

	// AcceptJoinRequest resolves a join request, recording who accepted it.
	AcceptJoinRequest(ctx context.Context, requestID, acceptedBy int64) error

	// RejectJoinRequest declines a join request.
	RejectJoinRequest(ctx context.Context, requestID int64) error
}
