// Package servicefakes provides an in-memory Service for tests.
package servicefakes

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/unihelp/admin-bridge/notifications"
)

var _ notifications.Service = (*FakeService)(nil)

// FakeService records calls and serves canned notification history. Any of
// the *Err fields can be set to force the corresponding call to fail.
type FakeService struct {
	lock sync.Mutex

	History []notifications.Notification

	FetchAllErr    error
	FetchUnreadErr error
	MarkReadErr    error
	MarkAllReadErr error
	BlockUserErr   error
	AcceptErr      error
	RejectErr      error

	MarkReadCalls    []int64
	MarkAllReadCalls []int64
	BlockUserCalls   [][2]int64 // groupID, offenderID
	AcceptCalls      [][2]int64 // requestID, acceptedBy
	RejectCalls      []int64
}

// NewFakeService creates a fake with the given canned history.
func NewFakeService(history ...notifications.Notification) *FakeService {
	return &FakeService{History: history}
}

func (f *FakeService) FetchAll(_ context.Context, _ int64) ([]notifications.Notification, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.FetchAllErr != nil {
		return nil, f.FetchAllErr
	}
	out := make([]notifications.Notification, len(f.History))
	copy(out, f.History)
	return out, nil
}

func (f *FakeService) FetchUnread(_ context.Context, _ int64) ([]notifications.Notification, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.FetchUnreadErr != nil {
		return nil, f.FetchUnreadErr
	}
	var unread []notifications.Notification
	for _, n := range f.History {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

func (f *FakeService) MarkRead(_ context.Context, notificationID int64) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.MarkReadCalls = append(f.MarkReadCalls, notificationID)
	return f.MarkReadErr
}

func (f *FakeService) MarkAllRead(_ context.Context, recipientID int64) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.MarkAllReadCalls = append(f.MarkAllReadCalls, recipientID)
	return f.MarkAllReadErr
}

func (f *FakeService) BlockUser(_ context.Context, groupID, offenderID int64) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.BlockUserCalls = append(f.BlockUserCalls, [2]int64{groupID, offenderID})
	return f.BlockUserErr
}

func (f *FakeService) AcceptJoinRequest(_ context.Context, requestID, acceptedBy int64) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.AcceptCalls = append(f.AcceptCalls, [2]int64{requestID, acceptedBy})
	return f.AcceptErr
}

func (f *FakeService) RejectJoinRequest(_ context.Context, requestID int64) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.RejectCalls = append(f.RejectCalls, requestID)
	return f.RejectErr
}

// Failure is a convenience error for forcing fake call failures.
var Failure = errors.New("collaborator failure")
