// Package session holds the operator's handed-off credentials: an opaque
// token string and the raw user profile JSON blob. The store performs no
// validation; expiry and role checks are the access guard's job.
package session

// Session is the credential pair as persisted. Either field may be empty
// independently; the guard treats a missing half as an absent session.
type Session struct {
	Token string
	User  string
}

// Complete reports whether both halves of the session are present.
func (s Session) Complete() bool {
	return s.Token != "" && s.User != ""
}

// Store is the persistence contract for the credential pair. Implementations
// are shared, last-writer-wins state; there is no access arbitration between
// writers, mirroring the per-origin storage the bridge stands in for.
type Store interface {
	// Set persists both values, replacing whatever was there.
	Set(token, user string) error

	// Get retrieves the current pair. An absent session is returned as
	// zero values, not an error.
	Get() (Session, error)

	// Clear removes both values.
	Clear() error
}
