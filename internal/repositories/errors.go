package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConflict marks a lost serialization race on the summary
	// pointer; callers retry the read-modify-write once.
	ErrConflict = errors.New("concurrent summary update conflict")
)

// conflictErr maps Postgres serialization and deadlock failures to
// ErrConflict, leaving other errors untouched.
func conflictErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "40001" || pqErr.Code == "40P01" {
			return ErrConflict
		}
	}
	return err
}
