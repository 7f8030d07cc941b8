// Package fallback implements the device-local key-value store the gateway
// writes to when the hosted backend is unreachable. Values are JSON
// documents stored under namespaced keys.
package fallback

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown fallback driver")

// Store is a durable string-keyed document store.
type Store interface {
	// Get decodes the value under key into dst. It reports false when the
	// key is absent.
	Get(key string, dst any) (bool, error)
	// Put encodes v and stores it under key, replacing any previous value.
	Put(key string, v any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys lists the keys starting with prefix in lexical order.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Key namespaces.
const (
	userMachinesPrefix = "user_machines:"
	notesPrefix        = "notes:"
	calendarPrefix     = "calendar:"
	roadmapPrefix      = "roadmap:"
	usersPrefix        = "users:"

	// SessionKey holds the identity of the last signed-in user.
	SessionKey = "session"
)

// UserMachinesKey maps machine ids to stored status strings for userID.
func UserMachinesKey(userID string) string { return userMachinesPrefix + userID }

// NotesKey holds the note list of userID for machineID.
func NotesKey(userID string, machineID int64) string {
	return fmt.Sprintf("%s%s:%d", notesPrefix, userID, machineID)
}

// NotesPrefix matches every note list of userID.
func NotesPrefix(userID string) string { return notesPrefix + userID + ":" }

// CalendarKey holds the scheduled entries of userID.
func CalendarKey(userID string) string { return calendarPrefix + userID }

// RoadmapKey maps machine ids to completion flags for one roadmap of userID.
func RoadmapKey(userID string, certID int) string {
	return fmt.Sprintf("%s%s:%d", roadmapPrefix, userID, certID)
}

// UserKey holds the locally registered account for email.
func UserKey(email string) string { return usersPrefix + strings.ToLower(email) }

// NewID returns an identifier for records created while offline: the
// current millisecond time followed by a random suffix, both base 36.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + strconv.FormatInt(rand.Int64N(1<<40), 36)
}

// Open returns the store selected by driver ("file" or "badger") rooted at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "file":
		return OpenFileStore(path)
	case "badger":
		return OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
