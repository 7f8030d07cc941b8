package progress

import (
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
)

// ProfileUser is the user section of a profile export.
type ProfileUser struct {
	Email string           `json:"email"`
	Level string           `json:"level"`
	Stats models.UserStats `json:"stats"`
}

// ProfileExport is the downloadable snapshot of a user's progress.
type ProfileExport struct {
	User       ProfileUser `json:"user"`
	ExportDate time.Time   `json:"exportDate"`
}

// Export snapshots the loaded stats of id at now.
func (e *Engine) Export(id models.Identity, now time.Time) ProfileExport {
	s := e.Summary()
	return ProfileExport{
		User:       ProfileUser{Email: id.Email, Level: s.Level, Stats: s.Stats},
		ExportDate: now.UTC(),
	}
}

// ProfileFileName names the profile export of email produced at now.
func ProfileFileName(email string, now time.Time) string {
	return "hacklearn-data-" + email + "-" + now.UTC().Format(time.DateOnly) + ".json"
}
