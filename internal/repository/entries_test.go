package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/lib/pq"
)

func TestListNotes(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notes WHERE user_id = $1 AND machine_id = $2`)).
		WithArgs("u1", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "machine_id", "name", "content", "timestamp", "created_at"}).
			AddRow("n1", "u1", int64(1), "nmap", "puertos 22 y 80", "01:20", fixedNow).
			AddRow("n2", "u1", int64(1), "sqli", "login bypass", "12:05", fixedNow))

	notes, err := repo.ListNotes(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notes) != 2 || notes[1].Timestamp != "12:05" {
		t.Errorf("unexpected notes %+v", notes)
	}
}

func TestInsertNote(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO notes (user_id, machine_id, name, content, timestamp, created_at)`)).
		WithArgs("u1", int64(1), "nmap", "scan", "00:30", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("5"))

	n, err := repo.InsertNote(context.Background(), models.Note{
		UserID: "u1", MachineID: 1, Name: "nmap", Content: "scan", Timestamp: "00:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID != "5" || !n.CreatedAt.Equal(fixedNow) {
		t.Errorf("unexpected note %+v", n)
	}
}

func TestDeleteNote(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notes WHERE id::text = $1 AND user_id = $2`)).
		WithArgs("5", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteNote(context.Background(), "u1", "5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestInsertCalendarEntry(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO calendar (user_id, machine_id, date, created_at)`)).
		WithArgs("u1", int64(2), "2025-03-15", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("17"))

	e, err := repo.InsertCalendarEntry(context.Background(), models.ScheduledEntry{UserID: "u1", MachineID: 2, Date: "2025-03-15"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != "17" || e.Date != "2025-03-15" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestListCalendarEntries(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	cols := []string{"id", "user_id", "machine_id", "date", "created_at",
		"m.id", "name", "difficulty", "os", "ip", "techniques", "certifications", "tags",
		"video", "download_ova", "download_docker"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE c.user_id = $1 AND c.date >= $2 AND c.date <= $3`)).
		WithArgs("u1", "2025-03-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("17", "u1", int64(2), "2025-03-15", fixedNow,
				int64(2), "ICA_1", "Fácil", "Linux", "192.168.1.152", "{MYSQL,Hydra,VulnHub}", "{OSCP}", "{Beginner,SSH}",
				"", "https://example.com/ica.ova", ""))

	entries, err := repo.ListCalendarEntries(context.Background(), "u1", "2025-03-01", "2025-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Machine == nil || entries[0].Machine.Name != "ICA_1" {
		t.Errorf("machine not joined: %+v", entries[0])
	}
}

func TestListCalendarEntries_MissingTable(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM calendar c`)).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "calendar" does not exist`})

	_, err := repo.ListCalendarEntries(context.Background(), "u1", "2025-03-01", "2025-03-31")
	if !errors.Is(err, models.ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestDeleteCalendarEntry(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM calendar WHERE id::text = $1 AND user_id = $2`)).
		WithArgs("17", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteCalendarEntry(context.Background(), "u1", "17"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoadmapProgress(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO roadmap_progress (user_id, certification_id, machine_id, completed, updated_at)`)).
		WithArgs("u1", 1, int64(1), true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT machine_id, completed FROM roadmap_progress`)).
		WithArgs("u1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"machine_id", "completed"}).AddRow(int64(1), true))

	if err := repo.SetRoadmapProgress(context.Background(), "u1", 1, 1, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	progress, err := repo.ListRoadmapProgress(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !progress[1] {
		t.Errorf("expected machine 1 completed, got %v", progress)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
