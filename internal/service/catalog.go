package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/gateway"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
)

// ErrConfirmationRequired is returned when marking a machine solved
// without an explicit confirmation.
var ErrConfirmationRequired = errors.New("marking a machine as solved cannot be undone and must be confirmed")

// DefaultNoteTimestamp replaces missing or malformed note timestamps.
const DefaultNoteTimestamp = "00:00"

var noteTimestampPattern = regexp.MustCompile(`^([0-5]?[0-9]):([0-5][0-9])$`)

// CatalogGateway is the subset of the persistence gateway used by the
// catalog store.
type CatalogGateway interface {
	GetMachines(ctx context.Context, f models.MachineFilter, page, pageSize int) gateway.Result[[]models.Machine]
	GetMachineByID(ctx context.Context, id int64) gateway.Result[*models.Machine]
	GetMachineByName(ctx context.Context, name string) gateway.Result[*models.Machine]
	GetUserMachineStatus(ctx context.Context, userID string, machineID int64) gateway.Result[*models.UserMachineStatus]
	UpdateUserMachineStatus(ctx context.Context, userID string, machineID int64, status models.Status) gateway.Result[*models.UserMachineStatus]
	GetMachineNotes(ctx context.Context, userID string, machineID int64) gateway.Result[[]models.Note]
	AddNote(ctx context.Context, userID string, machineID int64, n models.Note) gateway.Result[*models.Note]
	DeleteNote(ctx context.Context, userID, noteID string) gateway.Result[gateway.Done]
	GetUserStats(ctx context.Context, userID string) gateway.Result[models.UserStats]
	GetSolvedByDifficulty(ctx context.Context, userID string) gateway.Result[models.DifficultyStats]
	GetUserSolvedMachines(ctx context.Context, userID string) gateway.Result[[]models.Machine]
	GetCertificationProgress(ctx context.Context, userID string) gateway.Result[[]models.CertificationProgress]
}

// IdentityProvider exposes the signed-in user.
type IdentityProvider interface {
	CurrentUser() *models.Identity
}

// Catalog is the Catalog & Progress Store. Reads and writes are scoped to
// the current identity and go through the gateway; successful writes are
// announced as DataChanged events. Every write outcome raises a notification.
type Catalog struct {
	gw       CatalogGateway
	identity IdentityProvider
	notifier notify.Notifier
	bus      *events.Bus
}

// NewCatalog constructs a Catalog.
func NewCatalog(gw CatalogGateway, identity IdentityProvider, notifier notify.Notifier, bus *events.Bus) *Catalog {
	return &Catalog{gw: gw, identity: identity, notifier: notifier, bus: bus}
}

// statusMessages holds the success and failure messages of a status change.
var statusMessages = map[models.Status][2]string{
	models.StatusWanted: {"Máquina marcada como deseada", "Error al marcar como deseada"},
	models.StatusSolved: {"Máquina marcada como resuelta", "Error al marcar como resuelta"},
	models.StatusNone:   {"Máquina desmarcada", "Error actualizando estado"},
}

func (c *Catalog) user() (*models.Identity, error) {
	u := c.identity.CurrentUser()
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	return u, nil
}

// check converts a failed result into its error.
func check[T any](res gateway.Result[T]) (gateway.Result[T], error) {
	if !res.Success {
		return res, res.Err()
	}
	return res, nil
}

// ListMachines returns one page of the catalog. It needs no identity.
func (c *Catalog) ListMachines(ctx context.Context, f models.MachineFilter, page, pageSize int) (gateway.Result[[]models.Machine], error) {
	return check(c.gw.GetMachines(ctx, f, page, pageSize))
}

// Machine returns the catalog record with id, wrapping models.ErrNotFound
// when there is none.
func (c *Catalog) Machine(ctx context.Context, id int64) (gateway.Result[*models.Machine], error) {
	res, err := check(c.gw.GetMachineByID(ctx, id))
	if err == nil && res.Data == nil {
		return res, fmt.Errorf("machine %d: %w", id, models.ErrNotFound)
	}
	return res, err
}

// MachineByName looks a machine up by name.
func (c *Catalog) MachineByName(ctx context.Context, name string) (gateway.Result[*models.Machine], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return gateway.Result[*models.Machine]{}, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	res, err := check(c.gw.GetMachineByName(ctx, name))
	if err == nil && res.Data == nil {
		return res, fmt.Errorf("machine %q: %w", name, models.ErrNotFound)
	}
	return res, err
}

// Status returns the status of machineID for the current user. A machine
// the user never flagged reports StatusNone.
func (c *Catalog) Status(ctx context.Context, machineID int64) (gateway.Result[models.Status], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[models.Status]{}, err
	}
	res, err := check(c.gw.GetUserMachineStatus(ctx, u.ID, machineID))
	out := gateway.Result[models.Status]{Success: res.Success, Error: res.Error, Source: res.Source}
	if res.Data != nil {
		out.Data = res.Data.Status
	}
	return out, err
}

// SetStatus moves machineID to status for the current user. Marking a
// machine solved requires confirmed; leaving solved is always rejected.
func (c *Catalog) SetStatus(ctx context.Context, machineID int64, status models.Status, confirmed bool) (gateway.Result[*models.UserMachineStatus], error) {
	var zero gateway.Result[*models.UserMachineStatus]
	u, err := c.user()
	if err != nil {
		return zero, err
	}
	if status == models.StatusSolved && !confirmed {
		return zero, ErrConfirmationRequired
	}

	msgs, known := statusMessages[status]
	if !known {
		msgs = statusMessages[models.StatusNone]
	}
	res, err := check(c.gw.UpdateUserMachineStatus(ctx, u.ID, machineID, status))
	if err != nil {
		c.notifier.Notify(notify.Error, msgs[1])
		return res, err
	}
	c.notifier.Notify(notify.Success, msgs[0])
	c.bus.Publish(events.Event{
		Kind:      events.DataChanged,
		User:      u,
		Entity:    events.EntityStatus,
		MachineID: machineID,
		Status:    status,
	})
	return res, nil
}

// NormalizeTimestamp returns ts trimmed when it is a valid MM:SS position,
// and DefaultNoteTimestamp otherwise.
func NormalizeTimestamp(ts string) string {
	ts = strings.TrimSpace(ts)
	if !noteTimestampPattern.MatchString(ts) {
		return DefaultNoteTimestamp
	}
	return ts
}

// timestampSeconds converts an MM:SS position into seconds. Malformed
// values sort first.
func timestampSeconds(ts string) int {
	m := noteTimestampPattern.FindStringSubmatch(strings.TrimSpace(ts))
	if m == nil {
		return 0
	}
	mm, _ := strconv.Atoi(m[1])
	ss, _ := strconv.Atoi(m[2])
	return mm*60 + ss
}

// Notes lists the notes of the current user for machineID, ordered by
// their position in the video.
func (c *Catalog) Notes(ctx context.Context, machineID int64) (gateway.Result[[]models.Note], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[[]models.Note]{}, err
	}
	res, err := check(c.gw.GetMachineNotes(ctx, u.ID, machineID))
	if err != nil {
		return res, err
	}
	slices.SortStableFunc(res.Data, func(a, b models.Note) int {
		return cmp.Compare(timestampSeconds(a.Timestamp), timestampSeconds(b.Timestamp))
	})
	return res, nil
}

// AddNote stores a note for machineID. Name and content are required.
func (c *Catalog) AddNote(ctx context.Context, machineID int64, name, content, timestamp string) (gateway.Result[*models.Note], error) {
	var zero gateway.Result[*models.Note]
	u, err := c.user()
	if err != nil {
		return zero, err
	}
	n := models.Note{
		Name:      strings.TrimSpace(name),
		Content:   strings.TrimSpace(content),
		Timestamp: NormalizeTimestamp(timestamp),
	}
	if n.Name == "" || n.Content == "" {
		c.notifier.Notify(notify.Error, "Nombre y contenido son requeridos")
		return zero, fmt.Errorf("%w: note name and content are required", models.ErrValidation)
	}

	res, err := check(c.gw.AddNote(ctx, u.ID, machineID, n))
	if err != nil {
		c.notifier.Notify(notify.Error, "Error añadiendo nota")
		return res, err
	}
	c.notifier.Notify(notify.Success, "Nota añadida correctamente")
	c.bus.Publish(events.Event{Kind: events.DataChanged, User: u, Entity: events.EntityNote, MachineID: machineID})
	return res, nil
}

// DeleteNote removes one note of the current user.
func (c *Catalog) DeleteNote(ctx context.Context, noteID string) (gateway.Result[gateway.Done], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[gateway.Done]{}, err
	}
	if strings.TrimSpace(noteID) == "" {
		return gateway.Result[gateway.Done]{}, fmt.Errorf("%w: note id is required", models.ErrValidation)
	}
	res, err := check(c.gw.DeleteNote(ctx, u.ID, noteID))
	if err != nil {
		c.notifier.Notify(notify.Error, "Error eliminando nota")
		return res, err
	}
	c.notifier.Notify(notify.Success, "Nota eliminada")
	c.bus.Publish(events.Event{Kind: events.DataChanged, User: u, Entity: events.EntityNote})
	return res, nil
}

// Stats returns the status counts of the current user.
func (c *Catalog) Stats(ctx context.Context) (gateway.Result[models.UserStats], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[models.UserStats]{}, err
	}
	return check(c.gw.GetUserStats(ctx, u.ID))
}

// SolvedByDifficulty buckets the solved machines of the current user.
func (c *Catalog) SolvedByDifficulty(ctx context.Context) (gateway.Result[models.DifficultyStats], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[models.DifficultyStats]{}, err
	}
	return check(c.gw.GetSolvedByDifficulty(ctx, u.ID))
}

// SolvedMachines lists the machines the current user has solved.
func (c *Catalog) SolvedMachines(ctx context.Context) (gateway.Result[[]models.Machine], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[[]models.Machine]{}, err
	}
	return check(c.gw.GetUserSolvedMachines(ctx, u.ID))
}

// CertificationProgress reports the per-certification solved share.
func (c *Catalog) CertificationProgress(ctx context.Context) (gateway.Result[[]models.CertificationProgress], error) {
	u, err := c.user()
	if err != nil {
		return gateway.Result[[]models.CertificationProgress]{}, err
	}
	return check(c.gw.GetCertificationProgress(ctx, u.ID))
}
