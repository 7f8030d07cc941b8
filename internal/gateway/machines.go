package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
	"go.uber.org/zap"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 12

type machinePage struct {
	items []models.Machine
	total int
}

// GetMachines returns one page of the catalog matching f. Backend errors,
// a missing table and an empty page all resolve to the demo catalog.
func (g *Gateway) GetMachines(ctx context.Context, f models.MachineFilter, page, pageSize int) (res Result[[]models.Machine]) {
	start := time.Now()
	defer func() { observe("getMachines", start, res.Source, res.Success) }()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	p, err := call(ctx, g, func(b Backend) (machinePage, error) {
		items, total, err := b.ListMachines(ctx, f, (page-1)*pageSize, pageSize)
		return machinePage{items: items, total: total}, err
	})
	switch {
	case errors.Is(err, models.ErrMissingTable):
		g.log.Warn("machines table missing, serving demo catalog", zap.Error(err))
	case err != nil:
		g.fallingBack("getMachines", err)
	case len(p.items) == 0:
		g.log.Info("catalog is empty, serving demo catalog")
	default:
		res = ok(p.items, SourceBackend)
		res.TotalCount = p.total
		return res
	}

	demo := DemoMachines()
	res = ok(demo, SourceDemo)
	res.TotalCount = len(demo)
	return res
}

// GetMachineByID returns the machine with id, or a successful result with
// nil data when no such machine exists.
func (g *Gateway) GetMachineByID(ctx context.Context, id int64) (res Result[*models.Machine]) {
	start := time.Now()
	defer func() { observe("getMachineById", start, res.Source, res.Success) }()

	m, err := call(ctx, g, func(b Backend) (*models.Machine, error) {
		return b.GetMachine(ctx, id)
	})
	switch {
	case err == nil:
		return ok(m, SourceBackend)
	case errors.Is(err, models.ErrNotFound):
		return ok[*models.Machine](nil, SourceBackend)
	}

	g.fallingBack("getMachineById", err)
	return ok(demoByID(id), SourceDemo)
}

// GetMachineByName looks a machine up by exact case-insensitive name on the
// backend, or by substring in the demo catalog.
func (g *Gateway) GetMachineByName(ctx context.Context, name string) (res Result[*models.Machine]) {
	start := time.Now()
	defer func() { observe("getMachineByName", start, res.Source, res.Success) }()

	m, err := call(ctx, g, func(b Backend) (*models.Machine, error) {
		return b.FindMachineByName(ctx, name)
	})
	if err == nil {
		return ok(m, SourceBackend)
	}
	if !errors.Is(err, models.ErrNotFound) {
		g.fallingBack("getMachineByName", err)
	}
	return ok(demoByName(name), SourceDemo)
}
