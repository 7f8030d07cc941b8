package progress

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/gateway"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
	"go.uber.org/zap"
)

// ErrUnknownCertification is returned for a roadmap id outside the catalog.
var ErrUnknownCertification = errors.New("unknown certification")

// RoadmapGateway is the persistence of roadmap checkboxes.
type RoadmapGateway interface {
	GetRoadmapProgress(ctx context.Context, userID string, certID int) gateway.Result[map[int64]bool]
	SetRoadmapProgress(ctx context.Context, userID string, certID int, machineID int64, completed bool) gateway.Result[gateway.Done]
}

func roadmapInjection() models.Machine {
	return models.Machine{
		ID:             1,
		Name:           "Injection",
		Difficulty:     models.DifficultyVeryEasy,
		IP:             "10.88.0.2",
		OS:             "Linux",
		Techniques:     []string{"SSH", "SQLi"},
		Certifications: []string{"OSCP"},
		Tags:           []string{"Beginner", "SSH"},
		Video:          "NmDQvmCgkv8",
	}
}

// Certifications returns the roadmap catalog.
func Certifications() []models.Certification {
	return []models.Certification{
		{
			ID:               1,
			Name:             "OSCP (Offensive Security Certified Professional)",
			Provider:         "Offensive Security",
			Description:      "Certificación de pentesting práctico reconocida mundialmente",
			Difficulty:       "Avanzado",
			EstimatedTime:    "2-3 meses",
			MachinesRequired: 40,
			Machines:         []models.Machine{roadmapInjection()},
		},
		{
			ID:               2,
			Name:             "CEH (Certified Ethical Hacker)",
			Provider:         "EC-Council",
			Description:      "Certificación fundamental en hacking ético",
			Difficulty:       "Intermedio",
			EstimatedTime:    "1-2 meses",
			MachinesRequired: 25,
			Machines:         []models.Machine{},
		},
		{
			ID:               3,
			Name:             "eJPT (eLearnSecurity Junior Penetration Tester)",
			Provider:         "eLearnSecurity",
			Description:      "Certificación inicial perfecta para empezar en pentesting",
			Difficulty:       "Principiante",
			EstimatedTime:    "1 mes",
			MachinesRequired: 15,
			Machines:         []models.Machine{roadmapInjection()},
		},
	}
}

// CertificationByID looks a roadmap up in the catalog.
func CertificationByID(id int) (models.Certification, error) {
	for _, c := range Certifications() {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Certification{}, fmt.Errorf("%w: %d", ErrUnknownCertification, id)
}

// RoadmapProgress counts ticked roadmap machines.
type RoadmapProgress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

// ProgressOf computes the progress of machines.
func ProgressOf(machines []models.RoadmapMachine) RoadmapProgress {
	p := RoadmapProgress{Total: len(machines)}
	for _, m := range machines {
		if m.Completed {
			p.Completed++
		}
	}
	p.Remaining = p.Total - p.Completed
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) * 100 / float64(p.Total)
	}
	return p
}

// Step is one piece of advice.
type Step struct {
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// NextSteps returns advice for the given completion percentage.
func NextSteps(percentage float64) []Step {
	var texts [3]string
	switch {
	case percentage == 0:
		texts = [3]string{"Comienza con las máquinas fáciles", "Establece un horario de estudio consistente", "Únete a la comunidad de estudio"}
	case percentage < 50:
		texts = [3]string{"Continúa con máquinas de dificultad media", "Practica las técnicas aprendidas", "Revisa máquinas anteriores"}
	case percentage < 100:
		texts = [3]string{"Enfócate en máquinas difíciles", "Realiza ejercicios de tiempo", "Prepara el examen final"}
	default:
		texts = [3]string{"¡Certificación completada!", "Prepara tu examen oficial", "Comparte tu experiencia"}
	}
	steps := make([]Step, len(texts))
	for i, t := range texts {
		steps[i] = Step{Order: i + 1, Text: t}
	}
	return steps
}

// Roadmap is one certification with the user's checkboxes.
type Roadmap struct {
	Certification models.Certification    `json:"certification"`
	Machines      []models.RoadmapMachine `json:"machines"`
	Progress      RoadmapProgress         `json:"progress"`
	Rounded       int                     `json:"rounded"`
	NextSteps     []Step                  `json:"nextSteps"`
	Source        gateway.Source          `json:"source"`
}

// Tracker reads and toggles roadmap checkboxes. Completion is stored per
// certification and never derived from machine status.
type Tracker struct {
	gw       RoadmapGateway
	identity IdentityProvider
	notifier notify.Notifier
	bus      *events.Bus
	log      *zap.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(gw RoadmapGateway, identity IdentityProvider, notifier notify.Notifier, bus *events.Bus, log *zap.Logger) *Tracker {
	return &Tracker{gw: gw, identity: identity, notifier: notifier, bus: bus, log: log}
}

func (t *Tracker) build(cert models.Certification, done map[int64]bool, src gateway.Source) Roadmap {
	machines := make([]models.RoadmapMachine, 0, len(cert.Machines))
	for _, m := range cert.Machines {
		machines = append(machines, models.RoadmapMachine{Machine: m, Completed: done[m.ID]})
	}
	p := ProgressOf(machines)
	return Roadmap{
		Certification: cert,
		Machines:      machines,
		Progress:      p,
		Rounded:       int(math.Round(p.Percentage)),
		NextSteps:     NextSteps(p.Percentage),
		Source:        src,
	}
}

// Roadmap returns certification certID with the checkboxes of the current
// user. A signed-out user sees every box cleared.
func (t *Tracker) Roadmap(ctx context.Context, certID int) (Roadmap, error) {
	cert, err := CertificationByID(certID)
	if err != nil {
		return Roadmap{}, err
	}
	u := t.identity.CurrentUser()
	if u == nil {
		return t.build(cert, nil, ""), nil
	}
	res := t.gw.GetRoadmapProgress(ctx, u.ID, certID)
	if !res.Success {
		return Roadmap{}, fmt.Errorf("load roadmap %d: %w", certID, res.Err())
	}
	return t.build(cert, res.Data, res.Source), nil
}

// Toggle ticks or clears machineID on roadmap certID and returns the
// updated roadmap. Reaching 100% raises a completion notification.
func (t *Tracker) Toggle(ctx context.Context, certID int, machineID int64, completed bool) (Roadmap, error) {
	cert, err := CertificationByID(certID)
	if err != nil {
		return Roadmap{}, err
	}
	u := t.identity.CurrentUser()
	if u == nil {
		return Roadmap{}, models.ErrNotAuthenticated
	}
	found := false
	for _, m := range cert.Machines {
		if m.ID == machineID {
			found = true
			break
		}
	}
	if !found {
		return Roadmap{}, fmt.Errorf("%w: machine %d is not on roadmap %d", models.ErrValidation, machineID, certID)
	}

	if res := t.gw.SetRoadmapProgress(ctx, u.ID, certID, machineID, completed); !res.Success {
		return Roadmap{}, fmt.Errorf("save roadmap %d: %w", certID, res.Err())
	}
	t.bus.Publish(events.Event{Kind: events.DataChanged, User: u, Entity: events.EntityRoadmap, MachineID: machineID})

	r, err := t.Roadmap(ctx, certID)
	if err != nil {
		return Roadmap{}, err
	}
	if r.Progress.Percentage == 100 {
		t.log.Info("roadmap completed", zap.String("certification", cert.Name))
		t.notifier.Notify(notify.Success, "¡Felicidades! Has completado todas las máquinas para "+cert.Name)
		t.bus.Publish(events.Event{Kind: events.RoadmapCompleted, User: u, Certification: cert.Name})
	}
	return r, nil
}
