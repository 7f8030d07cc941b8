package progress

import (
	"math"
	"strconv"

	"github.com/atinyakov/hacklearn/internal/models"
)

// DefaultTrophies returns the trophy catalog ordered by requirement.
func DefaultTrophies() []models.Trophy {
	return []models.Trophy{
		{ID: "first_blood", Name: "Primera Sangre", Description: "Resuelve 1 máquina", Type: models.TrophyMachineCount, Requirement: 1, Icon: "🏅", Rarity: models.RarityCommon},
		{ID: "apprentice", Name: "Aprendiz", Description: "Resuelve 5 máquinas", Type: models.TrophyMachineCount, Requirement: 5, Icon: "🎓", Rarity: models.RarityCommon},
		{ID: "journeyman", Name: "Viajero", Description: "Resuelve 10 máquinas", Type: models.TrophyMachineCount, Requirement: 10, Icon: "🧭", Rarity: models.RarityUncommon},
		{ID: "pro_hacker", Name: "Pro Hacker", Description: "Resuelve 50 máquinas", Type: models.TrophyMachineCount, Requirement: 50, Icon: "⚡", Rarity: models.RarityEpic},
		{ID: "elite", Name: "Élite", Description: "Resuelve 100 máquinas", Type: models.TrophyMachineCount, Requirement: 100, Icon: "👑", Rarity: models.RarityLegendary},
		{ID: "guru", Name: "Gurú", Description: "Resuelve 200 máquinas", Type: models.TrophyMachineCount, Requirement: 200, Icon: "🧞", Rarity: models.RarityMythic},
		{ID: "God", Name: "God Hacking", Description: "Resuelve 500 máquinas", Type: models.TrophyMachineCount, Requirement: 500, Icon: "👽", Rarity: models.RarityGod},
	}
}

// achieved reports whether solved meets t. Unknown trophy types never unlock.
func achieved(t models.Trophy, solved int) bool {
	switch t.Type {
	case models.TrophyMachineCount:
		return solved >= t.Requirement
	default:
		return false
	}
}

// Unlocked returns the set of trophy ids that solved unlocks. It is a pure
// function of its inputs.
func Unlocked(trophies []models.Trophy, solved int) map[string]bool {
	set := make(map[string]bool)
	for _, t := range trophies {
		if achieved(t, solved) {
			set[t.ID] = true
		}
	}
	return set
}

// NewlyUnlocked returns, in catalog order, the trophies in current that
// were not in previous.
func NewlyUnlocked(trophies []models.Trophy, previous, current map[string]bool) []models.Trophy {
	var out []models.Trophy
	for _, t := range trophies {
		if current[t.ID] && !previous[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// TrophyProgress is how close a user is to one trophy.
type TrophyProgress struct {
	Percentage float64 `json:"percentage"`
	Text       string  `json:"text"`
}

// ProgressTowards returns the progress of solved towards t.
func ProgressTowards(t models.Trophy, solved int) TrophyProgress {
	if achieved(t, solved) {
		return TrophyProgress{Percentage: 100, Text: "Completado"}
	}
	target := t.Requirement
	if t.Type != models.TrophyMachineCount || target <= 0 {
		return TrophyProgress{Percentage: 0, Text: "Progreso no disponible"}
	}
	return TrophyProgress{
		Percentage: math.Min(100, float64(solved)*100/float64(target)),
		Text:       strconv.Itoa(solved) + "/" + strconv.Itoa(target),
	}
}

// TrophyStatus is a catalog trophy with the user's state.
type TrophyStatus struct {
	models.Trophy
	RarityName string         `json:"rarityName"`
	Unlocked   bool           `json:"unlocked"`
	Progress   TrophyProgress `json:"progress"`
}
