package models

// TrophyType selects how a trophy requirement is evaluated.
type TrophyType string

// TrophyMachineCount unlocks once the solved count reaches the requirement.
const TrophyMachineCount TrophyType = "machine_count"

// Rarity is the display tier of a trophy.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
	RarityGod       Rarity = "GOD"
)

// DisplayName returns the localized label of r, or r itself when unknown.
func (r Rarity) DisplayName() string {
	switch r {
	case RarityCommon:
		return "Común"
	case RarityUncommon:
		return "Poco Común"
	case RarityRare:
		return "Rara"
	case RarityEpic:
		return "Épica"
	case RarityLegendary:
		return "Legendaria"
	case RarityMythic:
		return "Mítica"
	case RarityGod:
		return "GOD"
	default:
		return string(r)
	}
}

// Trophy is a static catalog entry.
type Trophy struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        TrophyType `json:"type"`
	Requirement int        `json:"requirement"`
	Icon        string     `json:"icon"`
	Rarity      Rarity     `json:"rarity"`
}

// Certification is a static roadmap definition.
type Certification struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Provider         string    `json:"provider"`
	Description      string    `json:"description"`
	Difficulty       string    `json:"difficulty"`
	EstimatedTime    string    `json:"estimatedTime"`
	MachinesRequired int       `json:"machinesRequired"`
	Machines         []Machine `json:"machines"`
}

// RoadmapMachine is a roadmap machine with its independently tracked checkbox.
type RoadmapMachine struct {
	Machine
	Completed bool `json:"completed"`
}
