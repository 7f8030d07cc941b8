package gateway

import (
	"strings"

	"github.com/atinyakov/hacklearn/internal/models"
)

// DemoMachines returns the built-in catalog shown when the backend has no
// machines to offer. Each call returns a fresh copy.
func DemoMachines() []models.Machine {
	return []models.Machine{
		{
			ID:             1,
			Name:           "Injection",
			Difficulty:     models.DifficultyVeryEasy,
			IP:             "10.88.0.2",
			OS:             "Linux",
			Techniques:     []string{"SSH", "SQLi", "DockerLabs"},
			Certifications: []string{"OSCP"},
			Tags:           []string{"Beginner", "SSH"},
			Video:          "NmDQvmCgkv8",
			DownloadDocker: "https://mega.nz/file/rZlAERjY#152uP-zS7pTC0hbPaZB7aO6_puij633u4pW-jpMuctk",
		},
		{
			ID:             2,
			Name:           "ICA_1",
			Difficulty:     models.DifficultyEasy,
			IP:             "192.168.1.152",
			OS:             "Linux",
			Techniques:     []string{"MYSQL", "Hydra", "VulnHub"},
			Certifications: []string{"OSCP"},
			Tags:           []string{"Beginner", "SSH"},
		},
	}
}

func demoByID(id int64) *models.Machine {
	for _, m := range DemoMachines() {
		if m.ID == id {
			return &m
		}
	}
	return nil
}

// demoByName matches case-insensitively on a substring of the name.
func demoByName(name string) *models.Machine {
	n := strings.ToLower(name)
	for _, m := range DemoMachines() {
		if strings.Contains(strings.ToLower(m.Name), n) {
			return &m
		}
	}
	return nil
}
