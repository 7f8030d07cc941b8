package calendar

import "github.com/atinyakov/hacklearn/internal/models"

// maxCellMachines is how many machine names a grid cell lists before
// collapsing the rest into a count.
const maxCellMachines = 3

// GridDay is one day cell of the month grid.
type GridDay struct {
	Day      int      `json:"day"`
	Date     string   `json:"date"`
	Today    bool     `json:"today"`
	Selected bool     `json:"selected"`
	Past     bool     `json:"past"`
	Count    int      `json:"count"`
	Machines []string `json:"machines"`
	More     int      `json:"more"`
}

// Grid is the Monday-first month view.
type Grid struct {
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Title    string    `json:"title"`
	Weekdays [7]string `json:"weekdays"`
	// Leading is the number of empty cells before day 1.
	Leading int       `json:"leading"`
	Days    []GridDay `json:"days"`
}

// MonthGrid lays out the visible month.
func (s *Scheduler) MonthGrid() Grid {
	today := FormatDateKey(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	first, last := monthBounds(s.month)
	selected := ""
	if s.selected != nil {
		selected = FormatDateKey(*s.selected)
	}

	g := Grid{
		Year:     first.Year(),
		Month:    int(first.Month()),
		Title:    monthNames[first.Month()-1] + " " + first.Format("2006"),
		Weekdays: WeekdayLabels,
		Leading:  mondayIndex(first.Weekday()),
		Days:     make([]GridDay, 0, last.Day()),
	}
	for d := 1; d <= last.Day(); d++ {
		key := FormatDateKey(first.AddDate(0, 0, d-1))
		list := s.entries[key]
		cell := GridDay{
			Day:      d,
			Date:     key,
			Today:    key == today,
			Selected: key == selected,
			Past:     key < today,
			Count:    len(list),
			Machines: make([]string, 0, min(len(list), maxCellMachines)),
		}
		for i, e := range list {
			if i == maxCellMachines {
				cell.More = len(list) - maxCellMachines
				break
			}
			cell.Machines = append(cell.Machines, machineName(e))
		}
		g.Days = append(g.Days, cell)
	}
	return g
}

func machineName(e models.ScheduledEntry) string {
	if e.Machine == nil || e.Machine.Name == "" {
		return "Desconocida"
	}
	return e.Machine.Name
}
