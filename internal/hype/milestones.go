package hype

type Milestone struct {
	Threshold int    `json:"threshold"`
	Title     string `json:"title"`
	Reward    int64  `json:"reward"`
}

var milestones = []Milestone{
	{1, "First Achievement", 50},
	{5, "Rising Star", 100},
	{10, "Local Legend", 250},
	{25, "Stadium Filler", 500},
	{50, "Hall of Famer", 1000},
	{100, "UltraPreps Icon", 2500},
}

// MilestoneAt returns the milestone whose threshold is exactly count.
func MilestoneAt(count int) (Milestone, bool) {
	for _, m := range milestones {
		if m.Threshold == count {
			return m, true
		}
	}
	return Milestone{}, false
}

func Milestones() []Milestone {
	return append([]Milestone(nil), milestones...)
}
