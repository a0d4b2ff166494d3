package progress

type TierStatus struct {
	Tier        int  `json:"tier"`
	MaxTier     int  `json:"maxTier"`
	Progress    int  `json:"progress"`
	CurrentGoal int  `json:"currentGoal"`
	NextGoal    int  `json:"nextGoal"`
	Completed   bool `json:"completed"`
}

// Tier finds the highest goal satisfied by progress. goals must be
// ascending; Tier 0 means no goal is reached yet.
func Tier(goals []int, progress int) TierStatus {
	status := TierStatus{MaxTier: len(goals), Progress: progress}

	for i, goal := range goals {
		if progress < goal {
			status.NextGoal = goal
			break
		}
		status.Tier = i + 1
		status.CurrentGoal = goal
	}

	status.Completed = len(goals) > 0 && status.Tier == len(goals)
	return status
}
