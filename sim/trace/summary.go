package trace

// Summary aggregates statistics from a Trajectory.
type Summary struct {
	Count     int       `json:"count"`
	Best      float64   `json:"best"`
	BestIndex int       `json:"best_index"` // first evaluation reaching Best
	BestX     []float64 `json:"best_x"`
	Final     float64   `json:"final"`
	Mean      float64   `json:"mean"`
}

// Summarize computes aggregate statistics from a Trajectory.
// Safe for nil or empty trajectories (returns zero-value fields and
// BestIndex -1).
func Summarize(t *Trajectory) *Summary {
	summary := &Summary{BestIndex: -1}
	if t == nil || len(t.Evaluations) == 0 {
		return summary
	}

	summary.Count = len(t.Evaluations)
	total := 0.0
	for i, e := range t.Evaluations {
		total += e.Y
		if i == 0 || e.Y < summary.Best {
			summary.Best = e.Y
			summary.BestIndex = e.Index
			summary.BestX = e.X
		}
	}
	summary.Mean = total / float64(summary.Count)
	summary.Final = t.Evaluations[len(t.Evaluations)-1].Y

	return summary
}
