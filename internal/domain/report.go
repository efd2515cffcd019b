package domain

type ReportSummary struct {
	FinishedEvents    int     `json:"finished_events"`
	TotalCost         float64 `json:"total_cost"`
	TotalShiftsWorked int32   `json:"total_shifts_worked"`
	AverageRating     float64 `json:"average_rating"`
}

type RankingEntry struct {
	Position int     `json:"position"`
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	Rating   float64 `json:"rating"`
}
