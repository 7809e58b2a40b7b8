package db

import "time"

// Run represents a stored allocation run
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Source names the roster the run was made from (file name or sheet tab)
	Source string `json:"source"`

	Mode       string `json:"mode"`
	TotalSeats int    `json:"total_seats"`

	// Quotas holds channel fractions in declaration order
	Quotas []RunQuota `json:"quotas"`

	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	Skipped    int `json:"skipped"`

	Departments []RunDepartment `json:"departments"`
}

// RunQuota is one channel fraction used by a run
type RunQuota struct {
	Channel  string  `json:"channel"`
	Fraction float64 `json:"fraction"`
}

// RunDepartment is a department's seat usage in a run
type RunDepartment struct {
	Name         string         `json:"name"`
	Capacity     int            `json:"capacity"`
	ChannelSeats map[string]int `json:"channel_seats"`
	Assigned     int            `json:"assigned"`
	Backfilled   int            `json:"backfilled"`
	MinAverage   *float64       `json:"min_average,omitempty"`
}

// RunAssignment represents one student's outcome in a stored run
type RunAssignment struct {
	RunID          string   `json:"run_id"`
	Rank           int      `json:"rank"`
	StudentID      string   `json:"student_id"`
	Name           string   `json:"name"`
	Average        *float64 `json:"average"` // nil when the roster value was not a number
	StudentChannel string   `json:"student_channel"`
	Department     string   `json:"department"`
	Channel        string   `json:"channel"` // seat channel, empty when unassigned
	Pass           string   `json:"pass"`
	Skipped        bool     `json:"skipped"`
}
