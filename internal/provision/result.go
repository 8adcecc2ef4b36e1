package provision

type Status int

const (
	StatusCreated Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome for one listed URL. MonitorID is zero when the
// server did not report one.
type Result struct {
	URL       string
	Name      string
	Status    Status
	MonitorID int
	Err       error
}

type Summary struct {
	Created int
	Skipped int
	Failed  int
	Results []Result
}

// Total is the number of URLs processed.
func (s Summary) Total() int {
	return len(s.Results)
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case StatusCreated:
		s.Created++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}
