package contracts

// Status is the coarse health of a run or sub-component
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusError    Status = "error"
)

// rank orders statuses from healthy to broken
func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// WorstStatus returns the worst of the given statuses; the overall status
// of a run is always the worst sub-component status
func WorstStatus(statuses ...Status) Status {
	worst := StatusOK
	for _, s := range statuses {
		if s.rank() > worst.rank() {
			worst = s
		}
	}
	return worst
}
