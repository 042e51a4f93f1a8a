package types

// BudgetTier classifies how much of the iteration budget has been used.
type BudgetTier int

const (
	BudgetUnbounded BudgetTier = iota // no budget set
	BudgetHealthy                     // < 50%
	BudgetModerate                    // 50-74%
	BudgetHigh                        // 75-89%
	BudgetCritical                    // >= 90%
)

// String returns the lowercase tier name.
func (b BudgetTier) String() string {
	switch b {
	case BudgetUnbounded:
		return "unbounded"
	case BudgetHealthy:
		return "healthy"
	case BudgetModerate:
		return "moderate"
	case BudgetHigh:
		return "high"
	case BudgetCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SessionStats are the running counters of one session.
type SessionStats struct {
	IterationCount  int
	CommitCount     int
	LinesChanged    int
	TasksCompleted  int
	TasksBlocked    int
	StagnationCount int
	IterationBudget int // 0 = no budget
	FilesModified   []string
	TestCountDelta  int
}

// HasBudget reports whether an iteration budget is set.
func (s SessionStats) HasBudget() bool {
	return s.IterationBudget > 0
}

// BudgetUsedPercent returns the floor of iterations/budget as a percentage,
// capped at 100. ok is false when no budget is set.
func (s SessionStats) BudgetUsedPercent() (percent int, ok bool) {
	if !s.HasBudget() {
		return 0, false
	}
	iterations := s.IterationCount
	if iterations < 0 {
		iterations = 0
	}
	percent = iterations * 100 / s.IterationBudget
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

// BudgetTier classifies BudgetUsedPercent.
func (s SessionStats) BudgetTier() BudgetTier {
	percent, ok := s.BudgetUsedPercent()
	if !ok {
		return BudgetUnbounded
	}
	switch {
	case percent >= 90:
		return BudgetCritical
	case percent >= 75:
		return BudgetHigh
	case percent >= 50:
		return BudgetModerate
	default:
		return BudgetHealthy
	}
}

// RemainingIterations returns budget minus iterations, floored at 0.
func (s SessionStats) RemainingIterations() (int, bool) {
	if !s.HasBudget() {
		return 0, false
	}
	remaining := s.IterationBudget - s.IterationCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// IsProgressing is true early in a session or while at least one commit
// lands every three iterations.
func (s SessionStats) IsProgressing() bool {
	return s.IterationCount <= 3 || s.CommitCount*3 >= s.IterationCount
}

// AddModifiedFile records path once.
func (s *SessionStats) AddModifiedFile(path string) {
	s.FilesModified = appendUnique(s.FilesModified, path)
}

// Clone returns a deep copy.
func (s SessionStats) Clone() SessionStats {
	s.FilesModified = cloneStrings(s.FilesModified)
	return s
}
