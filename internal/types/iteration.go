package types

// IterationSummary is the telemetry of one loop iteration as fed to the detector.
type IterationSummary struct {
	Iteration     int
	FilesModified []string
	Committed     bool
	TestsRun      bool
	LintRun       bool
	TaskID        string // "" when no task was active
	Errors        []string
	ExitCode      int
}

// HasModifications reports whether the iteration touched any file.
func (i IterationSummary) HasModifications() bool {
	return len(i.FilesModified) > 0
}

// HasTask reports whether a task was active.
func (i IterationSummary) HasTask() bool {
	return i.TaskID != ""
}

// Clone returns a deep copy.
func (i IterationSummary) Clone() IterationSummary {
	i.FilesModified = cloneStrings(i.FilesModified)
	i.Errors = cloneStrings(i.Errors)
	return i
}
