package antipattern

// Config holds the detection thresholds. Non-positive values fall back to the defaults.
type Config struct {
	EditWithoutCommit int `yaml:"edit_without_commit" json:"edit_without_commit"`
	TestsNotRun       int `yaml:"tests_not_run" json:"tests_not_run"`
	LintNotRun        int `yaml:"lint_not_run" json:"lint_not_run"`
	TaskOscillation   int `yaml:"task_oscillation" json:"task_oscillation"`
	ErrorRepetition   int `yaml:"error_repetition" json:"error_repetition"`
	FileChurn         int `yaml:"file_churn" json:"file_churn"`
	ScopeCreep        int `yaml:"scope_creep" json:"scope_creep"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		EditWithoutCommit: 3,
		TestsNotRun:       3,
		LintNotRun:        4,
		TaskOscillation:   3,
		ErrorRepetition:   3,
		FileChurn:         5,
		ScopeCreep:        5,
	}
}

// normalized replaces non-positive thresholds with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	pick := func(v, def int) int {
		if v <= 0 {
			return def
		}
		return v
	}
	return Config{
		EditWithoutCommit: pick(c.EditWithoutCommit, d.EditWithoutCommit),
		TestsNotRun:       pick(c.TestsNotRun, d.TestsNotRun),
		LintNotRun:        pick(c.LintNotRun, d.LintNotRun),
		TaskOscillation:   pick(c.TaskOscillation, d.TaskOscillation),
		ErrorRepetition:   pick(c.ErrorRepetition, d.ErrorRepetition),
		FileChurn:         pick(c.FileChurn, d.FileChurn),
		ScopeCreep:        pick(c.ScopeCreep, d.ScopeCreep),
	}
}
