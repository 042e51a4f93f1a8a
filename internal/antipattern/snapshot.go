package antipattern

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"steer/internal/types"
)

// minQualityFailures is the streak at which failing gates count as ignored.
const minQualityFailures = 3

// DetectQualityGateIgnoring fires when the failure streak has reached three and
// the status has at least one checked, failing gate. It holds no state.
func DetectQualityGateIgnoring(status types.QualityGateStatus, consecutiveFailures int) (types.AntiPattern, bool) {
	if consecutiveFailures < minQualityFailures {
		return types.AntiPattern{}, false
	}
	failing := status.FailingGates()
	if len(failing) == 0 {
		return types.AntiPattern{}, false
	}

	names := make([]string, 0, len(failing))
	for _, g := range failing {
		names = append(names, g.String())
	}
	p := types.NewAntiPattern(types.KindIgnoringQualityGates,
		fmt.Sprintf("Quality gates have failed %d consecutive times.", consecutiveFailures)).
		WithEvidence("Failing gates: " + strings.Join(names, ", ")).
		WithSeverity(types.SeverityHigh)
	for _, g := range failing {
		if msgs := status.Result(g).Messages; len(msgs) > 0 {
			p = p.WithEvidence(fmt.Sprintf("%s: %s", g, msgs[0]))
		}
	}
	return p, true
}

// DetectScopeCreep fires when at least threshold distinct files across at least
// threshold distinct parent directories were modified.
func DetectScopeCreep(files []string, threshold int) (types.AntiPattern, bool) {
	if threshold <= 0 {
		threshold = DefaultConfig().ScopeCreep
	}
	unique := uniqueStrings(files)
	if len(unique) < threshold {
		return types.AntiPattern{}, false
	}

	var dirs []string
	for _, f := range unique {
		dirs = appendUniqueAll(dirs, []string{parentDir(f)})
	}
	if len(dirs) < threshold {
		return types.AntiPattern{}, false
	}

	p := types.NewAntiPattern(types.KindScopeCreep,
		fmt.Sprintf("%d files modified across %d directories.", len(unique), len(dirs))).
		WithEvidence(dirs...).
		WithSeverity(types.SeverityMedium)
	return p, true
}

func parentDir(file string) string {
	return path.Dir(filepath.ToSlash(file))
}
