package prompt

import (
	"fmt"
	"strings"

	"steer/internal/types"
)

// RenderAntiPatterns renders detected anti-patterns in the order given.
func RenderAntiPatterns(patterns []types.AntiPattern) string {
	if len(patterns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Detected Anti-Patterns\n\n")
	for _, p := range patterns {
		fmt.Fprintf(&sb, "### [%s] %s", strings.ToUpper(p.Severity.String()), p.Kind.Title())
		if p.PersistenceCount > 1 {
			fmt.Fprintf(&sb, " (detected %d times in a row)", p.PersistenceCount)
		}
		sb.WriteString("\n")
		if p.Description != "" {
			fmt.Fprintf(&sb, "%s\n", p.Description)
		}
		for _, e := range p.Evidence {
			fmt.Fprintf(&sb, "- %s\n", oneLine(e))
		}
		if p.Remediation != "" {
			fmt.Fprintf(&sb, "\n**Remediation:** %s\n", p.Remediation)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderLanguageRules renders rule bullets for language.
func RenderLanguageRules(language string, rules []string) string {
	if len(rules) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Language Rules\n\n")
	if language != "" {
		fmt.Fprintf(&sb, "Project language: %s\n\n", language)
	}
	for _, r := range rules {
		fmt.Fprintf(&sb, "- %s\n", r)
	}
	return sb.String()
}

// RenderCodeWarnings renders source-level findings from a scanner.
func RenderCodeWarnings(warnings []types.CodeWarning) string {
	if len(warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Code Anti-Pattern Warnings\n\n")
	for i, w := range warnings {
		if i == maxCodeWarnings {
			fmt.Fprintf(&sb, "- ...and %d more\n", len(warnings)-maxCodeWarnings)
			break
		}
		fmt.Fprintf(&sb, "- **%s** `%s` (%s): %s\n", w.Rule, w.Location(), w.Severity, oneLine(w.Message))
	}
	return sb.String()
}

// RenderCodeIntelligence renders the code-graph bundle. Unavailable or empty
// bundles render nothing.
func RenderCodeIntelligence(ci types.CodeIntelligence) string {
	if !ci.IsAvailable || ci.IsEmpty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Code Intelligence\n\n")
	if ci.Source != "" {
		fmt.Fprintf(&sb, "Source: %s\n\n", ci.Source)
	}

	if len(ci.CallGraph) > 0 {
		sb.WriteString("### Call Graph\n")
		for i, n := range ci.CallGraph {
			if i == maxIntelItems {
				break
			}
			fmt.Fprintf(&sb, "- `%s`", n.Symbol)
			if loc := location(n.File, n.Line); loc != "" {
				fmt.Fprintf(&sb, " (%s)", loc)
			}
			sb.WriteString("\n")
			if len(n.Callers) > 0 {
				fmt.Fprintf(&sb, "  - called by: %s\n", joinLimited(n.Callers, maxListedFiles))
			}
			if len(n.Callees) > 0 {
				fmt.Fprintf(&sb, "  - calls: %s\n", joinLimited(n.Callees, maxListedFiles))
			}
		}
		sb.WriteString("\n")
	}

	if len(ci.References) > 0 {
		sb.WriteString("### References\n")
		for i, r := range ci.References {
			if i == maxIntelItems {
				fmt.Fprintf(&sb, "- ...and %d more\n", len(ci.References)-maxIntelItems)
				break
			}
			kind := r.Kind
			if kind == "" {
				kind = "reference"
			}
			fmt.Fprintf(&sb, "- `%s` %s at `%s`\n", r.Symbol, kind, location(r.File, r.Line))
		}
		sb.WriteString("\n")
	}

	if len(ci.Dependencies) > 0 {
		sb.WriteString("### Module Dependencies\n")
		for i, d := range ci.Dependencies {
			if i == maxIntelItems {
				break
			}
			fmt.Fprintf(&sb, "- %s -> %s", d.From, d.To)
			if d.Circular {
				sb.WriteString(" (circular)")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(ci.Compliance) > 0 {
		sb.WriteString("### Constraint Checks\n")
		for _, c := range ci.Compliance {
			if c.Passed {
				fmt.Fprintf(&sb, "- [PASS] %s\n", c.Constraint)
				continue
			}
			fmt.Fprintf(&sb, "- [FAIL] %s\n", c.Constraint)
			for _, v := range c.Violations {
				fmt.Fprintf(&sb, "  - %s\n", oneLine(v))
			}
		}
	}
	return sb.String()
}

func location(file string, line int) string {
	if file == "" {
		return ""
	}
	if line > 0 {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return file
}
