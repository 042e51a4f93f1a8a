package codescan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"steer/internal/types"
)

// Rule identifiers reported in CodeWarning.Rule.
const (
	RulePanic           = "panic"
	RuleUnwrap          = "unwrap"
	RuleUnimplemented   = "unimplemented"
	RuleLintSuppression = "lint-suppression"
	RuleBareExcept      = "bare-except"
	RuleIgnoredError    = "ignored-error"
	RuleConsoleLog      = "console-log"
	RuleDebugger        = "debugger"
)

type finding struct {
	rule     string
	message  string
	severity types.AntiPatternSeverity
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// =============================================================================
// GO
// =============================================================================

func visitGo(n *sitter.Node, src []byte) *finding {
	switch n.Type() {
	case "call_expression":
		if text(n.ChildByFieldName("function"), src) == "panic" {
			return &finding{RulePanic, "panic in library code; return an error instead", types.SeverityMedium}
		}
	case "short_var_declaration", "assignment_statement":
		if discardsCallResult(n, src) {
			return &finding{RuleIgnoredError, "call result discarded with _; handle the error", types.SeverityLow}
		}
	case "comment":
		if strings.Contains(text(n, src), "nolint") {
			return &finding{RuleLintSuppression, "//nolint suppresses linter findings", types.SeverityMedium}
		}
	}
	return nil
}

// discardsCallResult matches `_ = f()` and `v, _ := f()`.
func discardsCallResult(n *sitter.Node, src []byte) bool {
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if left == nil || right == nil || left.NamedChildCount() == 0 || right.NamedChildCount() != 1 {
		return false
	}
	last := left.NamedChild(int(left.NamedChildCount()) - 1)
	if text(last, src) != "_" {
		return false
	}
	return right.NamedChild(0).Type() == "call_expression"
}

// =============================================================================
// RUST
// =============================================================================

func visitRust(n *sitter.Node, src []byte) *finding {
	switch n.Type() {
	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "field_expression" {
			return nil
		}
		switch text(fn.ChildByFieldName("field"), src) {
		case "unwrap":
			return &finding{RuleUnwrap, ".unwrap() panics on None/Err; propagate with ?", types.SeverityMedium}
		case "expect":
			return &finding{RuleUnwrap, ".expect() panics on None/Err; propagate with ?", types.SeverityMedium}
		}
	case "macro_invocation":
		switch text(n.ChildByFieldName("macro"), src) {
		case "panic":
			return &finding{RulePanic, "panic! aborts the caller; return a Result", types.SeverityMedium}
		case "todo", "unimplemented":
			return &finding{RuleUnimplemented, "placeholder macro left in code", types.SeverityHigh}
		}
	case "attribute_item", "inner_attribute_item":
		if strings.Contains(text(n, src), "allow(") {
			return &finding{RuleLintSuppression, "#[allow(...)] suppresses lints; fix the warning", types.SeverityMedium}
		}
	}
	return nil
}

// =============================================================================
// PYTHON
// =============================================================================

func visitPython(n *sitter.Node, src []byte) *finding {
	switch n.Type() {
	case "except_clause":
		// A bare clause has the block as its only named child.
		if n.NamedChildCount() == 1 && n.NamedChild(0).Type() == "block" {
			return &finding{RuleBareExcept, "bare except swallows every exception; name the type", types.SeverityMedium}
		}
	case "comment":
		c := text(n, src)
		if strings.Contains(c, "noqa") || strings.Contains(c, "type: ignore") {
			return &finding{RuleLintSuppression, "inline suppression comment hides checker findings", types.SeverityMedium}
		}
	}
	return nil
}

// =============================================================================
// JAVASCRIPT / TYPESCRIPT
// =============================================================================

func visitJS(n *sitter.Node, src []byte) *finding {
	switch n.Type() {
	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "member_expression" {
			return nil
		}
		if text(fn.ChildByFieldName("object"), src) != "console" {
			return nil
		}
		switch text(fn.ChildByFieldName("property"), src) {
		case "log", "debug", "trace":
			return &finding{RuleConsoleLog, "console logging left in code", types.SeverityLow}
		}
	case "debugger_statement":
		return &finding{RuleDebugger, "debugger statement left in code", types.SeverityHigh}
	case "comment":
		c := text(n, src)
		if strings.Contains(c, "eslint-disable") || strings.Contains(c, "@ts-ignore") {
			return &finding{RuleLintSuppression, "inline suppression comment hides checker findings", types.SeverityMedium}
		}
	}
	return nil
}
