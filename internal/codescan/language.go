// Package codescan finds source-level anti-patterns with tree-sitter and
// reports them as types.CodeWarning for the prompt's warnings section.
package codescan

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is a grammar the scanner knows.
type Language string

const (
	LangUnknown    Language = ""
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
)

var extensions = map[string]Language{
	".go":  LangGo,
	".rs":  LangRust,
	".py":  LangPython,
	".pyi": LangPython,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
}

// DetectLanguage maps a file path to a language by extension.
func DetectLanguage(path string) Language {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether path has a scannable extension.
func Supported(path string) bool {
	return DetectLanguage(path) != LangUnknown
}

func (l Language) grammar() *sitter.Language {
	switch l {
	case LangGo:
		return golang.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	default:
		return nil
	}
}

// visitor inspects one node and returns a finding, or nil.
type visitor func(n *sitter.Node, src []byte) *finding

func (l Language) visitor() visitor {
	switch l {
	case LangGo:
		return visitGo
	case LangRust:
		return visitRust
	case LangPython:
		return visitPython
	case LangJavaScript, LangTypeScript:
		return visitJS
	default:
		return nil
	}
}
