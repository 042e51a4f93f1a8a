package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLanguagesParse(t *testing.T) {
	all, err := parseLanguages(languagesYAML)
	require.NoError(t, err)
	for _, name := range []string{"rust", "go", "python", "javascript"} {
		lr, ok := all[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, lr.Rules, name)
		assert.NotEmpty(t, lr.Extensions, name)
	}
}

func TestLookupLanguage(t *testing.T) {
	lr, ok := LookupLanguage("TS")
	require.True(t, ok)
	assert.Equal(t, "javascript", lr.Name)

	assert.NotEmpty(t, RulesFor("rust"))
	assert.Nil(t, RulesFor("cobol"))
	assert.Contains(t, KnownLanguages(), "go")
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "rust", DetectLanguage([]string{"src/lib.rs", "src/main.rs", "build.py"}))
	assert.Equal(t, "go", DetectLanguage([]string{"main.go"}))
	assert.Equal(t, "", DetectLanguage([]string{"README.md"}))
	assert.Equal(t, "", DetectLanguage(nil))
}
