package codelang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name     string
		language string
		want     string
	}{
		{"javascript", "JavaScript", ".js"},
		{"java", "Java", ".java"},
		{"cpp", "C++", ".cpp"},
		{"csharp", "C#", ".cs"},
		{"python lower case", "python", ".py"},
		{"keyword followed by version", "Java 17", ".java"},
		{"keyword inside a sentence", "written in Python 3", ".py"},
		{"trailing whitespace", "c#  ", ".cs"},
		{"empty means unknown", "", DefaultExtension},
		{"blank means unknown", "   ", DefaultExtension},
		{"trailing non-space must not match", "javascripting", DefaultExtension},
		{"java prefix of other word", "javaX", DefaultExtension},
		{"unknown language", "Haskell", DefaultExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFor(tt.language))
		})
	}
}

// Every rule must match its own keyword and no other rule may match it, so
// the order of the rule list never decides the result on these inputs.
func TestRulesAreMutuallyExclusive(t *testing.T) {
	inputs := map[string]string{
		"javascript": ".js",
		"java":       ".java",
		"python":     ".py",
		"c++":        ".cpp",
		"c#":         ".cs",
	}

	for input, want := range inputs {
		var matched []string
		for _, r := range rules {
			if r.pattern.MatchString(input) {
				matched = append(matched, r.extension)
			}
		}
		assert.Equal(t, []string{want}, matched, "input %q", input)
	}
}

func TestNew(t *testing.T) {
	lang := New("  TypeScript ")
	assert.Equal(t, "TypeScript", lang.Language)
	assert.Equal(t, DefaultExtension, lang.FileExtension)

	lang = New("C++")
	assert.Equal(t, ".cpp", lang.FileExtension)
}
