// Package codelang maps free-text programming language names to file extensions.
package codelang

import (
	"regexp"
	"strings"

	"github.com/sakif/game-idea-generator/internal/model"
)

// DefaultExtension is used when the name is empty or no rule matches.
const DefaultExtension = ".txt"

// rule matches a language keyword anywhere in the input, case-insensitively,
// as long as the keyword is followed by whitespace or the end of the input.
// "java" therefore matches "Java 17" but neither "javascript" nor "javaX".
type rule struct {
	pattern   *regexp.Regexp
	extension string
}

func newRule(keyword, extension string) rule {
	return rule{
		pattern:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword) + `(?:\s|$)`),
		extension: extension,
	}
}

// rules are evaluated in order and the first match wins. The keywords are
// chosen so that no realistic name matches two of them; codelang_test.go
// checks that property for every rule.
var rules = []rule{
	newRule("javascript", ".js"),
	newRule("java", ".java"),
	newRule("python", ".py"),
	newRule("c++", ".cpp"),
	newRule("c#", ".cs"),
}

// ExtensionFor returns the file extension for a language name.
func ExtensionFor(language string) string {
	if strings.TrimSpace(language) == "" {
		return DefaultExtension
	}
	for _, r := range rules {
		if r.pattern.MatchString(language) {
			return r.extension
		}
	}
	return DefaultExtension
}

// New builds a CodeLanguage with its extension computed once, up front.
func New(language string) model.CodeLanguage {
	language = strings.TrimSpace(language)
	return model.CodeLanguage{
		Language:      language,
		FileExtension: ExtensionFor(language),
	}
}
