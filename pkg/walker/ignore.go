package walker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// 📜 rule is one gitignore pattern, scoped to the directory whose .gitignore
// declared it.
type rule struct {
	base    string
	pattern string
	negate  bool
	dirOnly bool
}

// 🔍 matches checks rel (slash-separated, relative to the rule's base
// directory) against the pattern using gitignore anchoring rules: a pattern
// without a slash matches at any depth, a pattern with one is anchored.
func (r rule) matches(rel string) bool {
	pat := r.pattern
	if strings.Contains(pat, "/") {
		pat = strings.TrimPrefix(pat, "/")
	} else {
		pat = "**/" + pat
	}

	if matched, err := doublestar.Match(pat, rel); err == nil && matched {
		return true
	}
	// a matched directory ignores everything beneath it
	if matched, err := doublestar.Match(pat+"/**", rel); err == nil && matched {
		return true
	}
	return false
}

// 📥 loadIgnoreFile parses dir/.gitignore into rules. A missing or unreadable
// file simply contributes no rules.
func loadIgnoreFile(dir string) []rule {
	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}

	var rules []rule
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r := rule{base: dir}
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = strings.TrimPrefix(line, "!")
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		r.pattern = line
		rules = append(rules, r)
	}
	return rules
}
