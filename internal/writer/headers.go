package writer

import (
	"path"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
)

const headerRuleWidth = 74

// lineComments maps extensions to their line comment prefix
var lineComments = map[string]string{
	".go": "//", ".js": "//", ".jsx": "//", ".ts": "//", ".tsx": "//",
	".c": "//", ".h": "//", ".cc": "//", ".cpp": "//", ".hpp": "//",
	".java": "//", ".kt": "//", ".rs": "//", ".swift": "//", ".cs": "//",
	".scala": "//", ".dart": "//", ".php": "//",
	".sql": "--", ".lua": "--", ".hs": "--",
	".vim": "\"",
	".el":  ";;", ".clj": ";;", ".lisp": ";;",
	".bat": "REM", ".cmd": "REM",
}

// noComments lists extensions whose syntax has no line comments
var noComments = map[string]bool{
	".json": true, ".md": true, ".markdown": true, ".html": true, ".htm": true,
	".xml": true, ".svg": true, ".css": true, ".csv": true, ".txt": true,
	".rst": true, ".ipynb": true,
}

// commentPrefix returns the line comment prefix for a bundle path. Paths
// without a known comment syntax fall back to "#".
func commentPrefix(p string) (string, bool) {
	ext := strings.ToLower(path.Ext(p))
	if noComments[ext] {
		return "", false
	}
	if prefix, ok := lineComments[ext]; ok {
		return prefix, true
	}
	return "#", true
}

// Header returns the provenance header prepended to text files when headers
// are enabled, using the entry's own line break. It is empty for paths
// whose format has no line comments.
func Header(e domain.Entry) string {
	prefix, ok := commentPrefix(e.Path)
	if !ok {
		return ""
	}
	nl := lineBreak(e.EOL)
	rule := prefix + " " + strings.Repeat("=", headerRuleWidth)
	return rule + nl + prefix + " FILE: " + e.Path + nl + rule + nl
}

func lineBreak(eol domain.EOLStyle) string {
	switch eol {
	case domain.EOLCRLF:
		return "\r\n"
	case domain.EOLCR:
		return "\r"
	default:
		return "\n"
	}
}
