// Package lang maps file extensions to best-effort symbol parsers.
//
// Parsers are line scanners, not full grammars: they recognize top-level
// declarations well enough to build a navigable symbol index. A parser
// never fails — input it cannot make sense of yields zero symbols.
package lang

import (
	"path/filepath"
	"strings"
)

// Symbol is one declaration found in a source file.
type Symbol struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Signature string
}

// Symbol kinds.
const (
	KindFunction  = "function"
	KindMethod    = "method"
	KindClass     = "class"
	KindStruct    = "struct"
	KindInterface = "interface"
	KindEnum      = "enum"
	KindTrait     = "trait"
	KindType      = "type"
)

// Language is one supported language: a name and its parser.
type Language struct {
	Name  string
	Parse func(content string) []Symbol
}

var byExtension = map[string]*Language{
	".go":  {Name: "go", Parse: parseGo},
	".py":  {Name: "python", Parse: parsePython},
	".pyi": {Name: "python", Parse: parsePython},
	".js":  {Name: "javascript", Parse: parseJavaScript},
	".mjs": {Name: "javascript", Parse: parseJavaScript},
	".cjs": {Name: "javascript", Parse: parseJavaScript},
	".jsx": {Name: "javascript", Parse: parseJavaScript},
	".ts":  {Name: "typescript", Parse: parseJavaScript},
	".mts": {Name: "typescript", Parse: parseJavaScript},
	".cts": {Name: "typescript", Parse: parseJavaScript},
	".tsx": {Name: "typescript", Parse: parseJavaScript},
	".rs":  {Name: "rust", Parse: parseRust},
	".c":   {Name: "c", Parse: parseC},
	".h":   {Name: "c", Parse: parseC},
	".cpp": {Name: "cpp", Parse: parseC},
	".cc":  {Name: "cpp", Parse: parseC},
	".cxx": {Name: "cpp", Parse: parseC},
	".hpp": {Name: "cpp", Parse: parseC},
	".hh":  {Name: "cpp", Parse: parseC},
	".hxx": {Name: "cpp", Parse: parseC},
}

// ForPath returns the language for a file path, or nil if the extension
// is not supported.
func ForPath(path string) *Language {
	return byExtension[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether a file path has a recognized extension.
func Supported(path string) bool {
	return ForPath(path) != nil
}

// closeOpenSymbols assigns end lines: each symbol runs until the line
// before the next symbol at the same or shallower nesting, the last one
// until the end of the file.
func closeOpenSymbols(symbols []Symbol, totalLines int) []Symbol {
	for i := range symbols {
		end := totalLines
		for j := i + 1; j < len(symbols); j++ {
			if symbols[j].StartLine > symbols[i].StartLine {
				end = symbols[j].StartLine - 1
				break
			}
		}
		if end < symbols[i].StartLine {
			end = symbols[i].StartLine
		}
		symbols[i].EndLine = end
	}
	return symbols
}

func signatureOf(line string) string {
	sig := strings.TrimSpace(line)
	sig = strings.TrimSuffix(sig, "{")
	return strings.TrimSpace(sig)
}
