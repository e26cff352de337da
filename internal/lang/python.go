package lang

import (
	"regexp"
	"strings"
)

var (
	pyDefRe   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	pyClassRe = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_][A-Za-z0-9_]*)\s*[(:]?`)
)

func parsePython(content string) []Symbol {
	lines := strings.Split(content, "\n")
	var symbols []Symbol
	inClass := false
	classIndent := 0

	for i, line := range lines {
		n := i + 1
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			inClass = true
			classIndent = len(m[1])
			symbols = append(symbols, Symbol{
				Name: m[2], Kind: KindClass, StartLine: n, Signature: signatureOf(line),
			})
			continue
		}
		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			kind := KindFunction
			if inClass && indent > classIndent {
				kind = KindMethod
			} else {
				inClass = false
			}
			symbols = append(symbols, Symbol{
				Name: m[2], Kind: kind, StartLine: n, Signature: signatureOf(line),
			})
			continue
		}
		// Any other statement back at top level leaves the class scope.
		trimmed := strings.TrimSpace(line)
		if inClass && trimmed != "" && !strings.HasPrefix(trimmed, "#") &&
			len(line)-len(strings.TrimLeft(line, " \t")) <= classIndent {
			inClass = false
		}
	}

	return closeOpenSymbols(symbols, len(lines))
}
