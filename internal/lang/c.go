package lang

import (
	"regexp"
	"strings"
)

var (
	cStructRe  = regexp.MustCompile(`^\s*(?:typedef\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`)
	cEnumRe    = regexp.MustCompile(`^\s*(?:typedef\s+)?enum\s+([A-Za-z_][A-Za-z0-9_]*)`)
	cClassRe   = regexp.MustCompile(`^\s*(?:template\s*<[^>]*>\s*)?class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	cTypedefRe = regexp.MustCompile(`^\s*typedef\s+.*\b([A-Za-z_][A-Za-z0-9_]*)\s*;`)

	// A function definition: return type, name, parameter list, and an
	// opening brace on the same or following line. Keeps control-flow
	// keywords out.
	cFuncRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_*\s:<>,&]*?\b([A-Za-z_][A-Za-z0-9_]*)\s*\([^;]*\)\s*(?:const\s*)?\{?\s*$`)

	cKeywords = map[string]bool{
		"if": true, "else": true, "for": true, "while": true, "switch": true,
		"return": true, "sizeof": true, "do": true, "case": true,
	}
)

func parseC(content string) []Symbol {
	lines := strings.Split(content, "\n")
	var symbols []Symbol
	depth := 0

	for i, line := range lines {
		n := i + 1
		switch {
		case cClassRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: cClassRe.FindStringSubmatch(line)[1], Kind: KindClass,
				StartLine: n, Signature: signatureOf(line),
			})
		case cStructRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: cStructRe.FindStringSubmatch(line)[1], Kind: KindStruct,
				StartLine: n, Signature: signatureOf(line),
			})
		case cEnumRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: cEnumRe.FindStringSubmatch(line)[1], Kind: KindEnum,
				StartLine: n, Signature: signatureOf(line),
			})
		case cTypedefRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: cTypedefRe.FindStringSubmatch(line)[1], Kind: KindType,
				StartLine: n, Signature: signatureOf(line),
			})
		case depth == 0 && cFuncRe.MatchString(line):
			name := cFuncRe.FindStringSubmatch(line)[1]
			if !cKeywords[name] && !strings.HasPrefix(strings.TrimSpace(line), "#") {
				symbols = append(symbols, Symbol{
					Name: name, Kind: KindFunction,
					StartLine: n, Signature: signatureOf(line),
				})
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
	}

	return closeOpenSymbols(symbols, len(lines))
}
