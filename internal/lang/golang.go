package lang

import (
	"regexp"
	"strings"
)

var (
	goFuncRe   = regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)\s*[(\[]`)
	goMethodRe = regexp.MustCompile(`^func\s+\([^)]+\)\s+([A-Za-z_][A-Za-z0-9_]*)\s*[(\[]`)
	goTypeRe   = regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)(\[[^\]]*\])?\s+(\S+)`)
)

func parseGo(content string) []Symbol {
	lines := strings.Split(content, "\n")
	var symbols []Symbol

	for i, line := range lines {
		n := i + 1
		switch {
		case goMethodRe.MatchString(line):
			m := goMethodRe.FindStringSubmatch(line)
			symbols = append(symbols, Symbol{
				Name: m[1], Kind: KindMethod, StartLine: n, Signature: signatureOf(line),
			})
		case goFuncRe.MatchString(line):
			m := goFuncRe.FindStringSubmatch(line)
			symbols = append(symbols, Symbol{
				Name: m[1], Kind: KindFunction, StartLine: n, Signature: signatureOf(line),
			})
		case goTypeRe.MatchString(line):
			m := goTypeRe.FindStringSubmatch(line)
			kind := KindType
			switch {
			case strings.HasPrefix(m[3], "struct"):
				kind = KindStruct
			case strings.HasPrefix(m[3], "interface"):
				kind = KindInterface
			}
			symbols = append(symbols, Symbol{
				Name: m[1], Kind: kind, StartLine: n, Signature: signatureOf(line),
			})
		}
	}

	return closeOpenSymbols(symbols, len(lines))
}
