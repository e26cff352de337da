package lang

import (
	"regexp"
	"strings"
)

var (
	rsFnRe     = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rsStructRe = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rsEnumRe   = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rsTraitRe  = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rsImplRe   = regexp.MustCompile(`^\s*impl\b`)
)

func parseRust(content string) []Symbol {
	lines := strings.Split(content, "\n")
	var symbols []Symbol
	inImpl := false
	implDepth := 0
	depth := 0

	for i, line := range lines {
		n := i + 1
		switch {
		case rsStructRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: rsStructRe.FindStringSubmatch(line)[1], Kind: KindStruct,
				StartLine: n, Signature: signatureOf(line),
			})
		case rsEnumRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: rsEnumRe.FindStringSubmatch(line)[1], Kind: KindEnum,
				StartLine: n, Signature: signatureOf(line),
			})
		case rsTraitRe.MatchString(line):
			symbols = append(symbols, Symbol{
				Name: rsTraitRe.FindStringSubmatch(line)[1], Kind: KindTrait,
				StartLine: n, Signature: signatureOf(line),
			})
		case rsFnRe.MatchString(line):
			kind := KindFunction
			if inImpl && depth > implDepth {
				kind = KindMethod
			}
			symbols = append(symbols, Symbol{
				Name: rsFnRe.FindStringSubmatch(line)[1], Kind: kind,
				StartLine: n, Signature: signatureOf(line),
			})
		case rsImplRe.MatchString(line):
			inImpl = true
			implDepth = depth
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if inImpl && depth <= implDepth {
			inImpl = false
		}
	}

	return closeOpenSymbols(symbols, len(lines))
}
