package lang

import (
	"regexp"
	"strings"
)

var (
	jsFuncRe      = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)
	jsClassRe     = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	jsArrowRe     = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][A-Za-z0-9_$]*)\s*(?::\s*\S[^=]*)?=>`)
	tsInterfaceRe = regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	tsTypeRe      = regexp.MustCompile(`^(?:export\s+)?type\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?:<[^>]*>)?\s*=`)
	tsEnumRe      = regexp.MustCompile(`^(?:export\s+)?(?:const\s+)?enum\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
)

func parseJavaScript(content string) []Symbol {
	lines := strings.Split(content, "\n")
	var symbols []Symbol

	add := func(name, kind string, n int, line string) {
		symbols = append(symbols, Symbol{
			Name: name, Kind: kind, StartLine: n, Signature: signatureOf(line),
		})
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		n := i + 1
		switch {
		case jsClassRe.MatchString(line):
			add(jsClassRe.FindStringSubmatch(line)[1], KindClass, n, line)
		case tsEnumRe.MatchString(line):
			add(tsEnumRe.FindStringSubmatch(line)[1], KindEnum, n, line)
		case tsInterfaceRe.MatchString(line):
			add(tsInterfaceRe.FindStringSubmatch(line)[1], KindInterface, n, line)
		case tsTypeRe.MatchString(line):
			add(tsTypeRe.FindStringSubmatch(line)[1], KindType, n, line)
		case jsFuncRe.MatchString(line):
			add(jsFuncRe.FindStringSubmatch(line)[1], KindFunction, n, line)
		case jsArrowRe.MatchString(line):
			add(jsArrowRe.FindStringSubmatch(line)[1], KindFunction, n, line)
		}
	}

	return closeOpenSymbols(symbols, len(lines))
}
