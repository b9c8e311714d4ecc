package parser

import (
	"regexp"
	"strings"
)

var blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)
var lineCommentRe = regexp.MustCompile(`//[^\n]*`)
var tokenRe = regexp.MustCompile(`[A-Za-z_]\w*|0[xX][0-9A-Fa-f]+[uUlL]*|\d+[uUlL]*|'(?:\\.|[^'\\])+'|"(?:\\.|[^"\\])*"|\.\.\.|<<|>>|\S`)

var cplusplusRe = regexp.MustCompile(`^#\s*(?:ifdef\s+__cplusplus|if\s+defined\s*\(?\s*__cplusplus)`)
var condOpenRe = regexp.MustCompile(`^#\s*if`)
var condElseRe = regexp.MustCompile(`^#\s*(?:else|elif)`)
var condCloseRe = regexp.MustCompile(`^#\s*endif`)

// removeComments blanks out comments but keeps their line breaks so token
// lines still match the input.
func removeComments(s string) string {
	s = blockCommentRe.ReplaceAllStringFunc(s, func(m string) string {
		return " " + strings.Repeat("\n", strings.Count(m, "\n"))
	})
	s = lineCommentRe.ReplaceAllString(s, "")

	return s
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return s
}

// removeDirectives blanks every preprocessor line, including continuations.
// Lines inside an #ifdef __cplusplus block are dropped too; both branches of
// any other conditional are kept.
func removeDirectives(s string) string {
	lines := strings.Split(s, "\n")

	var stack []bool
	inCxx := func() bool {
		for _, cxx := range stack {
			if cxx {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "#") {
			if inCxx() {
				lines[i] = ""
			}
			continue
		}

		for strings.HasSuffix(strings.TrimRight(lines[i], " \t"), `\`) && i+1 < len(lines) {
			lines[i] = ""
			i++
		}
		lines[i] = ""

		switch {
		case cplusplusRe.MatchString(line):
			stack = append(stack, true)
		case condOpenRe.MatchString(line):
			stack = append(stack, false)
		case condElseRe.MatchString(line):
			if len(stack) > 0 {
				stack[len(stack)-1] = false
			}
		case condCloseRe.MatchString(line):
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return strings.Join(lines, "\n")
}

func tokenize(s string) []token {
	var toks []token

	line, last := 1, 0
	for _, loc := range tokenRe.FindAllStringIndex(s, -1) {
		line += strings.Count(s[last:loc[0]], "\n")
		last = loc[0]
		toks = append(toks, token{text: s[loc[0]:loc[1]], line: line})
	}

	return toks
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
