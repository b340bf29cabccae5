package sandbox

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	// strict marks an equality operator spelled "===" or "!==" in the source.
	strict bool
}

// Longest first.
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.", "..", "**",
}

// tokenize splits a script into a lossless token stream: concatenating the
// token texts yields the input again.
func tokenize(src string) ([]token, error) {
	var out []token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		start := i
		switch {
		case unicode.IsSpace(r):
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			out = append(out, token{kind: tokSpace, text: string(runes[start:i])})
		case isIdentStart(r):
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			out = append(out, token{kind: tokIdent, text: string(runes[start:i])})
		case unicode.IsDigit(r):
			for i < len(runes) && (isIdentPart(runes[i]) || (runes[i] == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]))) {
				i++
			}
			out = append(out, token{kind: tokNumber, text: string(runes[start:i])})
		case r == '"' || r == '\'' || r == '`':
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && r != '`' {
					i += 2
					continue
				}
				if runes[i] == r {
					i++
					closed = true
					break
				}
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal at offset %d", start)
			}
			out = append(out, token{kind: tokString, text: string(runes[start:i])})
		default:
			text := string(r)
			rest := string(runes[i:])
			for _, p := range punctuators {
				if strings.HasPrefix(rest, p) {
					text = p
					break
				}
			}
			i += len([]rune(text))
			out = append(out, token{kind: tokPunct, text: text})
		}
	}
	return out, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// neighbor returns the closest non-space token before (dir=-1) or after
// (dir=1) position i.
func neighbor(tokens []token, i, dir int) token {
	for j := i + dir; j >= 0 && j < len(tokens); j += dir {
		if tokens[j].kind != tokSpace {
			return tokens[j]
		}
	}
	return token{}
}

func trimSpace(tokens []token) []token {
	for len(tokens) > 0 && tokens[0].kind == tokSpace {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].kind == tokSpace {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// program accumulates normalized statements and the rune offsets of strict
// equality operators, which is where the expression parser locates them.
type program struct {
	b      strings.Builder
	runes  int
	strict map[int]bool
}

func (p *program) write(tokens []token) {
	for _, t := range tokens {
		if t.strict {
			if p.strict == nil {
				p.strict = make(map[int]bool)
			}
			p.strict[p.runes] = true
		}
		p.b.WriteString(t.text)
		p.runes += utf8.RuneCountInString(t.text)
	}
}

func (p *program) String() string {
	return p.b.String()
}

// splitStatements splits on ';' outside of brackets. Empty statements are dropped.
func splitStatements(tokens []token) [][]token {
	var (
		out   [][]token
		cur   []token
		depth int
	)
	flush := func() {
		if stmt := trimSpace(cur); len(stmt) > 0 {
			out = append(out, stmt)
		}
		cur = nil
	}
	for _, t := range tokens {
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ";":
				if depth == 0 {
					flush()
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	flush()
	return out
}
