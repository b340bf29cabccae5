package sandbox

import (
	"fmt"
	"slices"
)

// forbidden lists identifiers that give scripts a handle on dynamic code
// generation, host globals, module loading, deletion, self-reference or timers.
// Matching is token based, so it cannot see names assembled from strings; the
// grammar whitelist enforced after parsing is what actually contains scripts.
var forbidden = map[string]bool{
	"eval":           true,
	"Function":       true,
	"constructor":    true,
	"prototype":      true,
	"__proto__":      true,
	"window":         true,
	"document":       true,
	"globalThis":     true,
	"global":         true,
	"process":        true,
	"require":        true,
	"import":         true,
	"module":         true,
	"exports":        true,
	"delete":         true,
	"new":            true,
	"this":           true,
	"self":           true,
	"setTimeout":     true,
	"setInterval":    true,
	"setImmediate":   true,
	"fetch":          true,
	"XMLHttpRequest": true,
}

// Forbidden returns the denylisted identifiers in sorted order.
func Forbidden() []string {
	out := make([]string, 0, len(forbidden))
	for name := range forbidden {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// containment reports the first denylisted identifier, outside string literals.
func containment(tokens []token) error {
	for _, t := range tokens {
		if t.kind == tokIdent && forbidden[t.text] {
			return fmt.Errorf("%w: %q is not allowed", ErrForbidden, t.text)
		}
	}
	return nil
}

// normalize turns a script into a single expr program. A lone expression may
// carry a leading "return"; multi-statement scripts are let bindings followed
// by a return statement.
func normalize(tokens []token) (*program, error) {
	statements := splitStatements(rewrite(tokens))
	out := &program{}
	switch len(statements) {
	case 0:
		return nil, fmt.Errorf("%w: empty script", ErrSyntax)
	case 1:
		stmt := statements[0]
		if isKeyword(stmt[0], "return") {
			stmt = trimSpace(stmt[1:])
		}
		if len(stmt) == 0 {
			return nil, fmt.Errorf("%w: return without a value", ErrSyntax)
		}
		out.write(stmt)
		return out, nil
	}

	last := len(statements) - 1
	for i, stmt := range statements {
		if i < last {
			if !isKeyword(stmt[0], "let") {
				return nil, fmt.Errorf("%w: statement %d must be a variable binding", ErrSyntax, i+1)
			}
			out.write(stmt)
			out.write([]token{{kind: tokPunct, text: "; "}})
			continue
		}
		if !isKeyword(stmt[0], "return") {
			return nil, fmt.Errorf("%w: multi-statement scripts must end with a return statement", ErrSyntax)
		}
		ret := trimSpace(stmt[1:])
		if len(ret) == 0 {
			return nil, fmt.Errorf("%w: return without a value", ErrSyntax)
		}
		out.write(ret)
	}
	return out, nil
}

// rewrite maps JavaScript spellings onto the expression grammar.
func rewrite(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		prev := neighbor(tokens, i, -1)
		afterDot := prev.kind == tokPunct && (prev.text == "." || prev.text == "?.")

		switch {
		case t.kind == tokPunct && t.text == "===":
			t.text = "=="
			t.strict = true
		case t.kind == tokPunct && t.text == "!==":
			t.text = "!="
			t.strict = true
		case t.kind != tokIdent || afterDot:
		case t.text == "null" || t.text == "undefined":
			t.text = "nil"
		case t.text == "const" || t.text == "var":
			t.text = "let"
		case t.text == "Math":
			if name, skip := mathCall(tokens, i); name != "" {
				out = append(out, token{kind: tokIdent, text: "math_" + name})
				i = skip
				continue
			}
		default:
			if alias, ok := helperAliases[t.text]; ok && isPunct(neighbor(tokens, i, 1), "(") {
				t.text = alias
			}
		}
		out = append(out, t)
	}
	return out
}

// mathCall matches "Math . name (" at i and returns the helper name and the
// index of the name token.
func mathCall(tokens []token, i int) (string, int) {
	j := next(tokens, i)
	if j < 0 || !isPunct(tokens[j], ".") {
		return "", i
	}
	k := next(tokens, j)
	if k < 0 || tokens[k].kind != tokIdent {
		return "", i
	}
	if _, ok := mathHelpers[tokens[k].text]; !ok {
		return "", i
	}
	if !isPunct(neighbor(tokens, k, 1), "(") {
		return "", i
	}
	return tokens[k].text, k
}

func next(tokens []token, i int) int {
	for j := i + 1; j < len(tokens); j++ {
		if tokens[j].kind != tokSpace {
			return j
		}
	}
	return -1
}

func isPunct(t token, text string) bool {
	return t.kind == tokPunct && t.text == text
}

func isKeyword(t token, word string) bool {
	return t.kind == tokIdent && t.text == word
}
