package sandbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
)

// Complexity weights.
const (
	weightOperator    = 1
	weightCall        = 2
	weightConditional = 2
	weightLoop        = 3
)

// inspector walks a parsed script once, scoring it and recording the first
// construct outside the grammar whitelist.
type inspector struct {
	checkMembers bool
	complexity   int
	locals       map[string]bool
	err          error
}

func (v *inspector) deny(format string, args ...any) {
	if v.err == nil {
		v.err = fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
	}
}

func (v *inspector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.BinaryNode:
		switch n.Operator {
		case "..":
			v.deny("range expressions are not allowed")
		case "??":
			v.complexity += weightConditional
		default:
			v.complexity += weightOperator
		}
	case *ast.UnaryNode:
		v.complexity += weightOperator
	case *ast.ConditionalNode:
		v.complexity += weightConditional
	case *ast.CallNode:
		v.complexity += weightCall
		ident, ok := n.Callee.(*ast.IdentifierNode)
		if !ok || !whitelist[ident.Value] {
			v.deny("call to %s is not allowed", calleeName(n.Callee))
		}
	case *ast.BuiltinNode:
		v.complexity += weightLoop
		v.deny("builtin %s is not allowed", n.Name)
	case *ast.ClosureNode:
		v.complexity += weightLoop
	case *ast.VariableDeclaratorNode:
		v.locals[n.Name] = true
	case *ast.MemberNode:
		if !v.checkMembers {
			return
		}
		if prop, ok := n.Property.(*ast.StringNode); ok && forbidden[prop.Value] {
			v.deny("property %q is not allowed", prop.Value)
		}
	case *ast.IdentifierNode:
		if strings.HasPrefix(n.Value, "$") {
			v.deny("identifier %s is not allowed", n.Value)
		}
	}
}

func calleeName(node ast.Node) string {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return n.Value
	case *ast.MemberNode:
		if prop, ok := n.Property.(*ast.StringNode); ok {
			return "method " + prop.Value
		}
	}
	return "a computed function"
}

// pathPatcher replaces member chains rooted at context identifiers
// (company.address.city, orders[0].id) with a single call to pathFunc, so every
// dotted access goes through vars.Context.Lookup and missing segments yield nil.
type pathPatcher struct {
	locals map[string]bool
}

func (p *pathPatcher) Visit(node *ast.Node) {
	member, ok := (*node).(*ast.MemberNode)
	if !ok || member.Method {
		return
	}
	path, ok := p.path(member)
	if !ok {
		return
	}
	ast.Patch(node, call(pathFunc, &ast.StringNode{Value: path}))
}

func (p *pathPatcher) path(node ast.Node) (string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		if p.locals[n.Value] || strings.HasPrefix(n.Value, "$") {
			return "", false
		}
		return n.Value, true
	case *ast.CallNode:
		ident, ok := n.Callee.(*ast.IdentifierNode)
		if !ok || ident.Value != pathFunc || len(n.Arguments) != 1 {
			return "", false
		}
		if arg, ok := n.Arguments[0].(*ast.StringNode); ok {
			return arg.Value, true
		}
	case *ast.MemberNode:
		if n.Method {
			return "", false
		}
		base, ok := p.path(n.Node)
		if !ok {
			return "", false
		}
		switch prop := n.Property.(type) {
		case *ast.StringNode:
			if prop.Value == "" || strings.Contains(prop.Value, ".") {
				return "", false
			}
			return base + "." + prop.Value, true
		case *ast.IntegerNode:
			return base + "." + strconv.Itoa(prop.Value), true
		}
	}
	return "", false
}

// operatorPatcher routes operators through JavaScript coercion: operands of
// "&&", "||", "!" and "?:" are tested for truthiness, and comparisons call
// compareFunc. Equality operators whose offset is in strict were spelled
// "===" or "!==".
type operatorPatcher struct {
	strict    map[int]bool
	strictAll bool
}

func (p *operatorPatcher) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.UnaryNode:
		if n.Operator == "!" || n.Operator == "not" {
			n.Node = call(truthyFunc, n.Node)
		}
	case *ast.ConditionalNode:
		n.Cond = call(truthyFunc, n.Cond)
	case *ast.BinaryNode:
		switch n.Operator {
		case "&&", "and", "||", "or":
			n.Left = call(truthyFunc, n.Left)
			n.Right = call(truthyFunc, n.Right)
		case "==", "!=":
			op := n.Operator
			if p.strictAll || p.strict[n.Location().From] {
				op += "="
			}
			ast.Patch(node, call(compareFunc, &ast.StringNode{Value: op}, n.Left, n.Right))
		case "<", ">", "<=", ">=":
			ast.Patch(node, call(compareFunc, &ast.StringNode{Value: n.Operator}, n.Left, n.Right))
		}
	}
}

func call(name string, args ...ast.Node) *ast.CallNode {
	return &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: name},
		Arguments: args,
	}
}
