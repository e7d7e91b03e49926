// Package semantic applies per-parameter transformations (C8): rewriting a
// decoded argument's name/type/value according to a contract's declared
// TransformationSemantics, and stamping sender/receiver badges onto
// addresses.
//
// Transformations are small expressions ("amount / token_decimals(__contract__)",
// "decode_nft(tokenId)") stored as plain strings in ContractSemantics. The
// original project evaluates these with Python's eval() against a
// restricted namespace. Go has no equivalent of a process-wide eval, and no
// expression-evaluation library appears anywhere in the example pack, so
// this package parses the expression with the standard library's go/parser
// (Go's own expression grammar is a superset of what these transformations
// need) and walks the resulting go/ast tree itself, refusing anything
// outside a small whitelist: identifiers, integer/string/float literals,
// binary arithmetic, unary minus, and calls to a fixed set of helper
// functions. Selector expressions (attribute access such as a.b) are
// rejected, so fields of an address or contract value cannot be read. No
// identifier resolves to Go code; everything bottoms out in the Context
// below.
package semantic

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math/big"
)

// Context is the namespace a transformation expression evaluates against:
// the decoded arguments of the call/event it belongs to (by name), plus the
// handful of dunder values the original project exposes.
type Context struct {
	Arguments map[string]interface{}
	Contract  string
	Helpers   Helpers
}

// Helpers is the whitelisted function surface a transformation may call.
// Each corresponds to one of the original project's namespaced helpers.
type Helpers interface {
	DecodeCall(contract string, data interface{}) (interface{}, error)
	DecodeNFT(tokenID interface{}) (interface{}, error)
	TokenDecimals(contract string) (interface{}, error)
}

// Eval parses and evaluates expr against ctx, returning the resulting value.
// Division uses big.Float arithmetic so token-decimals scaling doesn't lose
// precision the way float64 would.
func Eval(expr string, ctx Context) (interface{}, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("parse transformation %q: %w", expr, err)
	}
	return evalNode(node, ctx)
}

func evalNode(n ast.Expr, ctx Context) (interface{}, error) {
	switch e := n.(type) {
	case *ast.Ident:
		return resolveIdent(e.Name, ctx)
	case *ast.BasicLit:
		return literalValue(e)
	case *ast.ParenExpr:
		return evalNode(e.X, ctx)
	case *ast.UnaryExpr:
		return evalUnary(e, ctx)
	case *ast.BinaryExpr:
		return evalBinary(e, ctx)
	case *ast.CallExpr:
		return evalCall(e, ctx)
	case *ast.SelectorExpr:
		return nil, fmt.Errorf("attribute access is not permitted: %s.%s", exprString(e.X), e.Sel.Name)
	default:
		return nil, fmt.Errorf("expression form not permitted: %T", n)
	}
}

func resolveIdent(name string, ctx Context) (interface{}, error) {
	if name == "__contract__" {
		return ctx.Contract, nil
	}
	if v, ok := ctx.Arguments[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("unknown identifier %q", name)
}

func literalValue(lit *ast.BasicLit) (interface{}, error) {
	switch lit.Kind {
	case token.INT:
		n, ok := new(big.Int).SetString(lit.Value, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %q", lit.Value)
		}
		return n, nil
	case token.FLOAT:
		f, ok := new(big.Float).SetString(lit.Value)
		if !ok {
			return nil, fmt.Errorf("invalid float literal %q", lit.Value)
		}
		return f, nil
	case token.STRING:
		s, err := unquoteGoString(lit.Value)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("literal kind not permitted: %v", lit.Kind)
	}
}

func unquoteGoString(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("malformed string literal %q", s)
	}
	return s[1 : len(s)-1], nil
}

func evalUnary(e *ast.UnaryExpr, ctx Context) (interface{}, error) {
	x, err := evalNode(e.X, ctx)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.SUB:
		return negate(x)
	default:
		return nil, fmt.Errorf("unary operator not permitted: %s", e.Op)
	}
}

func negate(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Neg(n), nil
	case *big.Float:
		return new(big.Float).Neg(n), nil
	default:
		return nil, fmt.Errorf("cannot negate %T", v)
	}
}

func evalBinary(e *ast.BinaryExpr, ctx Context) (interface{}, error) {
	x, err := evalNode(e.X, ctx)
	if err != nil {
		return nil, err
	}
	y, err := evalNode(e.Y, ctx)
	if err != nil {
		return nil, err
	}

	xf, err := toFloat(x)
	if err != nil {
		return nil, err
	}
	yf, err := toFloat(y)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.ADD:
		return new(big.Float).Add(xf, yf), nil
	case token.SUB:
		return new(big.Float).Sub(xf, yf), nil
	case token.MUL:
		return new(big.Float).Mul(xf, yf), nil
	case token.QUO:
		if yf.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return new(big.Float).Quo(xf, yf), nil
	default:
		return nil, fmt.Errorf("binary operator not permitted: %s", e.Op)
	}
}

func toFloat(v interface{}) (*big.Float, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Float).SetInt(n), nil
	case *big.Float:
		return n, nil
	default:
		return nil, fmt.Errorf("value is not numeric: %T", v)
	}
}

// evalCall dispatches to the whitelisted helper set; no other callee is
// permitted, and arguments are evaluated the same restricted way.
func evalCall(e *ast.CallExpr, ctx Context) (interface{}, error) {
	ident, ok := e.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("only direct helper calls are permitted")
	}
	args := make([]interface{}, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := evalNode(a, ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch ident.Name {
	case "decode_call":
		if len(args) != 2 {
			return nil, fmt.Errorf("decode_call takes 2 arguments, got %d", len(args))
		}
		contract, ok := args[0].(string)
		if !ok {
			contract = ctx.Contract
		}
		return ctx.Helpers.DecodeCall(contract, args[1])
	case "decode_nft":
		if len(args) != 1 {
			return nil, fmt.Errorf("decode_nft takes 1 argument, got %d", len(args))
		}
		return ctx.Helpers.DecodeNFT(args[0])
	case "token_decimals":
		if len(args) != 1 {
			return nil, fmt.Errorf("token_decimals takes 1 argument, got %d", len(args))
		}
		contract, ok := args[0].(string)
		if !ok {
			contract = ctx.Contract
		}
		return ctx.Helpers.TokenDecimals(contract)
	default:
		return nil, fmt.Errorf("call to undeclared helper %q is not permitted", ident.Name)
	}
}

func exprString(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return "?"
}
