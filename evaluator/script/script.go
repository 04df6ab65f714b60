package script

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/silhovette/cellexec/engine"
)

// Evaluator implements engine.Evaluator for the script language. It holds no
// state of its own: all state lives in the session bindings it is handed.
type Evaluator struct{}

// New creates a script evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Factory returns an engine.Factory producing one script evaluator per
// session.
func Factory() engine.Factory {
	return func(string) (engine.Evaluator, error) {
		return New(), nil
	}
}

// Evaluate runs the snippet line by line against the bindings. A failing
// line stops execution; bindings and output produced by earlier lines are
// kept.
func (e *Evaluator) Evaluate(ctx context.Context, code string, bindings engine.Bindings) (engine.Evaluation, error) {
	var out strings.Builder

	for i, line := range strings.Split(code, "\n") {
		if err := ctx.Err(); err != nil {
			return engine.Evaluation{}, err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := execLine(line, bindings, &out); err != nil {
			return engine.Evaluation{
				Output:  out.String(),
				Success: false,
				Error:   fmt.Sprintf("line %d: %v", i+1, err),
			}, nil
		}
	}

	return engine.Evaluation{Output: out.String(), Success: true}, nil
}

// execLine executes one statement: an assignment, a print call, or a bare
// expression (evaluated for its side of validation, value discarded).
func execLine(line string, bindings engine.Bindings, out *strings.Builder) error {
	toks, err := tokenize(line)
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return nil
	}

	p := &parser{toks: toks, bindings: bindings}

	// print(expr, ...)
	if toks[0].kind == tokIdent && toks[0].text == "print" && len(toks) > 1 && toks[1].kind == tokLParen {
		p.pos = 2
		var parts []string
		if p.peek().kind != tokRParen {
			for {
				v, err := p.parseExpr()
				if err != nil {
					return err
				}
				parts = append(parts, formatValue(v))
				if p.peek().kind != tokComma {
					break
				}
				p.pos++
			}
		}
		if err := p.expect(tokRParen); err != nil {
			return err
		}
		if err := p.expectEnd(); err != nil {
			return err
		}
		out.WriteString(strings.Join(parts, " "))
		out.WriteString("\n")
		return nil
	}

	// name = expr
	if toks[0].kind == tokIdent && len(toks) > 1 && toks[1].kind == tokAssign {
		p.pos = 2
		v, err := p.parseExpr()
		if err != nil {
			return err
		}
		if err := p.expectEnd(); err != nil {
			return err
		}
		bindings[toks[0].text] = v
		return nil
	}

	// bare expression
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	return p.expectEnd()
}

// formatValue renders a value for print output. Whole floats render without
// a fractional part so `10 * 5` prints as 50.
func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokString
	tokAssign
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokKind
	text string
}

func tokenize(line string) ([]token, error) {
	var toks []token
	runes := []rune(line)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			i++
		case r == '#':
			i = len(runes)
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i])})
		case r >= '0' && r <= '9':
			start := i
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, string(runes[start:i])})
		case r == '\'' || r == '"':
			quote := r
			i++
			start := i
			for i < len(runes) && runes[i] != quote {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{tokString, string(runes[start:i])})
			i++
		default:
			kind, ok := punctKind(r)
			if !ok {
				return nil, fmt.Errorf("unexpected character %q", r)
			}
			toks = append(toks, token{kind, string(r)})
			i++
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func punctKind(r rune) (tokKind, bool) {
	switch r {
	case '=':
		return tokAssign, true
	case '+':
		return tokPlus, true
	case '-':
		return tokMinus, true
	case '*':
		return tokStar, true
	case '/':
		return tokSlash, true
	case '%':
		return tokPercent, true
	case '(':
		return tokLParen, true
	case ')':
		return tokRParen, true
	case ',':
		return tokComma, true
	}
	return 0, false
}

func isIdentStart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || r >= '0' && r <= '9'
}

// parser is a recursive-descent expression evaluator over the token stream.
type parser struct {
	toks     []token
	pos      int
	bindings engine.Bindings
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) expect(kind tokKind) error {
	if p.peek().kind != kind {
		return fmt.Errorf("unexpected token %q", p.peek().text)
	}
	p.pos++
	return nil
}

func (p *parser) expectEnd() error {
	if p.peek().kind != tokEOF {
		return fmt.Errorf("unexpected trailing token %q", p.peek().text)
	}
	return nil
}

// parseExpr := term (('+'|'-') term)*
func (p *parser) parseExpr() (any, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left, err = add(left, right)
			if err != nil {
				return nil, err
			}
		case tokMinus:
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left, err = arith(left, right, "-")
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

// parseTerm := unary (('*'|'/'|'%') unary)*
func (p *parser) parseTerm() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().kind {
		case tokStar:
			op = "*"
		case tokSlash:
			op = "/"
		case tokPercent:
			op = "%"
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = arith(left, right, op)
		if err != nil {
			return nil, err
		}
	}
}

// parseUnary := '-' unary | primary
func (p *parser) parseUnary() (any, error) {
	if p.peek().kind == tokMinus {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("cannot negate %s", typeName(v))
		}
		return -n, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (any, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		n, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return n, nil
	case tokString:
		return t.text, nil
	case tokIdent:
		v, ok := p.bindings[t.text]
		if !ok {
			return nil, fmt.Errorf("undefined name: %s", t.text)
		}
		return v, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return v, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}

// add handles + for both numbers and strings.
func add(left, right any) (any, error) {
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return nil, fmt.Errorf("cannot add %s to string", typeName(right))
		}
		return ls + rs, nil
	}
	return arith(left, right, "+")
}

func arith(left, right any, op string) (any, error) {
	ln, ok := left.(float64)
	if !ok {
		return nil, fmt.Errorf("cannot apply %s to %s", op, typeName(left))
	}
	rn, ok := right.(float64)
	if !ok {
		return nil, fmt.Errorf("cannot apply %s to %s", op, typeName(right))
	}
	switch op {
	case "+":
		return ln + rn, nil
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		if rn == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return ln / rn, nil
	case "%":
		if rn == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return math.Mod(ln, rn), nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

func typeName(v any) string {
	switch v.(type) {
	case float64:
		return "number"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
