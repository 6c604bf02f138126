// Package service implements the whitelisted expression grammar for routing
// rule conditions.
//
// The grammar covers comparisons, boolean connectives, and arithmetic over a
// fixed transaction context. There is no reflection, no function call, no
// identifier outside the whitelist, and recursion depth is bounded by the
// parser, which satisfies the evaluator security contract.
//
// Identifiers: amount (number), currency, merchant_id, order_id, description
// (strings). Literals: numbers and double-quoted strings. Operators:
// || && ! == != < <= > >= + - * / and parentheses.
package service

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/allisson/signatures/internal/errors"
	routingDomain "github.com/allisson/signatures/internal/routing/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// maxParseDepth bounds expression nesting.
const maxParseDepth = 32

// Expression is a parsed rule condition, safe for concurrent evaluation.
type Expression struct {
	root node
}

// Evaluator parses and evaluates rule conditions.
type Evaluator struct{}

// NewEvaluator creates the condition evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Parse compiles a condition. Returns ErrConditionSyntax on any lexical or
// grammatical error, including unknown identifiers.
func (e *Evaluator) Parse(condition string) (*Expression, error) {
	tokens, err := lex(condition)
	if err != nil {
		return nil, errors.Wrap(routingDomain.ErrConditionSyntax, err.Error())
	}

	p := &parser{tokens: tokens}
	root, err := p.parseOr(0)
	if err != nil {
		return nil, errors.Wrap(routingDomain.ErrConditionSyntax, err.Error())
	}
	if p.pos != len(p.tokens) {
		return nil, errors.Wrap(routingDomain.ErrConditionSyntax,
			fmt.Sprintf("unexpected token %q", p.tokens[p.pos].text))
	}

	return &Expression{root: root}, nil
}

// Evaluate runs a parsed condition against the transaction context. The
// result must be boolean; anything else is an evaluation error.
func (e *Evaluator) Evaluate(
	expr *Expression,
	tx signatureDomain.TransactionContext,
) (bool, error) {
	v, err := expr.root.eval(tx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to a boolean")
	}
	return b, nil
}

// --- lexer ---

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenString
	tokenIdent
	tokenOperator
	tokenParenOpen
	tokenParenClose
)

type token struct {
	kind tokenKind
	text string
}

var operators = []string{"||", "&&", "==", "!=", "<=", ">=", "<", ">", "!", "+", "-", "*", "/"}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := rune(input[i])

		if unicode.IsSpace(ch) {
			i++
			continue
		}

		if ch == '(' {
			tokens = append(tokens, token{kind: tokenParenOpen, text: "("})
			i++
			continue
		}
		if ch == ')' {
			tokens = append(tokens, token{kind: tokenParenClose, text: ")"})
			i++
			continue
		}

		if ch == '"' {
			end := strings.IndexByte(input[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokenString, text: input[i+1 : i+1+end]})
			i += end + 2
			continue
		}

		if unicode.IsDigit(ch) || ch == '.' {
			j := i
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: input[i:j]})
			i = j
			continue
		}

		if unicode.IsLetter(ch) || ch == '_' {
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) ||
				unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: input[i:j]})
			i = j
			continue
		}

		matched := false
		for _, op := range operators {
			if strings.HasPrefix(input[i:], op) {
				tokens = append(tokens, token{kind: tokenOperator, text: op})
				i += len(op)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("unexpected character %q", ch)
		}
	}
	return tokens, nil
}

// --- parser ---

type node interface {
	eval(tx signatureDomain.TransactionContext) (any, error)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) acceptOperator(ops ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokenOperator {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr(depth int) (node, error) {
	if depth > maxParseDepth {
		return nil, fmt.Errorf("expression too deeply nested")
	}
	left, err := p.parseAnd(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOperator("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "||", left: left, right: right}
	}
}

func (p *parser) parseAnd(depth int) (node, error) {
	if depth > maxParseDepth {
		return nil, fmt.Errorf("expression too deeply nested")
	}
	left, err := p.parseComparison(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOperator("&&"); !ok {
			return left, nil
		}
		right, err := p.parseComparison(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "&&", left: left, right: right}
	}
}

func (p *parser) parseComparison(depth int) (node, error) {
	if depth > maxParseDepth {
		return nil, fmt.Errorf("expression too deeply nested")
	}
	left, err := p.parseSum(depth + 1)
	if err != nil {
		return nil, err
	}
	if op, ok := p.acceptOperator("==", "!=", "<=", ">=", "<", ">"); ok {
		right, err := p.parseSum(depth + 1)
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseSum(depth int) (node, error) {
	if depth > maxParseDepth {
		return nil, fmt.Errorf("expression too deeply nested")
	}
	left, err := p.parseTerm(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOperator("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseTerm(depth int) (node, error) {
	if depth > maxParseDepth {
		return nil, fmt.Errorf("expression too deeply nested")
	}
	left, err := p.parseUnary(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOperator("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary(depth int) (node, error) {
	if depth > maxParseDepth {
		return nil, fmt.Errorf("expression too deeply nested")
	}
	if _, ok := p.acceptOperator("!"); ok {
		operand, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	}
	if _, ok := p.acceptOperator("-"); ok {
		operand, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		return &negNode{operand: operand}, nil
	}
	return p.parsePrimary(depth + 1)
}

func (p *parser) parsePrimary(depth int) (node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch t.kind {
	case tokenNumber:
		p.pos++
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return &literalNode{value: f}, nil

	case tokenString:
		p.pos++
		return &literalNode{value: t.text}, nil

	case tokenIdent:
		p.pos++
		if !isWhitelistedIdent(t.text) {
			return nil, fmt.Errorf("unknown identifier %q", t.text)
		}
		return &identNode{name: t.text}, nil

	case tokenParenOpen:
		p.pos++
		inner, err := p.parseOr(depth + 1)
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokenParenClose {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}

	return nil, fmt.Errorf("unexpected token %q", t.text)
}

// isWhitelistedIdent restricts identifiers to the fixed context fields.
func isWhitelistedIdent(name string) bool {
	switch name {
	case "amount", "currency", "merchant_id", "order_id", "description":
		return true
	}
	return false
}

// --- evaluation ---

type literalNode struct {
	value any
}

func (n *literalNode) eval(signatureDomain.TransactionContext) (any, error) {
	return n.value, nil
}

type identNode struct {
	name string
}

func (n *identNode) eval(tx signatureDomain.TransactionContext) (any, error) {
	switch n.name {
	case "amount":
		return tx.Amount, nil
	case "currency":
		return tx.Currency, nil
	case "merchant_id":
		return tx.MerchantID, nil
	case "order_id":
		return tx.OrderID, nil
	case "description":
		return tx.Description, nil
	}
	return nil, fmt.Errorf("unknown identifier %q", n.name)
}

type notNode struct {
	operand node
}

func (n *notNode) eval(tx signatureDomain.TransactionContext) (any, error) {
	v, err := n.operand.eval(tx)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("operator ! requires a boolean operand")
	}
	return !b, nil
}

type negNode struct {
	operand node
}

func (n *negNode) eval(tx signatureDomain.TransactionContext) (any, error) {
	v, err := n.operand.eval(tx)
	if err != nil {
		return nil, err
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("unary - requires a numeric operand")
	}
	return -f, nil
}

type binaryNode struct {
	op    string
	left  node
	right node
}

func (n *binaryNode) eval(tx signatureDomain.TransactionContext) (any, error) {
	// Short-circuit boolean connectives.
	switch n.op {
	case "&&", "||":
		lv, err := n.left.eval(tx)
		if err != nil {
			return nil, err
		}
		lb, ok := lv.(bool)
		if !ok {
			return nil, fmt.Errorf("operator %s requires boolean operands", n.op)
		}
		if n.op == "&&" && !lb {
			return false, nil
		}
		if n.op == "||" && lb {
			return true, nil
		}
		rv, err := n.right.eval(tx)
		if err != nil {
			return nil, err
		}
		rb, ok := rv.(bool)
		if !ok {
			return nil, fmt.Errorf("operator %s requires boolean operands", n.op)
		}
		return rb, nil
	}

	lv, err := n.left.eval(tx)
	if err != nil {
		return nil, err
	}
	rv, err := n.right.eval(tx)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equals(lv, rv)
	case "!=":
		eq, err := equals(lv, rv)
		if err != nil {
			return nil, err
		}
		return !eq, nil
	case "<", "<=", ">", ">=":
		lf, rf, err := numericOperands(n.op, lv, rv)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		default:
			return lf >= rf, nil
		}
	case "+", "-", "*", "/":
		lf, rf, err := numericOperands(n.op, lv, rv)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case "+":
			return lf + rf, nil
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		default:
			if rf == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return lf / rf, nil
		}
	}

	return nil, fmt.Errorf("unknown operator %q", n.op)
}

func equals(l, r any) (bool, error) {
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		if !ok {
			return false, fmt.Errorf("cannot compare number with non-number")
		}
		return lv == rv, nil
	case string:
		rv, ok := r.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with non-string")
		}
		return lv == rv, nil
	case bool:
		rv, ok := r.(bool)
		if !ok {
			return false, fmt.Errorf("cannot compare boolean with non-boolean")
		}
		return lv == rv, nil
	}
	return false, fmt.Errorf("unsupported comparison operands")
}

func numericOperands(op string, l, r any) (float64, float64, error) {
	lf, ok := l.(float64)
	if !ok {
		return 0, 0, fmt.Errorf("operator %s requires numeric operands", op)
	}
	rf, ok := r.(float64)
	if !ok {
		return 0, 0, fmt.Errorf("operator %s requires numeric operands", op)
	}
	return lf, rf, nil
}
