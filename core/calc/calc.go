// Package calc evaluates infix arithmetic over + - * / and ^ with
// parentheses, using the shunting-yard algorithm.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrEmptyExpression     = errors.New("empty expression")
	ErrUnbalancedParens    = errors.New("unbalanced parentheses")
	ErrInvalidCharacter    = errors.New("invalid character")
	ErrMalformedExpression = errors.New("malformed expression")

	ErrDivideByZero   = errors.New("division by zero")
	ErrUndefinedPower = errors.New("undefined power")
)

// SyntaxError reports an expression that can't be parsed or reduced to a
// single value.
type SyntaxError struct {
	// Token is the offending token, if there is one.
	Token string
	Err   error
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Token)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// DomainError reports an operation with no defined result.
type DomainError struct {
	Op          byte
	Left, Right float64
	Err         error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%v: %s %c %s", e.Err, Format(e.Left), e.Op, Format(e.Right))
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

var precedence = map[byte]int{
	'+': 1,
	'-': 1,
	'*': 2,
	'/': 2,
	'^': 3,
}

// IsOperator reports whether c is one of the binary operators.
func IsOperator(c byte) bool {
	_, ok := precedence[c]
	return ok
}

// Apply computes left op right.
func Apply(left, right float64, op byte) (float64, error) {
	switch op {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	case '/':
		if math.Abs(right) < math.SmallestNonzeroFloat64 {
			return 0, &DomainError{Op: op, Left: left, Right: right, Err: ErrDivideByZero}
		}
		return left / right, nil
	case '^':
		if math.Abs(left) < math.SmallestNonzeroFloat64 && right < 0 {
			return 0, &DomainError{Op: op, Left: left, Right: right, Err: ErrUndefinedPower}
		}
		if left < 0 && math.Mod(right, 1) != 0 {
			return 0, &DomainError{Op: op, Left: left, Right: right, Err: ErrUndefinedPower}
		}
		return math.Pow(left, right), nil
	}
	return 0, &SyntaxError{Token: string(op), Err: ErrInvalidCharacter}
}

// ToPostfix converts an infix expression to postfix tokens. Whitespace is
// ignored.
func ToPostfix(expression string) ([]string, error) {
	expr := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expression)
	if expr == "" {
		return nil, &SyntaxError{Err: ErrEmptyExpression}
	}

	var (
		output    []string
		operators []byte
	)
	top := func() byte { return operators[len(operators)-1] }
	pop := func() byte {
		op := top()
		operators = operators[:len(operators)-1]
		return op
	}

	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case isDigit(c) || c == '.':
			start := i
			for seenPoint := false; i < len(expr); i++ {
				if expr[i] == '.' && !seenPoint {
					seenPoint = true
				} else if !isDigit(expr[i]) {
					break
				}
			}
			output = append(output, expr[start:i])
			continue

		case IsOperator(c):
			for len(operators) > 0 && IsOperator(top()) {
				p, q := precedence[top()], precedence[c]
				if p < q || (p == q && c == '^') {
					break
				}
				output = append(output, string(pop()))
			}
			operators = append(operators, c)

		case c == '(':
			operators = append(operators, c)

		case c == ')':
			for len(operators) > 0 && top() != '(' {
				output = append(output, string(pop()))
			}
			if len(operators) == 0 {
				return nil, &SyntaxError{Token: ")", Err: ErrUnbalancedParens}
			}
			pop()

		default:
			r, _ := utf8.DecodeRuneInString(expr[i:])
			return nil, &SyntaxError{Token: string(r), Err: ErrInvalidCharacter}
		}
		i++
	}

	for len(operators) > 0 {
		op := pop()
		if op == '(' {
			return nil, &SyntaxError{Token: "(", Err: ErrUnbalancedParens}
		}
		output = append(output, string(op))
	}
	return output, nil
}

// EvaluatePostfix reduces postfix tokens to a value.
func EvaluatePostfix(postfix []string) (float64, error) {
	var stack []float64
	for _, token := range postfix {
		if n, err := strconv.ParseFloat(token, 64); err == nil {
			stack = append(stack, n)
			continue
		}

		if len(token) != 1 || !IsOperator(token[0]) {
			return 0, &SyntaxError{Token: token, Err: ErrMalformedExpression}
		}
		if len(stack) < 2 {
			return 0, &SyntaxError{Token: token, Err: ErrMalformedExpression}
		}

		left, right := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]
		result, err := Apply(left, right, token[0])
		if err != nil {
			return 0, err
		}
		stack = append(stack, result)
	}

	if len(stack) != 1 {
		return 0, &SyntaxError{Err: ErrMalformedExpression}
	}
	return stack[0], nil
}

// Evaluate parses and computes an infix expression.
func Evaluate(expression string) (float64, error) {
	postfix, err := ToPostfix(expression)
	if err != nil {
		return 0, err
	}
	return EvaluatePostfix(postfix)
}

// Format renders a result the way the shell prints it: the shortest decimal
// form, without an exponent.
func Format(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
