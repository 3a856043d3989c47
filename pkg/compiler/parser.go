package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program    = function* EOF
//	function   = "fn" IDENTIFIER "(" ")" "{" statement* "}"
//	statement  = "let" IDENTIFIER "=" expression ";"
//	           | "return" expression ";"
//	expression = term (("+" | "-") term)*
//	term       = factor (("*" | "/") factor)*
//	factor     = NUMBER | IDENTIFIER | "(" expression ")" | matrix
//	matrix     = "[" "[" exprList "]" ("," "[" exprList "]")* "]"
//	           | "[" exprList "]"                       // flat 1-row form
//	exprList   = (expression ("," expression)*)?
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// Parse builds a Program from the token slice. rawSource is only used to
// quote the offending line in error messages.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	return NewParser(tokens, rawSource).parseProgram()
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", tok.Line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.peek().Type != EOF {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func (p *Parser) parseFunction() (Function, error) {
	if _, err := p.expect(FN); err != nil {
		return Function{}, err
	}
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return Function{}, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return Function{}, err
	}
	if p.peek().Type != RPAREN {
		return Function{}, p.fmtError(p.peek(), "function %q must take no arguments", nameTok.Lexeme)
	}
	p.advance() // RPAREN
	if _, err := p.expect(LBRACE); err != nil {
		return Function{}, err
	}

	var body []Stmt
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return Function{}, err
		}
		body = append(body, stmt)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return Function{}, err
	}

	return Function{Name: nameTok.Lexeme, Body: body}, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	switch p.peek().Type {
	case LET:
		p.advance()
		nameTok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ASSIGN); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &LetStmt{Name: nameTok.Lexeme, Expr: expr}, nil

	case RETURN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &ReturnStmt{Expr: expr}, nil

	default:
		return nil, p.fmtError(p.peek(), "expected statement, got %s (%q)", p.peek().Type, p.peek().Lexeme)
	}
}

// parseExpression handles + and -
func (p *Parser) parseExpression() (Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		if tt != PLUS && tt != MINUS {
			break
		}
		op := p.advance().Type
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

// parseTerm handles * and /
func (p *Parser) parseTerm() (Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		if tt != STAR && tt != SLASH {
			break
		}
		op := p.advance().Type
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

// parseFactor handles numbers, identifiers, parens and matrix literals.
func (p *Parser) parseFactor() (Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case NUMBER:
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.fmtError(tok, "invalid numeric literal %q", tok.Lexeme)
		}
		return &NumberLit{Value: val}, nil

	case IDENTIFIER:
		return &VarRef{Name: tok.Lexeme}, nil

	case LPAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case LBRACKET:
		return p.parseMatrixLit()

	default:
		return nil, p.fmtError(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseMatrixLit parses the body of a matrix literal. The opening '[' has
// already been consumed. A flat element list becomes a single-row matrix.
func (p *Parser) parseMatrixLit() (Expr, error) {
	if p.peek().Type == LBRACKET {
		// Nested form: a list of bracketed rows.
		var rows [][]Expr
		for p.peek().Type == LBRACKET {
			p.advance() // consume '['
			row, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			rows = append(rows, row)

			if p.peek().Type == COMMA {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return &MatrixLit{Rows: rows}, nil
	}

	// Flat form: one row of elements.
	row, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	return &MatrixLit{Rows: [][]Expr{row}}, nil
}

// parseExprList parses a possibly-empty comma-separated expression list,
// stopping before the closing ']'. A trailing comma is tolerated.
func (p *Parser) parseExprList() ([]Expr, error) {
	var list []Expr
	for p.peek().Type != RBRACKET && p.peek().Type != EOF {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
		if p.peek().Type == COMMA {
			p.advance()
		} else {
			break
		}
	}
	return list, nil
}
