package compiler

import (
	"reflect"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Basic Tokens",
			input: "+ - * / = ; , [ ] ( ) { }",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1},
				{Type: MINUS, Lexeme: "-", Line: 1},
				{Type: STAR, Lexeme: "*", Line: 1},
				{Type: SLASH, Lexeme: "/", Line: 1},
				{Type: ASSIGN, Lexeme: "=", Line: 1},
				{Type: SEMICOLON, Lexeme: ";", Line: 1},
				{Type: COMMA, Lexeme: ",", Line: 1},
				{Type: LBRACKET, Lexeme: "[", Line: 1},
				{Type: RBRACKET, Lexeme: "]", Line: 1},
				{Type: LPAREN, Lexeme: "(", Line: 1},
				{Type: RPAREN, Lexeme: ")", Line: 1},
				{Type: LBRACE, Lexeme: "{", Line: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "let return fn matrixName _under_score lettuce",
			expected: []Token{
				{Type: LET, Lexeme: "let", Line: 1},
				{Type: RETURN, Lexeme: "return", Line: 1},
				{Type: FN, Lexeme: "fn", Line: 1},
				{Type: IDENTIFIER, Lexeme: "matrixName", Line: 1},
				{Type: IDENTIFIER, Lexeme: "_under_score", Line: 1},
				{Type: IDENTIFIER, Lexeme: "lettuce", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Numbers",
			input: "1 2.5 10.25 007",
			expected: []Token{
				{Type: NUMBER, Lexeme: "1", Line: 1},
				{Type: NUMBER, Lexeme: "2.5", Line: 1},
				{Type: NUMBER, Lexeme: "10.25", Line: 1},
				{Type: NUMBER, Lexeme: "007", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Line Tracking",
			input: "let a = 1.0;\nreturn a;",
			expected: []Token{
				{Type: LET, Lexeme: "let", Line: 1},
				{Type: IDENTIFIER, Lexeme: "a", Line: 1},
				{Type: ASSIGN, Lexeme: "=", Line: 1},
				{Type: NUMBER, Lexeme: "1.0", Line: 1},
				{Type: SEMICOLON, Lexeme: ";", Line: 1},
				{Type: RETURN, Lexeme: "return", Line: 2},
				{Type: IDENTIFIER, Lexeme: "a", Line: 2},
				{Type: SEMICOLON, Lexeme: ";", Line: 2},
				{Type: EOF, Lexeme: "", Line: 2},
			},
		},
		{
			name:  "Line Comment",
			input: "1.0 // the answer\n2.0",
			expected: []Token{
				{Type: NUMBER, Lexeme: "1.0", Line: 1},
				{Type: NUMBER, Lexeme: "2.0", Line: 2},
				{Type: EOF, Lexeme: "", Line: 2},
			},
		},
		{
			name:    "Unexpected Character",
			input:   "let a = @;",
			wantErr: true,
		},
		{
			name:    "Dangling Dot",
			input:   "1. + 2.0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Lex(%q) succeeded; want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(tokens, tt.expected) {
				t.Errorf("Lex(%q) =\n%v\nwant\n%v", tt.input, tokens, tt.expected)
			}
		})
	}
}

func TestLexErrorMentionsLine(t *testing.T) {
	_, err := Lex("let a = 1.0;\nlet b = #;")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should mention line 2", err)
	}
}
