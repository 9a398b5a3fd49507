package numeric

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	type tok = lexToken
	eof := func(pos int) lexToken { return lexToken{kind: tokenEOF, pos: pos} }
	cases := []struct {
		src    string
		tokens []lexToken
		errs   int
	}{
		// spaces
		{"", []tok{eof(1)}, 0},
		{" \t \r\n ", []tok{eof(7)}, 0},
		// numbers
		{"0", []tok{{text: "0", kind: tokenNum, pos: 1}, eof(2)}, 0},
		{"9876543210", []tok{{text: "9876543210", kind: tokenNum, pos: 1}, eof(11)}, 0},
		{"1 0", []tok{{text: "1", kind: tokenNum, pos: 1}, {text: "0", kind: tokenNum, pos: 3}, eof(4)}, 0},
		{"1.0", []tok{{text: "1.0", kind: tokenNum, pos: 1}, eof(4)}, 0},
		{"-1", []tok{{text: "-", kind: tokenOp, pos: 1}, {text: "1", kind: tokenNum, pos: 2}, eof(3)}, 0},
		{"1e1", []tok{{text: "1e1", kind: tokenNum, pos: 1}, eof(4)}, 0},
		{"1e", []tok{{pos: 1}, eof(3)}, 1},
		{"1e+1", []tok{{text: "1e+1", kind: tokenNum, pos: 1}, eof(5)}, 0},
		{"1e-1", []tok{{text: "1e-1", kind: tokenNum, pos: 1}, eof(5)}, 0},
		{"1.1.1", []tok{{pos: 1}, {text: "1", kind: tokenNum, pos: 5}, eof(6)}, 1},
		{"1.0e1", []tok{{text: "1.0e1", kind: tokenNum, pos: 1}, eof(6)}, 0},
		{".", []tok{{pos: 1}, eof(2)}, 1},
		{".1", []tok{{text: ".1", kind: tokenNum, pos: 1}, eof(3)}, 0},
		{".1e1", []tok{{text: ".1e1", kind: tokenNum, pos: 1}, eof(5)}, 0},
		{"1+0", []tok{{text: "1", kind: tokenNum, pos: 1}, {text: "+", kind: tokenOp, pos: 2}, {text: "0", kind: tokenNum, pos: 3}, eof(4)}, 0},
		{"1*0", []tok{{text: "1", kind: tokenNum, pos: 1}, {text: "*", kind: tokenOp, pos: 2}, {text: "0", kind: tokenNum, pos: 3}, eof(4)}, 0},
		{"(1)", []tok{{text: "(", kind: tokenOpen, pos: 1}, {text: "1", kind: tokenNum, pos: 2}, {text: ")", kind: tokenClose, pos: 3}, eof(4)}, 0},
		{"1a", []tok{{pos: 1}, eof(3)}, 1},
		{"inf", []tok{{text: "inf", kind: tokenNum, pos: 1}, eof(4)}, 0},
		{"∞", []tok{{text: "∞", kind: tokenNum, pos: 1}, eof(2)}, 0},
		// identifiers
		{"e", []tok{{text: "e", kind: tokenIdent, pos: 1}, eof(2)}, 0},
		{"e1", []tok{{text: "e1", kind: tokenIdent, pos: 1}, eof(3)}, 0},
		{"π", []tok{{text: "π", kind: tokenIdent, pos: 1}, eof(2)}, 0},
		{"eπ", []tok{{text: "eπ", kind: tokenIdent, pos: 1}, eof(3)}, 0},
		{"_1234_", []tok{{text: "_1234_", kind: tokenIdent, pos: 1}, eof(7)}, 0},
		{"e(", []tok{{text: "e", kind: tokenIdent, pos: 1}, {text: "(", kind: tokenOpen, pos: 2}, eof(3)}, 0},
		{"#F00", []tok{{text: "#F00", kind: tokenIdent, pos: 1}, eof(5)}, 0},
		{"#", []tok{{pos: 1}, eof(2)}, 1},
		// strings
		{"'abc'", []tok{{text: "'abc'", kind: tokenStr, pos: 1}, eof(6)}, 0},
		{`"abc"`, []tok{{text: `"abc"`, kind: tokenStr, pos: 1}, eof(6)}, 0},
		{`"a'b"`, []tok{{text: `"a'b"`, kind: tokenStr, pos: 1}, eof(6)}, 0},
		{`'a\'b'`, []tok{{text: `'a\'b'`, kind: tokenStr, pos: 1}, eof(7)}, 0},
		{"''", []tok{{text: "''", kind: tokenStr, pos: 1}, eof(3)}, 0},
		{"'abc", []tok{{pos: 1}, eof(5)}, 1},
		// operators
		{"+", []tok{{text: "+", kind: tokenOp, pos: 1}, eof(2)}, 0},
		{"++", []tok{{text: "+", kind: tokenOp, pos: 1}, {text: "+", kind: tokenOp, pos: 2}, eof(3)}, 0},
		{"a--b", []tok{{text: "a", kind: tokenIdent, pos: 1}, {text: "-", kind: tokenOp, pos: 2}, {text: "-", kind: tokenOp, pos: 3}, {text: "b", kind: tokenIdent, pos: 4}, eof(5)}, 0},
		{"a==b", []tok{{text: "a", kind: tokenIdent, pos: 1}, {text: "==", kind: tokenOp, pos: 2}, {text: "b", kind: tokenIdent, pos: 4}, eof(5)}, 0},
		{"a!=b", []tok{{text: "a", kind: tokenIdent, pos: 1}, {text: "!=", kind: tokenOp, pos: 2}, {text: "b", kind: tokenIdent, pos: 4}, eof(5)}, 0},
		{"<<=", []tok{{text: "<", kind: tokenOp, pos: 1}, {text: "<=", kind: tokenOp, pos: 2}, eof(4)}, 0},
		{">=>", []tok{{text: ">=", kind: tokenOp, pos: 1}, {text: ">", kind: tokenOp, pos: 3}, eof(4)}, 0},
		{"!!x", []tok{{text: "!", kind: tokenOp, pos: 1}, {text: "!", kind: tokenOp, pos: 2}, {text: "x", kind: tokenIdent, pos: 3}, eof(4)}, 0},
		{"&&||", []tok{{text: "&&", kind: tokenOp, pos: 1}, {text: "||", kind: tokenOp, pos: 3}, eof(5)}, 0},
		{"a??b", []tok{{text: "a", kind: tokenIdent, pos: 1}, {text: "??", kind: tokenOp, pos: 2}, {text: "b", kind: tokenIdent, pos: 4}, eof(5)}, 0},
		{"a?b:c", []tok{{text: "a", kind: tokenIdent, pos: 1}, {text: "?", kind: tokenOp, pos: 2}, {text: "b", kind: tokenIdent, pos: 3}, {text: ":", kind: tokenOp, pos: 4}, {text: "c", kind: tokenIdent, pos: 5}, eof(6)}, 0},
		{"1<2", []tok{{text: "1", kind: tokenNum, pos: 1}, {text: "<", kind: tokenOp, pos: 2}, {text: "2", kind: tokenNum, pos: 3}, eof(4)}, 0},
		{"=", []tok{{pos: 1}, eof(2)}, 1},
		{"a&b", []tok{{text: "a", kind: tokenIdent, pos: 1}, {pos: 2}, {text: "b", kind: tokenIdent, pos: 3}, eof(4)}, 1},
		{"|", []tok{{pos: 1}, eof(2)}, 1},
		// brackets and separators
		{"()", []tok{{text: "(", kind: tokenOpen, pos: 1}, {text: ")", kind: tokenClose, pos: 2}, eof(3)}, 0},
		{"[]", []tok{{text: "[", kind: tokenOpen, pos: 1}, {text: "]", kind: tokenClose, pos: 2}, eof(3)}, 0},
		{"{}", []tok{{text: "{", kind: tokenOpen, pos: 1}, {text: "}", kind: tokenClose, pos: 2}, eof(3)}, 0},
		{",;", []tok{{text: ",", kind: tokenSep, pos: 1}, {text: ";", kind: tokenSep, pos: 2}, eof(3)}, 0},
		// erroneous symbols
		{"$", []tok{{pos: 1}, eof(2)}, 1},
		{"a$", []tok{{text: "a", kind: tokenIdent, pos: 1}, {pos: 2}, eof(3)}, 1},
		{"$a", []tok{{pos: 1}, {text: "a", kind: tokenIdent, pos: 2}, eof(3)}, 1},
		{"0$", []tok{{pos: 1}, eof(3)}, 1},
		{"$0", []tok{{pos: 1}, {text: "0", kind: tokenNum, pos: 2}, eof(3)}, 1},
		{"$$", []tok{{pos: 1}, {pos: 2}, eof(3)}, 2},
	}

	for _, c := range cases {
		scan := lex(strings.NewReader(c.src))
		errs := c.errs
		for _, want := range c.tokens {
			got, err := scan.next("")
			if errors.Is(err, io.EOF) {
				t.Errorf("scanning %q: expected token %v but got EOF", c.src, want)
				continue
			}
			if got != want {
				t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
			}
			if err != nil {
				var lerr *LexError
				if !errors.As(err, &lerr) {
					t.Errorf("scanning %q: error %#v is not a *LexError", c.src, err)
				}
				if errs > 0 {
					errs--
					continue
				}
				t.Errorf("scanning %q: unexpected error %v", c.src, err)
			}
		}
		if got, err := scan.next(""); !errors.Is(err, io.EOF) {
			t.Errorf("scanning %q: extra token %v with error: %v", c.src, got, err)
		}
		if errs > 0 {
			t.Errorf("scanning %q: not enough errors", c.src)
		}
	}
}

func TestLexStopWhitespace(t *testing.T) {
	scan := lex(strings.NewReader("x \ny"))
	want := []lexToken{
		{text: "x", kind: tokenIdent, pos: 1},
		{kind: tokenEOF, pos: 3},
	}
	for _, w := range want {
		got, err := scan.next("\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != w {
			t.Errorf("want %v, got %v", w, got)
		}
	}
	if got, err := scan.next("\n"); !errors.Is(err, io.EOF) {
		t.Errorf("extra token %v with error %v after whitespace EOF", got, err)
	}
}

func TestUnquote(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"single", "'abc'", "abc", true},
		{"double", `"abc"`, "abc", true},
		{"empty", "''", "", true},
		{"escape", `'a\'b'`, "a'b", true},
		{"backslash", `"a\\b"`, `a\b`, true},
		{"other-quote", `"it's"`, "it's", true},
		{"name", "abc", "", false},
		{"mismatch", `'abc"`, "", false},
		{"short", "'", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Unquote(c.in)
			if got != c.want || ok != c.ok {
				t.Errorf("Unquote(%q): want %q, %t; got %q, %t", c.in, c.want, c.ok, got, ok)
			}
		})
	}
}
