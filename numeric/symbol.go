package numeric

import "strconv"

// SymbolKind is the kind of entity a Symbol names.
type SymbolKind uint8

const (
	// SymbolVariable is a name looked up in the context.
	SymbolVariable SymbolKind = iota + 1
	// SymbolFunction is a call of a named function with a fixed number of
	// arguments.
	SymbolFunction
	// SymbolInfix is a binary operator. The ternary conditional is the infix
	// operator "?:".
	SymbolInfix
	// SymbolPrefix is a unary operator.
	SymbolPrefix
	// SymbolPostfix is a unary operator following its operand. The grammar
	// currently has none.
	SymbolPostfix
	// SymbolArray is an array literal. The grammar currently has none.
	SymbolArray
)

// Symbol identifies a named entity that an expression may reference. Symbols
// are comparable and may be used as map keys.
type Symbol struct {
	Kind SymbolKind
	// Name is the variable or function name or the operator token.
	Name string
	// Arity is the number of arguments of a function symbol.
	Arity int
}

// Variable returns the symbol for a variable.
func Variable(name string) Symbol {
	return Symbol{Kind: SymbolVariable, Name: name}
}

// Function returns the symbol for a call of a function with n arguments.
func Function(name string, n int) Symbol {
	return Symbol{Kind: SymbolFunction, Name: name, Arity: n}
}

// Infix returns the symbol for a binary operator.
func Infix(op string) Symbol {
	return Symbol{Kind: SymbolInfix, Name: op, Arity: 2}
}

// Prefix returns the symbol for a unary operator.
func Prefix(op string) Symbol {
	return Symbol{Kind: SymbolPrefix, Name: op, Arity: 1}
}

// Postfix returns the symbol for a postfix unary operator.
func Postfix(op string) Symbol {
	return Symbol{Kind: SymbolPostfix, Name: op, Arity: 1}
}

// Array returns the symbol for an array literal.
func Array() Symbol {
	return Symbol{Kind: SymbolArray, Name: "[]"}
}

// Less reports whether s sorts before t: by kind, then name, then arity.
func (s Symbol) Less(t Symbol) bool {
	if s.Kind != t.Kind {
		return s.Kind < t.Kind
	}
	if s.Name != t.Name {
		return s.Name < t.Name
	}
	return s.Arity < t.Arity
}

// IsOperator reports whether s is an infix, prefix, or postfix operator.
func (s Symbol) IsOperator() bool {
	switch s.Kind {
	case SymbolInfix, SymbolPrefix, SymbolPostfix:
		return true
	}
	return false
}

func (s Symbol) String() string {
	switch s.Kind {
	case SymbolVariable:
		return "variable(" + s.Name + ")"
	case SymbolFunction:
		return "function(" + s.Name + ", " + strconv.Itoa(s.Arity) + ")"
	case SymbolInfix:
		return "infix(" + s.Name + ")"
	case SymbolPrefix:
		return "prefix(" + s.Name + ")"
	case SymbolPostfix:
		return "postfix(" + s.Name + ")"
	case SymbolArray:
		return "array"
	default:
		return "symbol(" + strconv.Itoa(int(s.Kind)) + ", " + strconv.Quote(s.Name) + ")"
	}
}

// sortsyms sorts symbols without using package sort, for the same reasons as
// sortstrs.
func sortsyms(syms []Symbol) {
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && syms[j].Less(syms[j-1]); j-- {
			syms[j], syms[j-1] = syms[j-1], syms[j]
		}
	}
}
