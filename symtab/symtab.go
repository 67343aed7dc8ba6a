// Package symtab implements the symbol environment from spec.md §4.3: a
// name -> expression map with strong (.equ, label) and weak (.default)
// bindings, resolved lazily and memoised with cycle detection.
package symtab

import (
	"fmt"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/token"
)

// Strength distinguishes a .equ/label binding from a .default binding.
type Strength int

const (
	Weak Strength = iota
	Strong
)

type binding struct {
	expr     ast.Expr
	strength Strength
	// resolved caches a successful Eval; visiting guards against cycles.
	resolved  bool
	value     int64
	visiting  bool
}

// Env is the symbol environment. It satisfies ast.Env so expression trees
// can resolve identifiers through it.
type Env struct {
	bindings map[string]*binding
	reserved map[string]bool
}

// New returns an Env seeded with the built-in names from spec.md §4.3
// step 1 (registers, SFR aliases, bit names).
func New() *Env {
	e := &Env{
		bindings: make(map[string]*binding),
		reserved: make(map[string]bool),
	}
	for name, val := range Builtins() {
		e.bindings[name] = &binding{expr: &ast.Const{Value: val}, strength: Strong, resolved: true, value: val}
		e.reserved[name] = true
	}
	for i := 0; i <= 31; i++ {
		e.reserved[fmt.Sprintf("r%d", i)] = true
		e.reserved[fmt.Sprintf("R%d", i)] = true
	}
	e.reserved["X"] = true
	e.reserved["Y"] = true
	e.reserved["Z"] = true
	return e
}

// DefineEqu installs a Strong binding. A second Strong definition of the
// same name is a SymbolError (spec.md §4.3 step 2).
func (e *Env) DefineEqu(name string, expr ast.Expr, at token.Pos) error {
	if e.reserved[name] {
		return fmt.Errorf("%s: %q is a reserved register/pointer name and cannot be redefined", at, name)
	}
	if b, ok := e.bindings[name]; ok && b.strength == Strong {
		return fmt.Errorf("%s: symbol %q already has a strong (.equ) binding", at, name)
	}
	e.bindings[name] = &binding{expr: expr, strength: Strong}
	return nil
}

// DefineDefault installs a Weak binding only if no binding yet exists
// (spec.md §4.3 step 2: ".default installs Weak only if no Strong or Weak
// exists").
func (e *Env) DefineDefault(name string, expr ast.Expr, at token.Pos) error {
	if e.reserved[name] {
		return fmt.Errorf("%s: %q is a reserved register/pointer name and cannot be redefined", at, name)
	}
	if _, ok := e.bindings[name]; ok {
		return nil
	}
	e.bindings[name] = &binding{expr: expr, strength: Weak}
	return nil
}

// DefineLabel installs a label address as a Strong constant (spec.md
// §4.3 step 3, run after the layout pass).
func (e *Env) DefineLabel(name string, addr int64, at token.Pos) error {
	if b, ok := e.bindings[name]; ok && b.strength == Strong {
		return fmt.Errorf("%s: label %q collides with an existing strong binding", at, name)
	}
	e.bindings[name] = &binding{
		expr:     &ast.Const{Value: addr, At: at},
		strength: Strong,
		resolved: true,
		value:    addr,
	}
	return nil
}

// Lookup resolves name to an integer, chasing transitive identifier
// references and detecting cycles. Implements ast.Env.
func (e *Env) Lookup(name string) (int64, error) {
	b, ok := e.bindings[name]
	if !ok {
		return 0, fmt.Errorf("use of undefined name %q", name)
	}
	if b.resolved {
		return b.value, nil
	}
	if b.visiting {
		return 0, fmt.Errorf("cyclic definition involving %q", name)
	}
	b.visiting = true
	defer func() { b.visiting = false }()

	v, err := b.expr.Eval(e)
	if err != nil {
		return 0, err
	}
	b.resolved = true
	b.value = v
	return v, nil
}

// Has reports whether name has any binding, without forcing resolution.
func (e *Env) Has(name string) bool {
	_, ok := e.bindings[name]
	return ok
}
