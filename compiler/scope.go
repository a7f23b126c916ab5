package compiler

// Scope is a name binding context. Scopes chain to their enclosing scope;
// the outermost (global) scope has no parent.
type Scope struct {
	name   string
	parent *Scope
	vars   map[string]*Node // name → declaring VariableDeclaration
	order  []string
}

// NewScope creates a scope chained to parent (which may be nil).
func NewScope(parent *Scope, name string) *Scope {
	return &Scope{
		name:   name,
		parent: parent,
		vars:   make(map[string]*Node),
	}
}

// Name returns the scope's name.
func (s *Scope) Name() string { return s.name }

// Parent returns the enclosing scope, or nil.
func (s *Scope) Parent() *Scope { return s.parent }

// Declare binds decl.Text in this scope. It returns the earlier declaration
// and false if the name is already bound here.
func (s *Scope) Declare(decl *Node) (*Node, bool) {
	if prev, ok := s.vars[decl.Text]; ok {
		return prev, false
	}
	s.vars[decl.Text] = decl
	s.order = append(s.order, decl.Text)
	return nil, true
}

// Lookup searches this scope and its ancestors.
func (s *Scope) Lookup(name string) (*Node, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.vars[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// LookupLocal searches only this scope.
func (s *Scope) LookupLocal(name string) (*Node, bool) {
	d, ok := s.vars[name]
	return d, ok
}

// Names returns the locally declared names in declaration order.
func (s *Scope) Names() []string {
	return append([]string(nil), s.order...)
}

// Encloses reports whether s is other or one of its ancestors.
func (s *Scope) Encloses(other *Scope) bool {
	for sc := other; sc != nil; sc = sc.parent {
		if sc == s {
			return true
		}
	}
	return false
}
