package manifest

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Scope is what an expression may refer to: every declaration of the table,
// the generic parameters of Owner (parents included) and, inside impls, Self.
type Scope struct {
	Table *symbols.Table
	Owner *symbols.Decl
	Self  typesystem.Type
}

type Parser struct {
	l      *Lexer
	input  string
	scope  Scope
	frames [][]typesystem.Var // enclosing for<...> binders, outermost first
	err    *ParseError

	curToken  Token
	peekToken Token
}

func NewParser(input string, scope Scope) *Parser {
	p := &Parser{l: NewLexer(input), input: input, scope: scope}
	p.nextToken()
	p.nextToken()
	return p
}

// ParseType parses a complete type expression.
func ParseType(input string, scope Scope) (typesystem.Type, error) {
	p := NewParser(input, scope)
	t := p.parseType()
	p.expect(EOF)
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

// ParsePredicates parses one where clause. Bounds joined with + yield one
// predicate each, sharing the leading for<...> binder.
func ParsePredicates(input string, scope Scope) ([]typesystem.PolyPredicate, error) {
	p := NewParser(input, scope)
	var vars []typesystem.Var
	if p.curIsKeyword("for") && p.peekTokenIs(LT) {
		vars = p.parseBinderVars()
	}
	p.frames = append(p.frames, vars)
	preds := p.parsePredicateBody()
	p.frames = p.frames[:len(p.frames)-1]
	p.expect(EOF)
	if p.err != nil {
		return nil, p.err
	}
	out := make([]typesystem.PolyPredicate, len(preds))
	for i, pred := range preds {
		out[i] = typesystem.Bind(vars, pred)
	}
	return out, nil
}

// ParseImplHeader parses "Trait<A1..An> for A0".
func ParseImplHeader(input string, scope Scope) (typesystem.TraitRef, error) {
	p := NewParser(input, scope)
	trait, args := p.parseTraitPath()
	if p.err == nil && !p.curIsKeyword("for") {
		p.errorf("expected 'for', got %s", p.describe(p.curToken))
	}
	p.nextToken()
	self := p.parseType()
	p.expect(EOF)
	if p.err != nil {
		return typesystem.TraitRef{}, p.err
	}
	return p.traitRef(trait, self, args), nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) curIsKeyword(kw string) bool {
	return p.curToken.Type == IDENT && p.curToken.Literal == kw
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t TokenType) bool {
	if p.err != nil {
		return false
	}
	if !p.curTokenIs(t) {
		p.errorf("expected %s, got %s", t, p.describe(p.curToken))
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) errorf(format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Expr: p.input, Pos: p.curToken.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) describe(tok Token) string {
	if tok.Type == EOF {
		return tok.Type.String()
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// parseBinderVars parses for<'a, T> and leaves the current token after '>'.
func (p *Parser) parseBinderVars() []typesystem.Var {
	p.nextToken() // for
	p.nextToken() // <
	var vars []typesystem.Var
	for p.err == nil && !p.curTokenIs(GT) {
		switch p.curToken.Type {
		case LIFETIME:
			vars = append(vars, typesystem.Var{Name: p.curToken.Literal, Kind: typesystem.Lifetime})
		case IDENT:
			vars = append(vars, typesystem.Var{Name: p.curToken.Literal, Kind: typesystem.Star})
		default:
			p.errorf("expected a binder variable, got %s", p.describe(p.curToken))
			return nil
		}
		p.nextToken()
		if !p.curTokenIs(COMMA) {
			break
		}
		p.nextToken()
	}
	p.expect(GT)
	return vars
}

func (p *Parser) parsePredicateBody() []typesystem.Predicate {
	switch {
	case p.curIsKeyword("wf") && p.peekTokenIs(LPAREN):
		p.nextToken()
		p.nextToken()
		arg := p.parseArg()
		p.expect(RPAREN)
		return []typesystem.Predicate{typesystem.WellFormedPredicate{Arg: arg}}

	case p.curIsKeyword("object_safe") && p.peekTokenIs(LPAREN):
		p.nextToken()
		p.nextToken()
		trait := p.lookupTrait()
		p.expect(RPAREN)
		if trait == nil {
			return nil
		}
		return []typesystem.Predicate{typesystem.ObjectSafePredicate{Trait: trait.Def, Name: trait.Name}}

	case p.curTokenIs(LIFETIME):
		long := p.parseRegion()
		p.expect(COLON)
		var preds []typesystem.Predicate
		for p.err == nil {
			preds = append(preds, typesystem.RegionOutlivesPredicate{Long: long, Short: p.parseRegion()})
			if !p.curTokenIs(PLUS) {
				break
			}
			p.nextToken()
		}
		return preds
	}

	ty := p.parseType()
	switch p.curToken.Type {
	case EQ:
		p.nextToken()
		rhs := p.parseType()
		proj, ok := ty.(typesystem.TProjection)
		if !ok && p.err == nil {
			p.errorf("left side of == must be a projection, got %s", ty)
			return nil
		}
		return []typesystem.Predicate{typesystem.ProjectionPredicate{Projection: proj, Ty: rhs}}
	case SUBTYPE:
		p.nextToken()
		return []typesystem.Predicate{typesystem.SubtypePredicate{Sub: ty, Super: p.parseType()}}
	case COLON:
		p.nextToken()
		var preds []typesystem.Predicate
		for p.err == nil {
			if p.curTokenIs(LIFETIME) {
				preds = append(preds, typesystem.TypeOutlivesPredicate{Ty: ty, Region: p.parseRegion()})
			} else {
				trait, args := p.parseTraitPath()
				if p.err == nil {
					preds = append(preds, typesystem.TraitPredicate{Trait: p.traitRef(trait, ty, args)})
				}
			}
			if !p.curTokenIs(PLUS) {
				break
			}
			p.nextToken()
		}
		return preds
	}
	p.errorf("expected ':', '==' or '<:' after %s, got %s", ty, p.describe(p.curToken))
	return nil
}

func (p *Parser) lookupTrait() *symbols.Decl {
	if !p.curTokenIs(IDENT) {
		p.errorf("expected a trait name, got %s", p.describe(p.curToken))
		return nil
	}
	d, ok := p.scope.Table.Lookup(p.curToken.Literal)
	if !ok || d.Kind != symbols.DefTrait {
		p.errorf("unknown trait %s", p.curToken.Literal)
		return nil
	}
	p.nextToken()
	return d
}

// parseTraitPath parses Trait<A1..An> without its receiver.
func (p *Parser) parseTraitPath() (*symbols.Decl, []typesystem.Arg) {
	pos := p.curToken.Pos
	trait := p.lookupTrait()
	if trait == nil {
		return nil, nil
	}
	var args []typesystem.Arg
	if p.curTokenIs(LT) {
		args = p.parseArgs()
	}
	if want := len(trait.Params) - 1; p.err == nil && len(args) != want {
		p.err = &ParseError{Expr: p.input, Pos: pos, Msg: fmt.Sprintf("trait %s takes %d arguments, got %d", trait.Name, want, len(args))}
	}
	for i, a := range args {
		if p.err != nil || a == nil {
			break
		}
		if param := trait.Params[i+1]; !a.Kind().Equal(param.Kind) {
			p.err = &ParseError{Expr: p.input, Pos: pos, Msg: fmt.Sprintf("argument %s of %s is not of kind %s", a, trait.Name, param.Kind)}
		}
	}
	return trait, args
}

func (p *Parser) traitRef(trait *symbols.Decl, self typesystem.Type, args []typesystem.Arg) typesystem.TraitRef {
	if trait == nil {
		return typesystem.TraitRef{}
	}
	return typesystem.TraitRef{Def: trait.Def, Name: trait.Name, Args: append([]typesystem.Arg{self}, args...)}
}

// parseArgs parses <A, 'b, ...> starting at '<'.
func (p *Parser) parseArgs() []typesystem.Arg {
	p.nextToken()
	var args []typesystem.Arg
	for p.err == nil && !p.curTokenIs(GT) {
		args = append(args, p.parseArg())
		if !p.curTokenIs(COMMA) {
			break
		}
		p.nextToken()
	}
	p.expect(GT)
	return args
}

func (p *Parser) parseArg() typesystem.Arg {
	if p.curTokenIs(LIFETIME) {
		return p.parseRegion()
	}
	return p.parseType()
}

func (p *Parser) parseRegion() typesystem.Region {
	if !p.curTokenIs(LIFETIME) {
		p.errorf("expected a lifetime, got %s", p.describe(p.curToken))
		return nil
	}
	name := p.curToken.Literal
	if name == "'static" {
		p.nextToken()
		return typesystem.RStatic{}
	}
	if depth, index, ok := p.lookupBound(name, true); ok {
		p.nextToken()
		return typesystem.RBound{Depth: depth, Index: index, Name: name}
	}
	if param, ok := p.lookupParam(name); ok && typesystem.IsLifetime(param.Kind) {
		p.nextToken()
		return typesystem.RParam{Index: param.Index, Name: name}
	}
	p.errorf("undeclared lifetime %s", name)
	return nil
}

func (p *Parser) parseType() typesystem.Type {
	if p.err != nil {
		return nil
	}
	switch {
	case p.curTokenIs(AMP):
		p.nextToken()
		region := p.parseRegion()
		elem := p.parseType()
		return typesystem.TRef{Region: region, Elem: elem}
	case p.curTokenIs(LPAREN):
		return p.parseTuple()
	case p.curTokenIs(LT):
		return p.parseProjection()
	case p.curIsKeyword("fn") && p.peekTokenIs(LPAREN):
		return p.parseFunc()
	case p.curIsKeyword("for") && p.peekTokenIs(LT):
		vars := p.parseBinderVars()
		p.frames = append(p.frames, vars)
		body := p.parseType()
		p.frames = p.frames[:len(p.frames)-1]
		return typesystem.TForall{Vars: vars, Type: body}
	case p.curTokenIs(IDENT):
		return p.parseNamed()
	}
	p.errorf("expected a type, got %s", p.describe(p.curToken))
	return nil
}

func (p *Parser) parseTuple() typesystem.Type {
	p.nextToken()
	var elems []typesystem.Type
	trailing := false
	for p.err == nil && !p.curTokenIs(RPAREN) {
		elems = append(elems, p.parseType())
		trailing = p.curTokenIs(COMMA)
		if !trailing {
			break
		}
		p.nextToken()
	}
	p.expect(RPAREN)
	if len(elems) == 1 && !trailing {
		return elems[0]
	}
	return typesystem.TTuple{Elements: elems}
}

func (p *Parser) parseFunc() typesystem.Type {
	p.nextToken() // fn
	p.nextToken() // (
	var params []typesystem.Type
	for p.err == nil && !p.curTokenIs(RPAREN) {
		params = append(params, p.parseType())
		if !p.curTokenIs(COMMA) {
			break
		}
		p.nextToken()
	}
	p.expect(RPAREN)
	fn := typesystem.TFunc{Params: params}
	if p.curTokenIs(ARROW) {
		p.nextToken()
		fn.ReturnType = p.parseType()
	}
	return fn
}

// parseProjection parses <T as Trait<A>>::Item<B>.
func (p *Parser) parseProjection() typesystem.Type {
	p.nextToken()
	self := p.parseType()
	if p.err == nil && !p.curIsKeyword("as") {
		p.errorf("expected 'as', got %s", p.describe(p.curToken))
	}
	p.nextToken()
	trait, traitArgs := p.parseTraitPath()
	p.expect(GT)
	p.expect(DCOLON)
	if p.err != nil {
		return nil
	}
	if !p.curTokenIs(IDENT) {
		p.errorf("expected an associated type name, got %s", p.describe(p.curToken))
		return nil
	}
	name := p.curToken.Literal
	item, ok := p.scope.Table.FindAssociated(trait.Def, name)
	if !ok || item.Kind != symbols.DefAssocTypeInTrait {
		p.errorf("trait %s has no associated type %s", trait.Name, name)
		return nil
	}
	p.nextToken()
	var args []typesystem.Arg
	if p.curTokenIs(LT) {
		args = p.parseArgs()
	}
	if p.err == nil && len(args) != len(item.Params) {
		p.errorf("associated type %s takes %d arguments, got %d", item.Path, len(item.Params), len(args))
	}
	return typesystem.TProjection{
		Trait:   p.traitRef(trait, self, traitArgs),
		Item:    name,
		ItemDef: item.Def,
		Args:    args,
	}
}

// parseNamed resolves an identifier, innermost scope first: for<> binders,
// generic parameters, Self of an impl, declared structs, built-in types.
func (p *Parser) parseNamed() typesystem.Type {
	name := p.curToken.Literal
	pos := p.curToken.Pos
	p.nextToken()
	var args []typesystem.Arg
	if p.curTokenIs(LT) {
		args = p.parseArgs()
	}
	if p.err != nil {
		return nil
	}
	fail := func(format string, a ...any) typesystem.Type {
		p.err = &ParseError{Expr: p.input, Pos: pos, Msg: fmt.Sprintf(format, a...)}
		return nil
	}

	if len(args) == 0 {
		if depth, index, ok := p.lookupBound(name, false); ok {
			return typesystem.TBound{Depth: depth, Index: index, Name: name}
		}
		if param, ok := p.lookupParam(name); ok && !typesystem.IsLifetime(param.Kind) {
			return typesystem.TParam{Index: param.Index, Name: name}
		}
		if name == symbols.SelfParam && p.scope.Self != nil {
			return p.scope.Self
		}
	}
	if d, ok := p.scope.Table.Lookup(name); ok && d.Kind == symbols.DefAdt {
		if len(args) != len(d.Params) {
			return fail("struct %s takes %d arguments, got %d", name, len(d.Params), len(args))
		}
		return typesystem.TCon{Name: name, Def: d.Def, Args: args}
	}
	if t, ok := symbols.Builtin(name); ok {
		if len(args) > 0 {
			return fail("built-in type %s takes no arguments", name)
		}
		return t
	}
	return fail("unknown type %s", name)
}

func (p *Parser) lookupBound(name string, lifetime bool) (depth, index int, ok bool) {
	for i := len(p.frames) - 1; i >= 0; i-- {
		for j, v := range p.frames[i] {
			if v.Name == name && typesystem.IsLifetime(v.Kind) == lifetime {
				return len(p.frames) - 1 - i, j, true
			}
		}
	}
	return 0, 0, false
}

func (p *Parser) lookupParam(name string) (symbols.GenericParam, bool) {
	if p.scope.Owner == nil {
		return symbols.GenericParam{}, false
	}
	return p.scope.Table.ResolveParam(p.scope.Owner.Def, name)
}
