package asm

import (
	"fmt"
	"strconv"
	"strings"

	"vclr/pkg/il"
)

// ImplicitType and ImplicitMethod name the method that collects
// instructions appearing before any .method directive.
const (
	ImplicitType   = "Program"
	ImplicitMethod = "Main"
)

// Parser turns an IL listing into an il.Module. The listing is line
// oriented: one directive or one instruction per line.
type Parser struct {
	lexer        *Lexer       // lexer instance
	currentToken Token        // current token
	errors       []string     // list of errors
	module       *il.Module   // module being built
	method       *il.Method   // method being filled, nil between methods
	nextOffset   int          // offset of the next unlabeled instruction
	offsets      map[int]bool // offsets used in the current method
	hasLocals    bool         // .locals seen for the current method
	maxSlot      int          // highest local slot referenced
}

// NewParser creates a new parser instance
func NewParser(l *Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		module: &il.Module{},
		errors: []string{},
	}

	// Initialize current token
	p.nextToken()

	return p
}

// Parse parses the whole listing and returns the module built so far. Check
// Errors before using the result.
func (p *Parser) Parse() *il.Module {
	for p.currentToken.Type != EOF {
		switch p.currentToken.Type {
		case NEWLINE:
			p.nextToken()
		case DIRECTIVE:
			p.parseDirective()
		case LABEL, IDENT:
			p.parseInstruction()
		default:
			p.unexpected("directive or instruction")
		}
	}

	p.finishMethod()
	return p.module
}

// Errors returns the list of syntax errors
func (p *Parser) Errors() []string {
	return p.errors
}

// Parse parses an IL listing.
func Parse(src string) (*il.Module, error) {
	p := NewParser(NewLexer(src))
	mod := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &SyntaxError{Messages: errs}
	}
	return mod, nil
}

// ParseMethod parses a listing holding exactly one method.
func ParseMethod(src string) (*il.Method, error) {
	mod, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if len(mod.Methods) != 1 {
		return nil, fmt.Errorf("asm: expected one method, found %d", len(mod.Methods))
	}
	return mod.Methods[0], nil
}

// nextToken advances to the next token from the lexer
func (p *Parser) nextToken() {
	p.currentToken = p.lexer.NextToken()
}

// skipLine discards tokens up to the end of the current line
func (p *Parser) skipLine() {
	for p.currentToken.Type != NEWLINE && p.currentToken.Type != EOF {
		p.nextToken()
	}
}

func (p *Parser) expect(t TokenType, what string) (Token, bool) {
	tok := p.currentToken
	if tok.Type != t {
		p.unexpected(what)
		return tok, false
	}
	p.nextToken()
	return tok, true
}

func (p *Parser) expectLineEnd() {
	if p.currentToken.Type != NEWLINE && p.currentToken.Type != EOF {
		p.unexpected("end of line")
		return
	}
	p.nextToken()
}

func (p *Parser) isIdent(word string) bool {
	return p.currentToken.Type == IDENT && p.currentToken.Lexeme == word
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

func (p *Parser) parseDirective() {
	directive := p.currentToken.Lexeme
	p.nextToken()

	switch directive {
	case ".module":
		name, ok := p.expect(IDENT, "module name")
		if !ok {
			return
		}
		p.module.Name = name.Lexeme

	case ".entry":
		typ, name, ok := p.parseQualified()
		if !ok {
			return
		}
		p.module.Entry = typ + "::" + name

	case ".type":
		name, ok := p.parseType()
		if !ok {
			return
		}
		decl := p.typeDecl(name)
		if p.isIdent("extends") {
			p.nextToken()
			base, ok := p.parseType()
			if !ok {
				return
			}
			decl.Base = base
		}

	case ".field":
		typ, ok := p.parseType()
		if !ok {
			return
		}
		owner, name, ok := p.parseQualified()
		if !ok {
			return
		}
		decl := p.typeDecl(owner)
		decl.Fields = append(decl.Fields, il.Field{Name: name, Type: typ})

	case ".method":
		p.parseMethodHeader()
		return

	case ".locals":
		p.parseLocals()
		return
	}

	p.expectLineEnd()
}

// typeDecl returns the declaration of name, adding it when missing.
func (p *Parser) typeDecl(name string) *il.TypeDecl {
	for i := range p.module.Types {
		if p.module.Types[i].Name == name {
			return &p.module.Types[i]
		}
	}
	p.module.Types = append(p.module.Types, il.TypeDecl{Name: name})
	return &p.module.Types[len(p.module.Types)-1]
}

var methodModifiers = map[string]bool{
	"public": true, "private": true, "hidebysig": true, "virtual": true,
	"specialname": true, "rtspecialname": true, "final": true, "newslot": true,
}

// parseMethodHeader parses `.method [modifiers] [static] ret Type::Name(params)`.
func (p *Parser) parseMethodHeader() {
	p.finishMethod()

	m := &il.Method{}
	for modifiers := true; modifiers && p.currentToken.Type == IDENT; {
		switch {
		case p.isIdent("static"):
			m.Static = true
		case p.isIdent("instance"):
			m.Static = false
		case methodModifiers[p.currentToken.Lexeme]:
		default:
			modifiers = false
			continue
		}
		p.nextToken()
	}

	ret, ok := p.parseType()
	if !ok {
		return
	}
	typ, name, ok := p.parseQualified()
	if !ok {
		return
	}
	params, ok := p.parseParams()
	if !ok {
		return
	}

	m.Returns = ret
	m.DeclaringType = typ
	m.Name = name
	m.Params = params
	p.startMethod(m)

	// trailing implementation flags, e.g. `cil managed`
	for p.currentToken.Type == IDENT {
		p.nextToken()
	}
	p.expectLineEnd()
}

// parseLocals parses `.locals N` or `.locals [init] (type [name], ...)`.
func (p *Parser) parseLocals() {
	if p.method == nil {
		p.startMethod(implicitMethod())
	}

	if p.currentToken.Type == NUM {
		n, err := strconv.ParseInt(p.currentToken.Literal, 0, 32)
		if err != nil || n < 0 {
			p.invalid("local count", p.currentToken)
			return
		}
		p.nextToken()
		p.method.Locals = int(n)
		p.hasLocals = true
		p.expectLineEnd()
		return
	}

	if p.isIdent("init") {
		p.nextToken()
	}
	slots, ok := p.parseParams()
	if !ok {
		return
	}
	p.method.Locals = len(slots)
	p.hasLocals = true
	p.expectLineEnd()
}

// parseParams parses `(type [name], ...)`.
func (p *Parser) parseParams() ([]il.Param, bool) {
	if _, ok := p.expect(LPAREN, "`(`"); !ok {
		return nil, false
	}

	params := []il.Param{}
	for p.currentToken.Type != RPAREN {
		if len(params) > 0 {
			if _, ok := p.expect(COMMA, "`,` or `)`"); !ok {
				return nil, false
			}
		}
		typ, ok := p.parseType()
		if !ok {
			return nil, false
		}
		param := il.Param{Type: typ}
		if p.currentToken.Type == IDENT {
			param.Name = p.currentToken.Lexeme
			p.nextToken()
		}
		params = append(params, param)
	}
	p.nextToken()

	return params, true
}

// parseType parses `[class|valuetype] [[assembly]]Name`.
func (p *Parser) parseType() (string, bool) {
	if p.isIdent("class") || p.isIdent("valuetype") {
		p.nextToken()
	}
	if p.currentToken.Type == LBRACKET {
		p.nextToken()
		if _, ok := p.expect(IDENT, "assembly name"); !ok {
			return "", false
		}
		if _, ok := p.expect(RBRACKET, "`]`"); !ok {
			return "", false
		}
	}

	name, ok := p.expect(IDENT, "type name")
	if !ok {
		return "", false
	}
	return name.Lexeme, true
}

// parseQualified parses `Type::Name`.
func (p *Parser) parseQualified() (string, string, bool) {
	typ, ok := p.parseType()
	if !ok {
		return "", "", false
	}
	if _, ok := p.expect(DCOLON, "`::`"); !ok {
		return "", "", false
	}
	name, ok := p.expect(IDENT, "member name")
	if !ok {
		return "", "", false
	}
	return typ, name.Lexeme, true
}

// ---------------------------------------------------------------------------
// Methods and instructions
// ---------------------------------------------------------------------------

func implicitMethod() *il.Method {
	return &il.Method{Name: ImplicitMethod, DeclaringType: ImplicitType, Static: true, Returns: "void"}
}

func (p *Parser) startMethod(m *il.Method) {
	p.method = m
	p.nextOffset = 0
	p.offsets = make(map[int]bool)
	p.hasLocals = false
	p.maxSlot = -1
}

// finishMethod closes the current method, inferring its local count from
// the slots it references when no .locals directive was given.
func (p *Parser) finishMethod() {
	if p.method == nil {
		return
	}
	if !p.hasLocals {
		p.method.Locals = p.maxSlot + 1
	}
	p.module.Methods = append(p.module.Methods, p.method)
	p.method = nil
}

func (p *Parser) parseInstruction() {
	if p.method == nil {
		p.startMethod(implicitMethod())
	}

	offset := p.nextOffset
	if p.currentToken.Type == LABEL {
		n, err := strconv.ParseInt(p.currentToken.Literal, 16, 32)
		if err != nil {
			p.invalid("label", p.currentToken)
			return
		}
		offset = int(n)
		p.nextToken()
	}

	mnemonic, ok := p.expect(IDENT, "opcode")
	if !ok {
		return
	}
	op, known := il.Lookup(strings.ToLower(mnemonic.Lexeme))
	if !known {
		p.addError("Unknown opcode", mnemonic.Lexeme, mnemonic.Pos)
		p.skipLine()
		return
	}

	operand, ok := p.parseOperand(op)
	if !ok {
		return
	}

	if p.offsets[offset] {
		p.addError("Duplicate instruction offset", il.Label(offset), mnemonic.Pos)
		p.skipLine()
		return
	}
	p.offsets[offset] = true

	in := il.Instruction{Offset: offset, Op: op, Operand: operand, Size: op.Size()}
	p.method.Instructions = append(p.method.Instructions, in)
	p.nextOffset = offset + in.Size
	p.trackSlot(in)

	p.expectLineEnd()
}

func (p *Parser) trackSlot(in il.Instruction) {
	slot := -1
	switch in.Op {
	case il.Ldloc0, il.Stloc0:
		slot = 0
	case il.Ldloc1, il.Stloc1:
		slot = 1
	case il.Ldloc2, il.Stloc2:
		slot = 2
	case il.Ldloc3, il.Stloc3:
		slot = 3
	case il.LdlocS, il.StlocS:
		if n, ok := in.Operand.Int(); ok {
			slot = int(n)
		}
	}
	if slot > p.maxSlot {
		p.maxSlot = slot
	}
}

func (p *Parser) parseOperand(op il.Opcode) (il.Operand, bool) {
	switch op.OperandKind() {
	case il.InlineNone:
		return il.NoOperand(), true

	case il.ShortInlineI, il.InlineI:
		tok, ok := p.expect(NUM, "integer")
		if !ok {
			return il.Operand{}, false
		}
		n, err := strconv.ParseInt(tok.Literal, 0, 64)
		if err != nil || n < -2147483648 || n > 4294967295 {
			p.invalid("integer", tok)
			return il.Operand{}, false
		}
		if op.OperandKind() == il.ShortInlineI && (n < -128 || n > 127) {
			p.addError("Short-form literal out of range", tok.Lexeme, tok.Pos)
			p.skipLine()
			return il.Operand{}, false
		}
		return il.IntOperand(int64(int32(n))), true

	case il.ShortInlineVar:
		tok := p.currentToken
		var digits string
		switch {
		case tok.Type == NUM:
			digits = tok.Literal
		case tok.Type == IDENT && strings.HasPrefix(tok.Lexeme, "V_"):
			digits = strings.TrimPrefix(tok.Lexeme, "V_")
		default:
			p.unexpected("slot index")
			return il.Operand{}, false
		}
		n, err := strconv.ParseInt(digits, 0, 32)
		if err != nil || n < 0 || n > 255 {
			p.invalid("slot index", tok)
			return il.Operand{}, false
		}
		p.nextToken()
		return il.IntOperand(n), true

	case il.ShortInlineBrTarget, il.InlineBrTarget:
		tok := p.currentToken
		var (
			n   int64
			err error
		)
		switch tok.Type {
		case OFFSET:
			n, err = strconv.ParseInt(tok.Literal, 16, 32)
		case NUM:
			n, err = strconv.ParseInt(tok.Literal, 0, 32)
		default:
			p.unexpected("branch target")
			return il.Operand{}, false
		}
		if err != nil {
			p.invalid("branch target", tok)
			return il.Operand{}, false
		}
		p.nextToken()
		return il.IntOperand(n), true

	case il.InlineString:
		tok, ok := p.expect(STRING, "string literal")
		if !ok {
			return il.Operand{}, false
		}
		return il.StringOperand(tok.Literal), true

	case il.InlineMethod:
		ref, ok := p.parseMethodRef(op)
		if !ok {
			return il.Operand{}, false
		}
		return il.MemberOperand(ref), true

	case il.InlineField:
		typ, ok := p.parseType()
		if !ok {
			return il.Operand{}, false
		}
		owner, name, ok := p.parseQualified()
		if !ok {
			return il.Operand{}, false
		}
		return il.MemberOperand(&il.MemberRef{Kind: il.FieldMember, Type: owner, Name: name, Returns: typ}), true

	case il.InlineType:
		typ, ok := p.parseType()
		if !ok {
			return il.Operand{}, false
		}
		return il.TypeOperand(&il.TypeRef{Name: typ}), true
	}

	return il.Operand{}, false
}

// parseMethodRef parses `[instance] ret Type::Name(types)`.
func (p *Parser) parseMethodRef(op il.Opcode) (*il.MemberRef, bool) {
	static := true
	if p.isIdent("instance") {
		static = false
		p.nextToken()
	}

	ret, ok := p.parseType()
	if !ok {
		return nil, false
	}
	typ, name, ok := p.parseQualified()
	if !ok {
		return nil, false
	}
	params, ok := p.parseParams()
	if !ok {
		return nil, false
	}

	ref := &il.MemberRef{Kind: il.MethodMember, Type: typ, Name: name, Returns: ret, Static: static}
	for _, param := range params {
		ref.Params = append(ref.Params, param.Type)
	}
	if op == il.Newobj || name == il.CtorName {
		ref.Kind = il.CtorMember
		ref.Static = false
	}

	return ref, true
}
