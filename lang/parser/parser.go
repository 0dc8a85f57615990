// Package parser implements Objo's expression and statement parser: a
// Pratt/precedence-climbing parser for expressions, and a recursive-descent
// parser for statements.
package parser

import (
	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/lexer"
	"github.com/gkjpettet/objo/lang/token"
)

// Parse tokenizes and parses source, attributing positions to scriptID, and
// returns the resulting Chunk. A non-nil error holds the parser's own errors,
// or the lexer's when parsing found none; either way it is a single *Error
// of that package or an errors.Join of several.
func Parse(source string, scriptID int) (*ast.Chunk, error) {
	toks, lexErr := lexer.Tokenize(source, scriptID)
	p := &parser{toks: toks, scriptID: scriptID}
	p.advance()

	chunk := &ast.Chunk{ScriptID: scriptID}
	for !p.check(token.EOF) {
		if p.check(token.ENDOFLINE) {
			p.advance()
			continue
		}
		chunk.Stmts = append(chunk.Stmts, p.declaration())
	}

	if lexErr != nil && len(p.errs) == 0 {
		return chunk, lexErr
	}
	if len(p.errs) > 0 {
		p.errs.Sort()
		return chunk, p.errs.Err()
	}
	return chunk, nil
}

type parser struct {
	toks     []token.Token
	pos      int
	cur      token.Token
	scriptID int
	errs     ErrorList
}

// ---- token stream helpers ----

func (p *parser) advance() {
	p.cur = p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

// expect consumes the current token if it has kind k, otherwise records an
// error and panics with errPanicMode, recovered at the next statement
// boundary by declaration().
func (p *parser) expect(k token.Kind, context string) token.Token {
	if !p.check(k) {
		p.errorf("expected %s %s, found %s", k, context, p.cur)
		panic(errPanicMode)
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *parser) errorf(format string, args ...any) {
	p.errs.Add(p.scriptID, p.cur.Line, format, args...)
}

// skipEndOfLines consumes zero or more ENDOFLINE tokens; used where a
// newline is optional (e.g. before a block's closing brace).
func (p *parser) skipEndOfLines() {
	for p.check(token.ENDOFLINE) {
		p.advance()
	}
}

// endStatement consumes the statement terminator: an ENDOFLINE, a ';', or
// EOF/'}' (which are left for the caller to see).
func (p *parser) endStatement() {
	if p.check(token.ENDOFLINE) || p.check(token.SEMI) {
		p.advance()
		p.skipEndOfLines()
		return
	}
	if p.check(token.EOF) || p.check(token.RBRACE) {
		return
	}
	p.errorf("expected end of statement, found %s", p.cur)
	panic(errPanicMode)
}

// ---- panic-mode recovery ----

func (p *parser) synchronise() {
	p.advance()
	for !p.check(token.EOF) {
		if p.check(token.ENDOFLINE) || p.check(token.SEMI) {
			p.advance()
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FOREIGN, token.FUNCTION, token.VAR, token.FOR, token.FOREACH,
			token.IF, token.WHILE, token.DO, token.RETURN, token.SELECT, token.BREAKPOINT, token.ASSERT:
			return
		}
		p.advance()
	}
}

// ---- declarations & statements ----

func (p *parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			p.synchronise()
			stmt = &ast.ExprStmt{LineNo: p.cur.Line, Expr: &ast.NothingLit{LineNo: p.cur.Line}}
		}
	}()

	switch p.cur.Kind {
	case token.VAR:
		return p.varDeclaration()
	case token.CLASS:
		return p.classDeclaration(false)
	case token.FOREIGN:
		p.advance()
		p.expect(token.CLASS, "after 'foreign'")
		return p.classDeclaration(true)
	case token.FUNCTION:
		return p.functionDeclaration()
	default:
		return p.statement()
	}
}

func (p *parser) varDeclaration() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'var'
	name := p.expect(token.IDENT, "variable name").Lexeme

	var init ast.Expr
	if p.match(token.EQ) {
		init = p.expression()
	}
	p.endStatement()
	return &ast.VarStmt{LineNo: line, Name: name, Initialiser: init}
}

func (p *parser) functionDeclaration() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'function'
	name := p.expect(token.IDENT, "function name").Lexeme
	params := p.parameterList()
	body := p.block()
	return &ast.FunctionStmt{LineNo: line, Name: name, Params: params, Body: body, Kind: ast.FuncPlain}
}

func (p *parser) parameterList() []ast.Parameter {
	p.expect(token.LPAREN, "after function name")
	var params []ast.Parameter
	for !p.check(token.RPAREN) {
		if p.check(token.FIELD) {
			params = append(params, ast.Parameter{Name: p.cur.Lexeme, IsField: true})
			p.advance()
		} else {
			params = append(params, ast.Parameter{Name: p.expect(token.IDENT, "parameter name").Lexeme})
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, "after parameter list")
	return params
}

func (p *parser) classDeclaration(foreign bool) ast.Stmt {
	line := p.cur.Line
	p.advance() // 'class'
	name := p.expect(token.UPPER_IDENT, "class name").Lexeme

	var super string
	if p.match(token.LT) {
		super = p.expect(token.UPPER_IDENT, "superclass name").Lexeme
	}

	cls := &ast.ClassStmt{LineNo: line, Name: name, IsForeign: foreign, Superclass: super}

	p.expect(token.LBRACE, "to start class body")
	p.skipEndOfLines()
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.classMember(cls)
		p.skipEndOfLines()
	}
	p.expect(token.RBRACE, "to close class body")
	return cls
}

func (p *parser) classMember(cls *ast.ClassStmt) {
	static := p.match(token.STATIC)

	switch {
	case p.check(token.CONSTRUCTOR):
		line := p.cur.Line
		p.advance()
		params := p.parameterList()
		body := p.block()
		cls.Constructors = append(cls.Constructors, &ast.FunctionStmt{
			LineNo: line, Name: "new", Params: params, Body: body, Kind: ast.FuncConstructor,
		})
	case p.check(token.FIELD):
		cls.Fields = append(cls.Fields, p.cur.Lexeme)
		p.advance()
		p.endStatement()
	case p.check(token.STATIC_FIELD):
		cls.StaticFields = append(cls.StaticFields, p.cur.Lexeme)
		p.advance()
		p.endStatement()
	default:
		line := p.cur.Line
		name := p.methodName()
		params := p.parameterList()
		var body *ast.Block
		if cls.IsForeign {
			p.endStatement() // foreign methods have no body: implemented host-side
		} else {
			body = p.block()
		}
		cls.Methods = append(cls.Methods, &ast.FunctionStmt{
			LineNo: line, Name: name, Params: params, Body: body, Kind: ast.FuncMethod, IsStatic: static,
		})
	}
}

// methodName accepts any single token as a method name: an identifier or an
// operator such as `+` or `==` (declared as `+(_)`, `==(_)`). A subscript
// operator spans two tokens (`[` and `]`), so it cannot be declared this way.
func (p *parser) methodName() string {
	tok := p.cur
	p.advance()
	return tok.Lexeme
}

func (p *parser) block() *ast.Block {
	line := p.cur.Line
	p.expect(token.LBRACE, "to start block")
	p.skipEndOfLines()
	b := &ast.Block{LineNo: line}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		b.Stmts = append(b.Stmts, p.declaration())
		p.skipEndOfLines()
	}
	p.expect(token.RBRACE, "to close block")
	return b
}

func (p *parser) statement() ast.Stmt {
	switch p.cur.Kind {
	case token.LBRACE:
		line := p.cur.Line
		return &ast.BlockStmt{LineNo: line, Body: p.block()}
	case token.IF:
		return p.ifStatement()
	case token.WHILE:
		return p.whileStatement()
	case token.DO:
		return p.doUntilStatement()
	case token.FOR:
		return p.forStatement()
	case token.FOREACH:
		return p.forEachStatement()
	case token.RETURN:
		return p.returnStatement()
	case token.EXIT:
		return p.exitStatement()
	case token.CONTINUE:
		line := p.cur.Line
		p.advance()
		p.endStatement()
		return &ast.ContinueStmt{LineNo: line}
	case token.BREAKPOINT:
		line := p.cur.Line
		p.advance()
		p.endStatement()
		return &ast.BreakpointStmt{LineNo: line}
	case token.ASSERT:
		return p.assertStatement()
	case token.SELECT:
		return p.switchStatement()
	default:
		return p.expressionStatement()
	}
}

func (p *parser) ifStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'if'
	cond := p.expression()
	then := p.block()

	stmt := &ast.IfStmt{LineNo: line, Condition: cond, Then: then}
	p.skipEndOfLines()
	if p.match(token.ELSE) {
		if p.check(token.IF) {
			stmt.Else = p.ifStatement()
		} else {
			elseLine := p.cur.Line
			stmt.Else = &ast.BlockStmt{LineNo: elseLine, Body: p.block()}
		}
	}
	return stmt
}

func (p *parser) whileStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'while'
	cond := p.expression()
	body := p.block()
	return &ast.WhileStmt{LineNo: line, Condition: cond, Body: body}
}

func (p *parser) doUntilStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'do'
	body := p.block()
	p.expect(token.UNTIL, "after 'do' block")
	cond := p.expression()
	p.endStatement()
	return &ast.DoUntilStmt{LineNo: line, Body: body, Condition: cond}
}

func (p *parser) forStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'for'
	p.expect(token.LPAREN, "after 'for'")

	var init ast.Stmt
	if !p.check(token.SEMI) {
		if p.check(token.VAR) {
			init = p.varDeclarationNoTerm()
		} else {
			init = &ast.ExprStmt{LineNo: p.cur.Line, Expr: p.expression()}
		}
	}
	p.expect(token.SEMI, "after for-loop initialiser")

	var cond ast.Expr
	if !p.check(token.SEMI) {
		cond = p.expression()
	}
	p.expect(token.SEMI, "after for-loop condition")

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		incr = p.expression()
	}
	p.expect(token.RPAREN, "after for-loop increment")

	body := p.block()
	return &ast.ForStmt{LineNo: line, Init: init, Condition: cond, Increment: incr, Body: body}
}

// varDeclarationNoTerm parses `var name = init` without consuming a
// statement terminator, for use in a for-loop's initialiser clause.
func (p *parser) varDeclarationNoTerm() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'var'
	name := p.expect(token.IDENT, "variable name").Lexeme
	var init ast.Expr
	if p.match(token.EQ) {
		init = p.expression()
	}
	return &ast.VarStmt{LineNo: line, Name: name, Initialiser: init}
}

func (p *parser) forEachStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'foreach'
	name := p.expect(token.IDENT, "loop variable name").Lexeme
	p.expect(token.IN, "after foreach loop variable")
	iterable := p.expression()
	body := p.block()
	return &ast.ForEachStmt{LineNo: line, Identifier: name, Iterable: iterable, Body: body}
}

func (p *parser) returnStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'return'
	var val ast.Expr
	if !p.check(token.ENDOFLINE) && !p.check(token.SEMI) && !p.check(token.RBRACE) && !p.check(token.EOF) {
		val = p.expression()
	}
	p.endStatement()
	return &ast.ReturnStmt{LineNo: line, Value: val}
}

// exitStatement parses `exit`, which breaks out of the innermost enclosing
// loop (paired with `continue`, not a process-exit).
func (p *parser) exitStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'exit'
	p.endStatement()
	return &ast.ExitStmt{LineNo: line}
}

func (p *parser) assertStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'assert'
	cond := p.expression()
	var msg ast.Expr
	if p.match(token.COMMA) {
		msg = p.expression()
	}
	p.endStatement()
	return &ast.AssertStmt{LineNo: line, Condition: cond, Message: msg}
}

func (p *parser) switchStatement() ast.Stmt {
	line := p.cur.Line
	p.advance() // 'select'
	subject := p.expression()
	p.expect(token.LBRACE, "to start switch body")
	p.skipEndOfLines()

	stmt := &ast.SwitchStmt{LineNo: line, Subject: subject}
	for p.check(token.CASE) {
		p.advance()
		c := &ast.SwitchCase{}
		c.Values = append(c.Values, p.expression())
		for p.match(token.COMMA) {
			c.Values = append(c.Values, p.expression())
		}
		c.Body = p.block()
		stmt.Cases = append(stmt.Cases, c)
		p.skipEndOfLines()
	}
	if p.match(token.ELSE) {
		stmt.Else = p.block()
		p.skipEndOfLines()
	}
	p.expect(token.RBRACE, "to close switch body")
	return stmt
}

func (p *parser) expressionStatement() ast.Stmt {
	line := p.cur.Line
	expr := p.expression()

	// `x++` / `x--` sugar for `x = x + 1` / `x = x - 1`.
	if p.check(token.PLUS_PLUS) || p.check(token.MINUS_MINUS) {
		op := token.PLUS
		if p.cur.Kind == token.MINUS_MINUS {
			op = token.MINUS
		}
		p.advance()
		expr = &ast.AssignExpr{
			LineNo: line, Target: expr, Operator: token.EQ,
			Value: &ast.BinaryExpr{LineNo: line, Left: expr, Operator: op, Right: &ast.NumberLit{LineNo: line, Value: 1, IsInteger: true}},
		}
	}

	p.endStatement()
	return &ast.ExprStmt{LineNo: line, Expr: expr}
}

// ---- expressions (Pratt parser) ----

func (p *parser) expression() ast.Expr { return p.parsePrecedence(precLowest) }

func (p *parser) parsePrecedence(min precedence) ast.Expr {
	r := getRule(p.cur.Kind)
	if r.prefix == nil {
		p.errorf("expected an expression, found %s", p.cur)
		panic(errPanicMode)
	}
	left := r.prefix(p)

	for {
		r = getRule(p.cur.Kind)
		if r.infix == nil || r.prec <= min {
			break
		}
		left = r.infix(p, left)
	}
	return left
}

func parseNumber(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.NumberLit{LineNo: tok.Line, Value: tok.NumberValue, IsInteger: tok.IsInteger}
}

func parseString(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.StringLit{LineNo: tok.Line, Value: tok.Lexeme}
}

func parseBoolean(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.BooleanLit{LineNo: tok.Line, Value: tok.BoolValue}
}

func parseNothing(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.NothingLit{LineNo: tok.Line}
}

func parseIdentifier(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.Identifier{LineNo: tok.Line, Name: tok.Lexeme}
}

func parseField(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.FieldExpr{LineNo: tok.Line, Name: tok.Lexeme}
}

func parseStaticField(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.StaticFieldExpr{LineNo: tok.Line, Name: tok.Lexeme}
}

func parseThis(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.ThisExpr{LineNo: tok.Line}
}

func parseSuper(p *parser) ast.Expr {
	line := p.cur.Line
	p.advance() // 'super'
	p.expect(token.DOT, "after 'super'")
	name := p.expect(token.IDENT, "superclass member name").Lexeme

	if p.match(token.EQ) {
		val := p.expression()
		return &ast.SuperExpr{LineNo: line, Method: name, Args: []ast.Expr{val}, IsSet: true}
	}

	var args []ast.Expr
	if p.match(token.LPAREN) {
		args = p.argumentList()
	}
	return &ast.SuperExpr{LineNo: line, Method: name, Args: args}
}

func parseGrouping(p *parser) ast.Expr {
	p.advance() // '('
	expr := p.expression()
	p.expect(token.RPAREN, "to close grouped expression")
	return expr
}

func parseUnary(p *parser) ast.Expr {
	tok := p.cur
	p.advance()
	operand := p.parsePrecedence(precUnary)
	return &ast.UnaryExpr{LineNo: tok.Line, Operator: tok.Kind, Operand: operand}
}

func parseBinary(p *parser, left ast.Expr) ast.Expr {
	tok := p.cur
	r := getRule(tok.Kind)
	p.advance()
	right := p.parsePrecedence(r.prec)
	return &ast.BinaryExpr{LineNo: tok.Line, Left: left, Operator: tok.Kind, Right: right}
}

func parseLogical(p *parser, left ast.Expr) ast.Expr {
	tok := p.cur
	r := getRule(tok.Kind)
	p.advance()
	right := p.parsePrecedence(r.prec)
	return &ast.LogicalExpr{LineNo: tok.Line, Left: left, Operator: tok.Kind, Right: right}
}

func parseRange(p *parser, left ast.Expr) ast.Expr {
	tok := p.cur
	inclusive := tok.Kind == token.DOTDOTDOT
	p.advance()
	right := p.parsePrecedence(precRange)
	return &ast.RangeExpr{LineNo: tok.Line, From: left, To: right, Inclusive: inclusive}
}

// parseTernary parses `then thenExpr if condition else elseExpr`, the
// keyword order the conditional expression is documented with.
func parseTernary(p *parser) ast.Expr {
	line := p.cur.Line
	p.advance() // 'then'
	thenExpr := p.parsePrecedence(precConditional)
	p.expect(token.IF, "in conditional expression")
	cond := p.parsePrecedence(precConditional)
	p.expect(token.ELSE, "in conditional expression")
	elseExpr := p.parsePrecedence(precConditional)
	return &ast.TernaryExpr{LineNo: line, Condition: cond, Then: thenExpr, Else: elseExpr}
}

func parseAssign(p *parser, left ast.Expr) ast.Expr {
	tok := p.cur
	p.advance()
	value := p.parsePrecedence(precAssignment - 1)

	if idx, ok := left.(*ast.IndexExpr); ok && tok.Kind == token.EQ {
		return &ast.SetIndexExpr{LineNo: tok.Line, Collection: idx.Collection, Indices: idx.Indices, Value: value}
	}
	return &ast.AssignExpr{LineNo: tok.Line, Target: left, Operator: tok.Kind, Value: value}
}

func parseCall(p *parser, left ast.Expr) ast.Expr {
	line := p.cur.Line
	p.advance() // '('
	args := p.argumentList()
	return &ast.CallExpr{LineNo: line, Callee: left, Args: args}
}

func (p *parser) argumentList() []ast.Expr {
	var args []ast.Expr
	for !p.check(token.RPAREN) {
		args = append(args, p.expression())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, "after argument list")
	return args
}

func parseIndex(p *parser, left ast.Expr) ast.Expr {
	line := p.cur.Line
	p.advance() // '['
	var indices []ast.Expr
	for !p.check(token.RBRACK) {
		indices = append(indices, p.expression())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACK, "to close index expression")
	return &ast.IndexExpr{LineNo: line, Collection: left, Indices: indices}
}

func parseDot(p *parser, left ast.Expr) ast.Expr {
	p.advance() // '.'
	line := p.cur.Line
	name := p.expect(token.IDENT, "member name after '.'").Lexeme

	if p.match(token.LPAREN) {
		args := p.argumentList()
		return &ast.InvokeExpr{LineNo: line, Receiver: left, Method: name, Args: args}
	}
	// bare member access compiles to a zero-arg invoke (a getter call)
	return &ast.InvokeExpr{LineNo: line, Receiver: left, Method: name}
}

func parseListLit(p *parser) ast.Expr {
	line := p.cur.Line
	p.advance() // '['
	p.skipEndOfLines()
	lit := &ast.ListLit{LineNo: line}
	for !p.check(token.RBRACK) {
		lit.Elements = append(lit.Elements, p.expression())
		p.skipEndOfLines()
		if !p.match(token.COMMA) {
			break
		}
		p.skipEndOfLines()
	}
	p.expect(token.RBRACK, "to close list literal")
	return lit
}

func parseMapLit(p *parser) ast.Expr {
	line := p.cur.Line
	p.advance() // '{'
	p.skipEndOfLines()
	lit := &ast.MapLit{LineNo: line}
	for !p.check(token.RBRACE) {
		keyLine := p.cur.Line
		key := p.expression()
		p.expect(token.COLON, "after map key")
		val := p.expression()
		lit.Pairs = append(lit.Pairs, &ast.KeyValueExpr{LineNo: keyLine, Key: key, Value: val})
		p.skipEndOfLines()
		if !p.match(token.COMMA) {
			break
		}
		p.skipEndOfLines()
	}
	p.expect(token.RBRACE, "to close map literal")
	return lit
}
