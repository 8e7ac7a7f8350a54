// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed block in BibTeX input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// layout is the source shape of one regular entry: its field names in the
// order they were written.
type layout struct {
	fields []string
}

// builtinMacros are the string variables the parser resolves without an
// @string definition. The lookup is case-sensitive.
var builtinMacros = map[string]bool{
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

// prescan rewrites BibTeX so the parser keeps what it would otherwise lose
// or choke on, and records each entry's field order:
//
//   - "quoted" values become {braced} values, keeping inner braces;
//   - bare identifiers that name no @string and no builtin month become
//     {braced} constants, since the parser aborts the process on them.
//
// Whitespace and line breaks are copied so parser positions stay valid.
func prescan(src string) (string, []layout, error) {
	p := &prescanner{src: []rune(src), defined: make(map[string]bool)}
	if err := p.run(); err != nil {
		return "", nil, err
	}
	return p.out.String(), p.layouts, nil
}

type prescanner struct {
	src     []rune
	pos     int
	out     strings.Builder
	defined map[string]bool
	layouts []layout
}

func (p *prescanner) run() error {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch != '@' {
			p.out.WriteRune(ch)
			p.pos++
			continue
		}
		p.emit()

		p.skipSpace()
		kind := p.bare()
		p.out.WriteString(kind)

		var err error
		switch strings.ToLower(kind) {
		case "":
			err = p.errorf("expected entry type after @")
		case "comment":
			p.comment()
		case "string":
			err = p.stringDef()
		case "preamble":
			err = p.preamble()
		default:
			err = p.entry()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// comment copies everything up to the next @.
func (p *prescanner) comment() {
	for p.pos < len(p.src) && p.src[p.pos] != '@' {
		p.emit()
	}
}

func (p *prescanner) stringDef() error {
	closer, err := p.open()
	if err != nil {
		return err
	}
	p.skipSpace()
	name := p.bare()
	if name == "" {
		return p.errorf("expected @string name")
	}
	p.out.WriteString(name)
	p.skipSpace()
	if err := p.expect('='); err != nil {
		return err
	}
	if err := p.value(); err != nil {
		return err
	}
	p.skipSpace()
	if err := p.expect(closer); err != nil {
		return err
	}
	p.defined[name] = true
	return nil
}

func (p *prescanner) preamble() error {
	closer, err := p.open()
	if err != nil {
		return err
	}
	if err := p.value(); err != nil {
		return err
	}
	p.skipSpace()
	return p.expect(closer)
}

func (p *prescanner) entry() error {
	closer, err := p.open()
	if err != nil {
		return err
	}
	p.skipSpace()
	key := p.bare()
	if key == "" {
		return p.errorf("expected citation key")
	}
	p.out.WriteString(key)
	p.skipSpace()

	var l layout
	defer func() { p.layouts = append(p.layouts, l) }()

	if p.peek() == closer {
		p.emit()
		return nil
	}
	if err := p.expect(','); err != nil {
		return err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case 0:
			return p.errorf("unterminated entry %s", key)
		case closer:
			p.emit()
			return nil
		}

		name := p.bare()
		if name == "" {
			return p.errorf("unexpected %q in entry %s", p.peek(), key)
		}
		p.out.WriteString(name)
		p.skipSpace()
		if err := p.expect('='); err != nil {
			return err
		}
		if err := p.value(); err != nil {
			return err
		}
		l.fields = append(l.fields, name)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.emit()
		case closer:
			p.emit()
			return nil
		default:
			return p.errorf("expected , or %c after field %s in entry %s", closer, name, key)
		}
	}
}

// value copies a field value: parts joined by #, each braced, quoted or
// bare.
func (p *prescanner) value() error {
	for {
		p.skipSpace()
		switch ch := p.peek(); {
		case ch == '{':
			if err := p.braced(); err != nil {
				return err
			}
		case ch == '"':
			if err := p.quoted(); err != nil {
				return err
			}
		case isAlphanum(ch):
			tok := p.bare()
			if isDigits(tok) || p.defined[tok] || builtinMacros[tok] {
				p.out.WriteString(tok)
			} else {
				p.out.WriteString("{" + tok + "}")
			}
		default:
			return p.errorf("expected value, found %q", ch)
		}

		p.skipSpace()
		if p.peek() != '#' {
			return nil
		}
		p.emit()
	}
}

func (p *prescanner) braced() error {
	start := p.pos
	depth := 0
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				p.out.WriteString(string(p.src[start:p.pos]))
				return nil
			}
		}
	}
	p.pos = start
	return p.errorf("unterminated braced value")
}

func (p *prescanner) quoted() error {
	start := p.pos
	depth := 0
	for p.pos++; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				inner := string(p.src[start+1 : p.pos])
				p.pos++
				p.out.WriteString("{" + inner + "}")
				return nil
			}
		}
	}
	p.pos = start
	return p.errorf("unterminated quoted value")
}

// open consumes the { or ( that starts a block body and returns its closer.
func (p *prescanner) open() (rune, error) {
	p.skipSpace()
	switch p.peek() {
	case '{':
		p.emit()
		return '}', nil
	case '(':
		p.emit()
		return ')', nil
	}
	return 0, p.errorf("expected { or (")
}

func (p *prescanner) expect(ch rune) error {
	if p.peek() != ch {
		return p.errorf("expected %q, found %q", ch, p.peek())
	}
	p.emit()
	return nil
}

// bare reads an identifier made of the characters the parser accepts in
// bare words. It does not emit.
func (p *prescanner) bare() string {
	start := p.pos
	for p.pos < len(p.src) && (isAlphanum(p.src[p.pos]) || strings.ContainsRune("-_:./+", p.src[p.pos])) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *prescanner) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.emit()
	}
}

func (p *prescanner) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// emit copies the current rune to the output and advances.
func (p *prescanner) emit() {
	p.out.WriteRune(p.src[p.pos])
	p.pos++
}

func (p *prescanner) errorf(format string, args ...any) error {
	line := 1
	for _, r := range p.src[:min(p.pos, len(p.src))] {
		if r == '\n' {
			line++
		}
	}
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func isAlphanum(ch rune) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
