package parser

import (
	"strings"

	"github.com/kasm-riscv/kasm/internal/diagnostics"
	"github.com/kasm-riscv/kasm/internal/ir"
)

// Parse splits source into logical lines, strips comments, and parses each
// non-blank line into an ir.Operation per spec §4.5's grammar. Parse
// errors are best-effort: a malformed line is recorded into diags and
// skipped, so the rest of the file still parses (spec §7).
func Parse(source string, diags *diagnostics.List) []ir.Operation {
	diags.SetPhase("parse")
	lines := strings.Split(source, "\n")

	var ops []ir.Operation
	for i, raw := range lines {
		lineNo := i + 1
		line := stripComment(raw)
		if isBlank(line) {
			continue
		}
		toks := newLineLexer(line).tokens()
		if len(toks) == 0 {
			continue
		}

		rest := toks
		if label, ok := peekLabel(rest); ok {
			ops = append(ops, ir.Operation{
				Kind:  ir.KindLabel,
				Label: positioned(label, lineNo),
				Line:  lineNo,
			})
			rest = rest[2:] // consume word + ':'
			if len(rest) == 0 {
				continue
			}
		}

		op, err := parseStatement(rest, lineNo)
		if err != nil {
			diags.Error(diags.Loc(lineNo, rest[0].column), err.Error())
			continue
		}
		ops = append(ops, op)
	}
	return ops
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func positioned(t token, line int) ir.PositionedString {
	return ir.PositionedString{Text: t.text, Line: line, Column: t.column}
}

// peekLabel reports whether toks begins with "word :".
func peekLabel(toks []token) (token, bool) {
	if len(toks) >= 2 && toks[0].kind == tokenWord && toks[1].kind == tokenPunct && toks[1].text == ":" {
		return toks[0], true
	}
	return token{}, false
}

func parseStatement(toks []token, lineNo int) (ir.Operation, error) {
	head := toks[0]
	if head.kind != tokenWord {
		return ir.Operation{}, malformedLine(lineNo, head.column, "expected a directive or instruction mnemonic")
	}

	if strings.HasPrefix(head.text, ".") {
		return parseDirective(toks, lineNo)
	}
	return parseInstruction(toks, lineNo)
}

func parseDirective(toks []token, lineNo int) (ir.Operation, error) {
	name := positioned(toks[0], lineNo)
	var args []ir.PositionedString
	for _, t := range toks[1:] {
		if t.kind == tokenPunct && t.text == "," {
			continue
		}
		args = append(args, positioned(t, lineNo))
	}
	return ir.Operation{
		Kind:          ir.KindDirective,
		DirectiveName: name,
		DirectiveArgs: args,
		Line:          lineNo,
	}, nil
}

func parseInstruction(toks []token, lineNo int) (ir.Operation, error) {
	mnemonic := positioned(toks[0], lineNo)
	groups, err := splitOperands(toks[1:], lineNo)
	if err != nil {
		return ir.Operation{}, err
	}

	operands := make([]ir.Operand, 0, len(groups))
	for _, g := range groups {
		operand, err := parseOperand(g, lineNo)
		if err != nil {
			return ir.Operation{}, err
		}
		operands = append(operands, operand)
	}

	return ir.Operation{
		Kind:     ir.KindInstruction,
		Mnemonic: mnemonic,
		Operands: operands,
		Line:     lineNo,
	}, nil
}

// splitOperands partitions a comma-separated operand list, respecting
// parentheses so "8(x2)" stays together as one group.
func splitOperands(toks []token, lineNo int) ([][]token, error) {
	var groups [][]token
	var current []token
	depth := 0
	for _, t := range toks {
		switch {
		case t.kind == tokenPunct && t.text == "(":
			depth++
			current = append(current, t)
		case t.kind == tokenPunct && t.text == ")":
			depth--
			if depth < 0 {
				return nil, malformedLine(lineNo, t.column, "unmatched ')'")
			}
			current = append(current, t)
		case t.kind == tokenPunct && t.text == "," && depth == 0:
			if len(current) == 0 {
				return nil, malformedLine(lineNo, t.column, "empty operand before ','")
			}
			groups = append(groups, current)
			current = nil
		default:
			current = append(current, t)
		}
	}
	if depth != 0 {
		return nil, malformedLine(lineNo, toks[len(toks)-1].column, "unmatched '('")
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}

// parseOperand recognizes a register/identifier (bare word), an immediate
// (bare number), a string literal, or a memory operand in "offset(base)"
// form (spec §4.4 load/store addressing).
func parseOperand(toks []token, lineNo int) (ir.Operand, error) {
	if len(toks) == 1 {
		switch toks[0].kind {
		case tokenWord:
			return ir.Operand{Kind: ir.OperandIdentifier, Text: positioned(toks[0], lineNo)}, nil
		case tokenImmediate:
			return ir.Operand{Kind: ir.OperandImmediate, Text: positioned(toks[0], lineNo)}, nil
		case tokenString:
			return ir.Operand{Kind: ir.OperandString, Text: positioned(toks[0], lineNo)}, nil
		}
	}

	// "offset ( base )" memory operand.
	if len(toks) == 4 && toks[1].kind == tokenPunct && toks[1].text == "(" &&
		toks[3].kind == tokenPunct && toks[3].text == ")" {
		return ir.Operand{
			Kind: ir.OperandMemory,
			Components: []ir.PositionedString{
				positioned(toks[0], lineNo),
				positioned(toks[2], lineNo),
			},
		}, nil
	}

	components := make([]ir.PositionedString, 0, len(toks))
	for _, t := range toks {
		components = append(components, positioned(t, lineNo))
	}
	return ir.Operand{Kind: ir.OperandMemory, Components: components}, nil
}

type syntaxError struct {
	line, column int
	message      string
}

func (e *syntaxError) Error() string {
	return e.message
}

func malformedLine(line, column int, message string) error {
	return &syntaxError{line: line, column: column, message: message}
}
