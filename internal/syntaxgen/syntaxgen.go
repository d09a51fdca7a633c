// Package syntaxgen implements spec §4.7's SyntaxTreeGenerator: it turns
// one already symbol-resolved ir.Operation into an internal/ast.Node tree,
// classifying each operand string by its leading character (register,
// quoted string, or C-like expression) and wiring mnemonic lookup through
// internal/ast's per-family node factories.
//
// Grounded on the teacher's v0/kasm/codegen.go operand-dispatch switch
// (inspect the first token, branch to register/immediate/label handling)
// generalized to spec §4.7's exact four-way classification and to
// internal/ast's tagged Node instead of the teacher's per-kind node types.
package syntaxgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kasm-riscv/kasm/internal/ast"
	"github.com/kasm-riscv/kasm/internal/expr"
	"github.com/kasm-riscv/kasm/internal/ir"
	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// Generate builds the instruction node for op, appending one child per
// operand in source order (spec §4.7: "targets then sources", which for
// kasm's assembly syntax is simply left-to-right as written). Validation
// failures are returned as an error but the node is still returned
// non-nil, so callers can keep it for best-effort diagnostics per spec §7.
func Generate(op ir.Operation, s *store.Store) (*ast.Node, error) {
	if op.Kind != ir.KindInstruction {
		return nil, fmt.Errorf("syntaxgen: %v is not an instruction", op.Kind)
	}

	node, err := ast.NewInstructionForMnemonic(op.Mnemonic.Text, s.Architecture().WordSize)
	if err != nil {
		return nil, err
	}

	for _, operand := range op.Operands {
		children, err := generateOperand(operand, s)
		if err != nil {
			return node, fmt.Errorf("syntaxgen: operand %q: %w", operand.Text.Text, err)
		}
		for _, child := range children {
			node.AddChild(child)
		}
	}

	if err := node.Validate(s); err != nil {
		return node, err
	}
	return node, nil
}

// generateOperand classifies one already symbol-resolved operand string
// per spec §4.7 step 4 and returns the node(s) it expands to. A memory
// operand ("offset(base)") expands to two nodes, base register first then
// offset immediate, matching the child order internal/ast's load/store
// family expects.
func generateOperand(operand ir.Operand, s *store.Store) ([]*ast.Node, error) {
	if operand.Kind == ir.OperandMemory && len(operand.Components) == 2 {
		base, err := classify(operand.Components[1].Text, s)
		if err != nil {
			return nil, err
		}
		offset, err := classify(operand.Components[0].Text, s)
		if err != nil {
			return nil, err
		}
		return []*ast.Node{base, offset}, nil
	}

	text := operand.Text.Text
	if operand.Kind == ir.OperandMemory { // multi-token operand that isn't "offset(base)": one C-like expression
		parts := make([]string, len(operand.Components))
		for i, c := range operand.Components {
			parts[i] = c.Text
		}
		text = strings.Join(parts, " ")
	}

	node, err := classify(text, s)
	if err != nil {
		return nil, err
	}
	return []*ast.Node{node}, nil
}

// classify implements spec §4.7's four-way operand dispatch directly on a
// single token's text.
func classify(text string, s *store.Store) (*ast.Node, error) {
	if text == "" {
		return nil, fmt.Errorf("syntaxgen: empty operand")
	}

	first := rune(text[0])
	switch {
	case isAlpha(first):
		if !s.Architecture().IsRegisterName(text) {
			return nil, fmt.Errorf("syntaxgen: %q is not a valid register name", text)
		}
		return ast.NewRegister(text), nil
	case first == '"':
		data, err := unquote(text)
		if err != nil {
			return nil, err
		}
		return ast.NewData(data), nil
	default:
		value, err := expr.Compile(text)
		if err != nil {
			return nil, fmt.Errorf("syntaxgen: invalid expression %q: %w", text, err)
		}
		mv, err := memvalue.FromInteger(value, 32, memvalue.LittleEndian, memvalue.TwosComplement)
		if err != nil {
			return nil, err
		}
		return ast.NewImmediate(mv), nil
	}
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

// unquote parses a double-quoted string literal with \n, \t, \\, \"
// escapes (spec §4.7 step 3) into its raw bytes.
func unquote(text string) ([]byte, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return nil, fmt.Errorf("syntaxgen: malformed string literal %q", text)
	}
	body := text[1 : len(text)-1]

	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return nil, fmt.Errorf("syntaxgen: dangling escape in string literal %q", text)
		}
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		default:
			return nil, fmt.Errorf("syntaxgen: unknown escape %q in string literal", "\\"+strconv.QuoteRune(rune(body[i])))
		}
	}
	return []byte(out.String()), nil
}
