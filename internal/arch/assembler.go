package arch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kasm-riscv/kasm/internal/extio"
)

// Assembler resolves an ExtensionFormula into a validated Architecture.
// It performs the depth-first, cycle-tolerant traversal spec §4.2
// describes, grounded directly on the teacher's
// v0/kasm/dependency_graph.Instance (hull + traversal stack, back-edges
// silently skipped) generalized from "scan %include directives" to
// "resolve named Extension dependencies".
type Assembler struct {
	provider extio.Provider

	// hull memoizes fully-resolved extensions by name, avoiding repeated
	// loads/merges of shared dependencies.
	hull map[string]Extension

	// edges records "name depends on dep" pairs discovered by every Assemble
	// call on this Assembler so far (never cleared), forward edges only
	// (back-edges are recorded
	// separately so DependencyDOT can highlight them). Used by
	// DependencyTree/DependencyDOT (SPEC_FULL §9).
	edges    map[string][]string
	backEdges map[string][]string
}

// NewAssembler returns an Assembler that loads extension data from
// provider.
func NewAssembler(provider extio.Provider) *Assembler {
	return &Assembler{
		provider:  provider,
		hull:      make(map[string]Extension),
		edges:     make(map[string][]string),
		backEdges: make(map[string][]string),
	}
}

// Assemble runs the graph algorithm and returns the validated Architecture
// for formula, or an error if validation fails.
func (a *Assembler) Assemble(formula Formula) (Architecture, error) {
	architecture := NewOpenArchitecture(formula.ArchitectureName)

	for _, name := range formula.Extensions {
		ext, err := a.brew(name, make(map[string]bool))
		if err != nil {
			return Architecture{}, err
		}
		architecture.extend(ext)
	}

	return a.validate(architecture)
}

// brew is the main recursive implementation of the graph traversal (spec
// §4.2 steps 1-7). If the extension has already been fully resolved
// (present in the hull) it is returned immediately. Otherwise the extension
// is loaded, its own dependencies (not already on the traversal stack) are
// resolved and merged in first, reset flags are applied, then the
// extension's own fields are deserialized on top.
func (a *Assembler) brew(name string, stack map[string]bool) (Extension, error) {
	if cached, ok := a.hull[name]; ok {
		return cached, nil
	}

	stack[name] = true
	defer delete(stack, name)

	rec, err := a.provider.Load(name)
	if err != nil {
		return Extension{}, err
	}

	built := NewExtension(name)

	for _, depName := range rec.Extends {
		if stack[depName] {
			// Back-edge: a cycle. Silently skip it — this is the
			// cycle-breaking policy spec §4.2 step 4 mandates.
			a.backEdges[name] = append(a.backEdges[name], depName)
			continue
		}
		a.edges[name] = append(a.edges[name], depName)

		dep, err := a.brew(depName, stack)
		if err != nil {
			return Extension{}, err
		}
		built.merge(dep)
	}

	if rec.ResetInstructions {
		built.clearInstructions()
	}
	if rec.ResetUnits {
		built.clearUnits()
	}

	own, err := decodeExtension(rec)
	if err != nil {
		return Extension{}, err
	}
	// The extension's own fields are deserialized on top of the merged
	// dependency state: later writes win (spec §4.2 step 6).
	built.merge(own)
	built.Name = name

	a.hull[name] = built
	return built, nil
}

// validate freezes architecture and checks spec §3's invariants: all four
// scalars set, at least one unit with at least one register, at least one
// instruction.
func (a *Assembler) validate(architecture Architecture) (Architecture, error) {
	var missing []string
	if !architecture.EndiannessSet {
		missing = append(missing, "endianness")
	}
	if !architecture.AlignmentSet {
		missing = append(missing, "alignment")
	}
	if !architecture.WordSizeSet {
		missing = append(missing, "word-size")
	}
	if !architecture.ByteSizeSet {
		missing = append(missing, "byte-size")
	}
	if len(missing) > 0 {
		return Architecture{}, fmt.Errorf("arch: architecture %q is missing required field(s): %s",
			architecture.Name, strings.Join(missing, ", "))
	}

	hasRegister := false
	for _, unit := range architecture.Units {
		if len(unit.Registers) > 0 {
			hasRegister = true
			break
		}
	}
	if len(architecture.Units) == 0 || !hasRegister {
		return Architecture{}, fmt.Errorf("arch: architecture %q must have at least one unit with at least one register", architecture.Name)
	}

	if len(architecture.Instructions) == 0 {
		return Architecture{}, fmt.Errorf("arch: architecture %q must have at least one instruction", architecture.Name)
	}

	architecture.validated = true
	return architecture, nil
}

// DependencyTree renders the extension dependency graph discovered by this
// Assembler's Assemble calls so far as a tree-style string, in the manner of
// the teacher's dependency_graph.Instance.String (SPEC_FULL §9).
func (a *Assembler) DependencyTree() string {
	if len(a.edges) == 0 && len(a.backEdges) == 0 {
		return "(empty graph)"
	}

	targets := make(map[string]bool)
	for _, deps := range a.edges {
		for _, d := range deps {
			targets[d] = true
		}
	}

	var roots []string
	for name := range a.hull {
		if !targets[name] {
			roots = append(roots, name)
		}
	}
	if len(roots) == 0 {
		for name := range a.hull {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)

	var sb strings.Builder
	visited := make(map[string]bool)
	for i, root := range roots {
		if i > 0 {
			sb.WriteByte('\n')
		}
		a.writeTree(&sb, root, "", visited)
	}
	return sb.String()
}

func (a *Assembler) writeTree(sb *strings.Builder, name, prefix string, visited map[string]bool) {
	if visited[name] {
		sb.WriteString(name)
		sb.WriteString(" (shared)\n")
		return
	}
	sb.WriteString(name)
	sb.WriteByte('\n')
	visited[name] = true

	deps := a.edges[name]
	for i, dep := range deps {
		last := i == len(deps)-1
		sb.WriteString(prefix)
		if last {
			sb.WriteString("└── ")
		} else {
			sb.WriteString("├── ")
		}
		childPrefix := prefix
		if last {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
		a.writeTree(sb, dep, childPrefix, visited)
	}
}

// DependencyDOT renders the extension dependency graph (forward edges and
// skipped back-edges, the latter highlighted) as Graphviz DOT, in the
// manner of the teacher's dependency_graph.Instance.ToDot (SPEC_FULL §9).
func (a *Assembler) DependencyDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph extensions {\n")

	names := make(map[string]bool)
	for name := range a.hull {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		sb.WriteString(fmt.Sprintf("  %q;\n", name))
	}
	for _, name := range sorted {
		for _, dep := range a.edges[name] {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", name, dep))
		}
		for _, dep := range a.backEdges[name] {
			sb.WriteString(fmt.Sprintf("  %q -> %q [color=red, label=\"cycle\"];\n", name, dep))
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
