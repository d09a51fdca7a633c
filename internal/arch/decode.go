package arch

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/extio"
	"github.com/kasm-riscv/kasm/internal/memvalue"
)

// decodeExtension consumes an extio.Record (and its parsed Information) and
// returns the Extension it describes, per spec §9's unification of the two
// overlapping "Information" deserialization bases into one trait: "consume
// an extension-data record, return the parsed object".
func decodeExtension(rec extio.Record) (Extension, error) {
	ext := NewExtension(rec.Name)
	ext.Extends = rec.Extends
	ext.ResetInstructions = rec.ResetInstructions
	ext.ResetUnits = rec.ResetUnits

	info, err := extio.DecodeInformation(rec)
	if err != nil {
		return Extension{}, err
	}

	if info.Endianness != "" {
		e, err := parseEndianness(info.Endianness)
		if err != nil {
			return Extension{}, fmt.Errorf("arch: extension %q: %w", rec.Name, err)
		}
		ext.Endianness = &e
	}
	if info.AlignmentBehavior != "" {
		a, err := parseAlignment(info.AlignmentBehavior)
		if err != nil {
			return Extension{}, fmt.Errorf("arch: extension %q: %w", rec.Name, err)
		}
		ext.Alignment = &a
	}
	if info.WordSize != nil {
		ext.WordSize = info.WordSize
	}
	if info.ByteSize != nil {
		ext.ByteSize = info.ByteSize
	}

	for _, u := range info.Units {
		unit := Unit{Name: u.Name, Registers: make(map[string]Register, len(u.Registers))}
		for _, r := range u.Registers {
			reg, err := decodeRegister(r)
			if err != nil {
				return Extension{}, fmt.Errorf("arch: extension %q: %w", rec.Name, err)
			}
			unit.Registers[reg.ID] = reg
		}
		ext.Units[u.Name] = unit
	}

	for _, i := range info.Instructions {
		ext.Instructions[i.Name] = Instruction{Name: i.Name, Key: i.Key}
	}

	return ext, nil
}

func decodeRegister(r extio.RegisterRecord) (Register, error) {
	regType, err := parseRegisterType(r.Type)
	if err != nil {
		return Register{}, err
	}

	reg := Register{
		ID:        r.ID,
		Name:      r.Name,
		Aliases:   r.Aliases,
		Width:     r.Size,
		Type:      regType,
		Enclosing: r.Enclosing,
	}
	for _, c := range r.Constituents {
		reg.Constituents = append(reg.Constituents, Constituent{
			ChildID:              c.ID,
			BitOffsetInEnclosing: c.EnclosingIndex,
		})
	}
	if r.Constant != nil {
		v, err := memvalue.FromUnsigned(*r.Constant, r.Size, memvalue.LittleEndian)
		if err != nil {
			return Register{}, fmt.Errorf("register %q: invalid hardwired constant: %w", r.ID, err)
		}
		reg.Hardwired = &v
	}
	return reg, nil
}

func parseEndianness(s string) (memvalue.Endianness, error) {
	switch s {
	case "little":
		return memvalue.LittleEndian, nil
	case "big":
		return memvalue.BigEndian, nil
	case "mixed":
		return memvalue.Mixed, nil
	case "bi":
		return memvalue.Bi, nil
	default:
		return 0, fmt.Errorf("unknown endianness %q", s)
	}
}

func parseAlignment(s string) (AlignmentPolicy, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "relaxed":
		return Relaxed, nil
	default:
		return 0, fmt.Errorf("unknown alignment-behavior %q", s)
	}
}

func parseRegisterType(s string) (RegisterType, error) {
	switch s {
	case "integer":
		return IntegerRegister, nil
	case "float":
		return FloatRegister, nil
	case "vector":
		return VectorRegister, nil
	case "flag":
		return FlagRegister, nil
	case "link":
		return LinkRegister, nil
	case "program-counter":
		return ProgramCounterRegister, nil
	default:
		return 0, fmt.Errorf("unknown register type %q", s)
	}
}
