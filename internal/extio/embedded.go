package extio

import (
	"embed"
	"io/fs"
)

// defaultExtensionFiles embeds kasm's concrete RV32I/RV64I/RV32M/RV64M
// extension records (SPEC_FULL §6), mirroring original_source's
// "riscv32-arch"/"riscv64-arch" built-in formulas so the CLI and the
// end-to-end pipeline tests have a working architecture without requiring
// an external extension directory.
//
//go:embed testdata/*.json
var defaultExtensionFiles embed.FS

// NewDefaultProvider returns a Provider backed by the embedded base
// (rv32i/rv64i) and multiply (rv32m/rv64m) extension set.
func NewDefaultProvider() FSProvider {
	root, err := fs.Sub(defaultExtensionFiles, "testdata")
	if err != nil {
		// Cannot happen: "testdata" is a literal, compile-time-embedded directory.
		panic(err)
	}
	return NewFSProvider(root)
}
