// Package extio implements the external "extension-data provider" spec §6
// names as an out-of-scope collaborator: a loader of extension records from
// an fs.FS, keyed by extension name, deserializing the opaque
// name/information/extends/reset-* schema spec §6 describes.
package extio

import (
	"encoding/json"
	"fmt"
	"io/fs"
)

// Record is the raw, still-undeserialized form of one extension's data, as
// loaded from disk. It mirrors spec §6's schema exactly: the `information`
// object is kept as raw JSON so that the arch package — not this package —
// owns the authoritative meaning of each field (the "opaque key/value
// structure" spec §4.2 describes, consumed by the caller).
type Record struct {
	Name              string          `json:"name"`
	Information       json.RawMessage `json:"information"`
	Extends           []string        `json:"extends"`
	ResetInstructions bool            `json:"reset-instructions"`
	ResetUnits        bool            `json:"reset-units"`
}

// RegisterRecord mirrors spec §6's register serialization.
type RegisterRecord struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Size         int                     `json:"size"`
	Type         string                  `json:"type"`
	Enclosing    string                  `json:"enclosing,omitempty"`
	Constituents []ConstituentRecord     `json:"constituents,omitempty"`
	Aliases      []string                `json:"aliases,omitempty"`
	Constant     *uint64                 `json:"constant,omitempty"`
}

// ConstituentRecord mirrors spec §6's constituent serialization.
type ConstituentRecord struct {
	ID             string `json:"id"`
	EnclosingIndex int    `json:"enclosing-index"`
}

// UnitRecord mirrors spec §6's unit serialization.
type UnitRecord struct {
	Name      string           `json:"name"`
	Registers []RegisterRecord `json:"registers"`
}

// InstructionRecord mirrors spec §6's instruction serialization.
type InstructionRecord struct {
	Name string         `json:"name"`
	Key  map[string]any `json:"key"`
}

// InformationRecord is the deserialized form of Record.Information.
type InformationRecord struct {
	Endianness        string              `json:"endianness,omitempty"`
	AlignmentBehavior string              `json:"alignment-behavior,omitempty"`
	WordSize          *int                `json:"word-size,omitempty"`
	ByteSize          *int                `json:"byte-size,omitempty"`
	Units             []UnitRecord        `json:"units,omitempty"`
	Instructions      []InstructionRecord `json:"instructions,omitempty"`
}

// Provider loads extension Records by name. It is the concrete stand-in for
// spec §1's "opaque JSON loading of extension files", kept as a narrow
// interface so the arch package never depends on the filesystem directly.
type Provider interface {
	Load(extensionName string) (Record, error)
}

// FSProvider loads extension records named "<name>.json" from the root of
// an fs.FS.
type FSProvider struct {
	FS fs.FS
}

// NewFSProvider returns a Provider backed by root.
func NewFSProvider(root fs.FS) FSProvider {
	return FSProvider{FS: root}
}

// Load reads and parses "<extensionName>.json" from the provider's
// filesystem.
func (p FSProvider) Load(extensionName string) (Record, error) {
	data, err := fs.ReadFile(p.FS, extensionName+".json")
	if err != nil {
		return Record{}, fmt.Errorf("extio: failed to load extension %q: %w", extensionName, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("extio: failed to parse extension %q: %w", extensionName, err)
	}
	if rec.Name == "" {
		return Record{}, fmt.Errorf("extio: extension record %q is missing required field %q", extensionName, "name")
	}
	return rec, nil
}

// DecodeInformation parses a Record's raw Information payload.
func DecodeInformation(rec Record) (InformationRecord, error) {
	if len(rec.Information) == 0 {
		return InformationRecord{}, nil
	}
	var info InformationRecord
	if err := json.Unmarshal(rec.Information, &info); err != nil {
		return InformationRecord{}, fmt.Errorf("extio: failed to parse information for extension %q: %w", rec.Name, err)
	}
	return info, nil
}
