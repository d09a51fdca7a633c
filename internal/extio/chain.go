package extio

import (
	"errors"
	"fmt"
	"os"
)

// ChainProvider tries each Provider in order, returning the first
// successful Load. Grounded on internal/arch.Assembler's own "try the
// hull, then load" fallback shape, applied one level up so SPEC_FULL §9's
// configurable extension search paths can sit in front of the embedded
// default set rather than replacing it.
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider returns a Provider that consults providers in order,
// keeping the first one to successfully load a given extension name.
func NewChainProvider(providers ...Provider) ChainProvider {
	return ChainProvider{providers: providers}
}

func (c ChainProvider) Load(extensionName string) (Record, error) {
	var errs []error
	for _, p := range c.providers {
		rec, err := p.Load(extensionName)
		if err == nil {
			return rec, nil
		}
		errs = append(errs, err)
	}
	return Record{}, fmt.Errorf("extio: extension %q not found in any provider: %w", extensionName, errors.Join(errs...))
}

// NewSearchPathProvider returns a Provider that looks for "<name>.json"
// under each of searchPaths in order before falling back to
// NewDefaultProvider's embedded rv32i/rv64i/rv32m/rv64m set, mirroring
// SPEC_FULL §9's configurable extension_search_paths.
func NewSearchPathProvider(searchPaths []string) Provider {
	providers := make([]Provider, 0, len(searchPaths)+1)
	for _, dir := range searchPaths {
		providers = append(providers, NewFSProvider(os.DirFS(dir)))
	}
	providers = append(providers, NewDefaultProvider())
	return NewChainProvider(providers...)
}
