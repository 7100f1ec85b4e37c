package engine

import "fmt"

// DefaultSymbolPool returns the numbered image identifiers used when a
// configuration does not bring its own symbols. Renderers map "017" to
// something like img/017.png.
func DefaultSymbolPool() []Symbol {
	pool := make([]Symbol, DefaultPoolSize)
	for i := range pool {
		pool[i] = Symbol(fmt.Sprintf("%03d", i+1))
	}
	return pool
}

// uniqueSymbols reports the first duplicated or empty symbol, if any.
func uniqueSymbols(pool []Symbol) error {
	seen := make(map[Symbol]struct{}, len(pool))
	for i, s := range pool {
		if s == "" {
			return fmt.Errorf("symbol %d is empty", i)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("symbol %q appears more than once", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}
