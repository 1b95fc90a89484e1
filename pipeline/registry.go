package pipeline

import (
	"sync"

	"github.com/blade-lang/bladec/parser"
)

// The parser front end and TAST builder are both external, consumed-only
// collaborators (spec.md §1/§6): this package cannot import a concrete
// grammar without violating that boundary. Concrete implementations
// register themselves here at init time, the same registration idiom
// database/sql uses for drivers — cmd/bladec and cmd/bladesym look a
// registered pair up by name instead of importing one directly, so the
// core module never depends on a specific front end.
var (
	registryMu       sync.RWMutex
	frontends        = map[string]parser.Frontend{}
	tastBuilders     = map[string]TastBuilder{}
	tastFileBuilders = map[string]TastFileBuilder{}
)

// RegisterFrontend makes a parser.Frontend available under name for
// later lookup by Frontend.
func RegisterFrontend(name string, f parser.Frontend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	frontends[name] = f
}

// RegisterTastBuilder makes a TastBuilder available under name.
func RegisterTastBuilder(name string, b TastBuilder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	tastBuilders[name] = b
}

// Frontend looks up a previously registered parser.Frontend by name.
func Frontend(name string) (parser.Frontend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := frontends[name]
	return f, ok
}

// LookupTastBuilder looks up a previously registered TastBuilder by name.
func LookupTastBuilder(name string) (TastBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := tastBuilders[name]
	return b, ok
}

// RegisterTastFileBuilder makes a TastFileBuilder available under name.
func RegisterTastFileBuilder(name string, b TastFileBuilder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	tastFileBuilders[name] = b
}

// LookupTastFileBuilder looks up a previously registered TastFileBuilder
// by name.
func LookupTastFileBuilder(name string) (TastFileBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := tastFileBuilders[name]
	return b, ok
}

// RegisteredLanguages lists every name with both a Frontend and a
// TastBuilder registered, the set cmd/bladec accepts for --language.
func RegisteredLanguages() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var names []string
	for name := range frontends {
		if _, ok := tastBuilders[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
