package semgraph

import (
	"strconv"

	"github.com/blade-lang/bladec/symtab"
)

func symIDFormat(s symtab.SymbolId) string {
	return strconv.FormatUint(uint64(s), 10)
}

func parseSymID(s string) symtab.SymbolId {
	v, _ := strconv.ParseUint(s, 10, 32)
	return symtab.SymbolId(v)
}
