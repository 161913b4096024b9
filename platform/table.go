package platform

import (
	"github.com/set-io/nbctl/platform/backend"
)

// Row binds the classes it applies to, a backend and the addressing for it.
type Row struct {
	Classes HardwareClass
	Kind    backend.Kind
	Op      backend.Operation
}

// Resolve returns the first row whose classes intersect class. Rows are
// meant to be disjoint; when they are not, table order decides. No match
// means the feature does not exist on this machine.
func Resolve(class HardwareClass, rows []Row) (Row, bool) {
	for _, r := range rows {
		if r.Classes&class != 0 {
			return r, true
		}
	}
	return Row{}, false
}
