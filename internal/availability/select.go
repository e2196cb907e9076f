package availability

import (
	"fmt"
	"strings"

	"github.com/tsukumogami/naosu/internal/catalog"
)

// Selection is the method chosen for an install attempt.
type Selection struct {
	Method string `json:"method"`
	Status Status `json:"status"`
}

// Locked reports whether the chosen method still needs a prerequisite.
func (s Selection) Locked() bool { return s.Status.State == StateLocked }

// NoneAvailableError means every method of a tool graded impossible on
// this machine. It carries the per-method reasons for display.
type NoneAvailableError struct {
	Tool     string
	Statuses []Status
}

func (e *NoneAvailableError) Error() string {
	if len(e.Statuses) == 0 {
		return fmt.Sprintf("tool %q cannot be installed on this system", e.Tool)
	}
	lines := make([]string, len(e.Statuses))
	for i, s := range e.Statuses {
		lines[i] = fmt.Sprintf("  - %s: %s", s.Method, s.Reason)
	}
	return fmt.Sprintf("tool %q cannot be installed on this system:\n%s",
		e.Tool, strings.Join(lines, "\n"))
}

// Select picks the method to attempt. The recipe's preference order is
// authoritative and total: the first ready method in that order wins,
// then the first locked method (so the caller can resolve the unlock
// first), and only when every method is impossible does selection fail
// with NoneAvailableError.
//
// Methods missing from statuses are skipped; methods outside the
// preference order are never chosen.
func Select(rec *catalog.Recipe, statuses map[string]Status) (Selection, error) {
	order := rec.PreferOrder()

	for _, name := range order {
		st, ok := statuses[name]
		if !ok {
			continue
		}
		if st.State == StateReady {
			return Selection{Method: name, Status: st}, nil
		}
	}
	for _, name := range order {
		st, ok := statuses[name]
		if !ok {
			continue
		}
		if st.State == StateLocked {
			return Selection{Method: name, Status: st}, nil
		}
	}

	err := &NoneAvailableError{Tool: rec.Name()}
	for _, name := range order {
		if st, ok := statuses[name]; ok {
			err.Statuses = append(err.Statuses, st)
		}
	}
	return Selection{}, err
}
