package partition

import (
	"fmt"
	"strings"
	"time"
)

// ReadWildcard is the trailing marker that makes a template enumerable for
// reading: it matches all entries at the partition level.
const ReadWildcard = "/*"

// TemplateError reports a path template that cannot be resolved. It is fatal
// at construction time and never retried.
type TemplateError struct {
	Template string
	Reason   string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	return fmt.Sprintf("path template %q: %s", e.Template, e.Reason)
}

// Template is a path template containing literal segments plus strftime-style
// date tokens drawn from the unit table (%H, %d, %m, %Y).
type Template string

// Unit returns the finest-grained unit whose token appears in the template.
// A template containing none of the recognized tokens is an error.
func (t Template) Unit() (Unit, error) {
	for _, e := range unitTable {
		if strings.Contains(string(t), e.token) {
			return e.unit, nil
		}
	}
	return 0, &TemplateError{Template: string(t), Reason: "no recognized date-format token (%H, %d, %m, %Y)"}
}

// Partitioned reports whether the template ends in the read wildcard and can
// therefore be enumerated for reading.
func (t Template) Partitioned() bool {
	return strings.HasSuffix(string(t), ReadWildcard)
}

// Render substitutes every date token with the calendar fields of instant
// interpreted in loc. Pure; no I/O. Year renders as four digits, month, day
// and hour as two zero-padded digits.
func (t Template) Render(instant time.Time, loc *time.Location) string {
	local := instant.In(loc)
	r := strings.NewReplacer(
		"%Y", fmt.Sprintf("%04d", local.Year()),
		"%m", fmt.Sprintf("%02d", int(local.Month())),
		"%d", fmt.Sprintf("%02d", local.Day()),
		"%H", fmt.Sprintf("%02d", local.Hour()),
	)
	return r.Replace(string(t))
}
