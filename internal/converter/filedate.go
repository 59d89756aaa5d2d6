package converter

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/ginjaninja78/sales-journal-converter/internal/normalize"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// fileDatePattern extracts a date from an export file name. Groups are
// rearranged by layout before parsing.
type fileDatePattern struct {
	re     *regexp.Regexp
	layout string
}

var (
	clorianDatePattern = fileDatePattern{
		re:     regexp.MustCompile(`(?i)clorian_(\d{2}-\d{2}-\d{4})\.xlsx`),
		layout: "02-01-2006",
	}
	stripeDatePattern = fileDatePattern{
		re:     regexp.MustCompile(`(?i)^stripe(\d{8})\.csv$`),
		layout: "02012006",
	}
	skidataDatePattern = fileDatePattern{
		re:     regexp.MustCompile(`(?i)^rapport_jour_(\d{8})\.(?:xlsx|xls|csv)$`),
		layout: "20060102",
	}
)

func (p fileDatePattern) match(s string) (time.Time, bool) {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(p.layout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ClorianFileDate returns the accounting date carried by a Clorian file path
// in DD/MM/YYYY form, or types.UnknownDate when the path carries none.
func ClorianFileDate(path string) string {
	t, ok := clorianDatePattern.match(path)
	if !ok {
		return types.UnknownDate
	}
	return normalize.FormatDate(t)
}

// FileDate returns the date encoded in an export file name, for any source
// whose naming convention carries one.
func FileDate(fileName string) (time.Time, bool) {
	base := filepath.Base(fileName)
	for _, p := range []fileDatePattern{clorianDatePattern, stripeDatePattern, skidataDatePattern} {
		if t, ok := p.match(base); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
