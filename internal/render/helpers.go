package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/portalctl/portalctl/internal/grid"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseTime reads an API timestamp.
func ParseTime(v any) (time.Time, bool) {
	s := strings.TrimSpace(grid.Stringify(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ToAge converts a timestamp to a human-readable age.
func ToAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return UnknownValue
	}
	return HumanDuration(now.Sub(t))
}

// HumanDuration converts duration to human readable format (e.g., "5d", "3h", "2m")
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 365:
		return fmt.Sprintf("%dy", days/365)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Missing returns MissingValue if s is blank.
func Missing(s string) string {
	if strings.TrimSpace(s) == "" {
		return MissingValue
	}
	return s
}

// Truthy reads the loose booleans the API sends for flags.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	}
	switch strings.ToLower(grid.Stringify(v)) {
	case "true", "1", "yes", "active":
		return true
	default:
		return false
	}
}

var placeholderRX = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Expand fills a template. {value} is the cell value, any other {key} the
// row property of that name.
func Expand(tpl string, value any, row grid.Row) string {
	return placeholderRX.ReplaceAllStringFunc(tpl, func(m string) string {
		key := m[1 : len(m)-1]
		if key == "value" {
			return grid.Stringify(value)
		}
		return grid.Stringify(row[key])
	})
}
