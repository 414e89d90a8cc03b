package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/store"
)

var (
	positionalPlaceholder = regexp.MustCompile(`\$(\d+)`)
	foreignPlaceholder    = regexp.MustCompile(`\?|%[sdv]|:[a-zA-Z_]\w*|@[a-zA-Z_]\w*`)
	tableReference        = regexp.MustCompile(`(?i)\b(?:from|join|into|update)\s+([a-z_][a-z0-9_."]*)`)

	allowedTables = map[string]bool{
		store.TableConversations:      true,
		store.TableEnvironmentChanges: true,
	}
)

// Validate applies the allow-list checks to one template. Failures wrap
// model.ErrSafetyViolation.
func Validate(t model.QueryTemplate) error {
	sql := strings.TrimSpace(t.SQL)
	if sql == "" {
		return violation("empty query")
	}
	lower := strings.ToLower(sql)

	if !strings.HasPrefix(lower, "select") {
		return violation("only SELECT statements may run")
	}

	if m := foreignPlaceholder.FindString(stripCasts(sql)); m != "" {
		return violation(fmt.Sprintf("disallowed placeholder %q, use $N", m))
	}

	n := countPlaceholders(sql)
	if n < 0 {
		return violation("placeholders must be numbered $1..$N without gaps")
	}
	if n != len(t.Params) {
		return violation(fmt.Sprintf("parameter count mismatch: query expects %d placeholders but got %d parameters", n, len(t.Params)))
	}

	refs := tableReference.FindAllStringSubmatch(sql, -1)
	if len(refs) == 0 {
		return violation("query references no known table")
	}
	for _, ref := range refs {
		name := strings.Trim(strings.ToLower(ref[1]), `"`)
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if !allowedTables[name] {
			return violation(fmt.Sprintf("query references disallowed table %q", name))
		}
	}

	if strings.Count(sql, ";") > 1 {
		return violation("multiple statements")
	}
	if strings.Contains(sql, "--") || strings.Contains(sql, "/*") || strings.Contains(sql, "*/") {
		return violation("comment markers")
	}

	return nil
}

// countPlaceholders returns the number of distinct $N placeholders, or -1 when
// they are not numbered 1..N without gaps.
func countPlaceholders(sql string) int {
	seen := map[int]bool{}
	highest := 0
	for _, m := range positionalPlaceholder.FindAllStringSubmatch(sql, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 {
			return -1
		}
		seen[n] = true
		if n > highest {
			highest = n
		}
	}
	if highest != len(seen) {
		return -1
	}
	return len(seen)
}

// stripCasts removes postgres "::type" casts so they are not read as :name
// placeholders.
func stripCasts(sql string) string {
	return strings.ReplaceAll(sql, "::", " ")
}

func violation(detail string) error {
	return fmt.Errorf("%w: %s", model.ErrSafetyViolation, detail)
}
