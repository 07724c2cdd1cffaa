// Package core holds the template helpers shared by every page.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	return template.FuncMap{
		"sectionTmpl": deps.ContentTemplateFor,
		"renderSection": func(page string, data any) (template.HTML, error) {
			if deps.Template == nil || *deps.Template == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - output of our own html/template set; values were escaped during execution.
			return template.HTML(buf.String()), nil
		},
		"money":        Money,
		"friendlyTime": FriendlyTime,
		"statusClass":  StatusClass,
		"title":        Title,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
	}
}

// Money formats minor currency units as dollars, e.g. 450 -> "$4.50".
func Money(cents any) string {
	var v int64
	switch x := cents.(type) {
	case int64:
		v = x
	case int:
		v = int64(x)
	case int32:
		v = int64(x)
	default:
		return fmt.Sprint(cents)
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// FriendlyTime renders a timestamp for tables; zero and nil values render empty.
func FriendlyTime(ts any) string {
	var t0 time.Time
	switch v := ts.(type) {
	case time.Time:
		t0 = v
	case *time.Time:
		if v != nil {
			t0 = *v
		}
	}
	if t0.IsZero() {
		return ""
	}
	return t0.Local().Format("Jan 2, 2006 3:04 PM")
}

// StatusClass maps order and payment statuses to badge classes.
func StatusClass(status any) string {
	switch strings.ToLower(fmt.Sprint(status)) {
	case "pending":
		return "badge-warning"
	case "preparing":
		return "badge-info"
	case "ready", "paid":
		return "badge-success"
	case "completed":
		return "badge-secondary"
	case "cancelled", "refunded", "failed":
		return "badge-danger"
	default:
		return "badge-light"
	}
}

// Title upper-cases the first letter of a status or role for display.
func Title(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
