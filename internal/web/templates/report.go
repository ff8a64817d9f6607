// Package templates holds the HTML fragments returned to HTMX clients.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/a-h/templ"
)

// ImportReport renders the outcome of a batch: counters, then one line per failed row.
func ImportReport(report *core.ImportReport) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		tone := "green"
		if report.FailedCount > 0 {
			tone = "amber"
		}
		if report.SuccessCount == 0 && report.FailedCount > 0 {
			tone = "red"
		}

		if _, err := fmt.Fprintf(w,
			`<div class="import-report rounded border border-%s-300 bg-%s-50 p-4" data-import-id="%s">`,
			tone, tone, templ.EscapeString(report.ImportID)); err != nil {
			return err
		}
		if report.Filename != "" {
			if _, err := fmt.Fprintf(w, `<h3 class="font-semibold">%s</h3>`, templ.EscapeString(report.Filename)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w,
			`<ul class="flex gap-4"><li>Imported: <strong>%d</strong></li><li>Failed: <strong>%d</strong></li><li>Warnings: <strong>%d</strong></li></ul>`,
			report.SuccessCount, report.FailedCount, report.WarningCount); err != nil {
			return err
		}

		if len(report.Errors) > 0 {
			if _, err := io.WriteString(w, `<ol class="mt-2 list-decimal pl-6 text-sm">`); err != nil {
				return err
			}
			for _, e := range report.Errors {
				if _, err := fmt.Fprintf(w, `<li value="%d">%s</li>`, e.Row, templ.EscapeString(e.Message)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ol>`); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// ErrorAlert renders a whole-batch error with its suggested action and support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<div class="error-alert rounded border border-red-300 bg-red-50 p-4" role="alert"><p class="font-semibold">%s</p>`,
			templ.EscapeString(message)); err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<p class="text-xs text-gray-500">Code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}
