package ui

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"stagegate/domain/alert"
)

// handleAlertReference renders the alert catalog as an HTML reference
// page, built from the same definitions the validator emits.
func (a *App) handleAlertReference(w http.ResponseWriter, _ *http.Request) {
	doc := alertReferenceMarkdown()

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	out := markdown.ToHTML([]byte(doc), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// alertReferenceMarkdown builds the reference document grouped by severity.
func alertReferenceMarkdown() string {
	var b strings.Builder
	b.WriteString("# Alert Reference\n\n")
	b.WriteString("Alerts raised when a transition is previewed or committed. ")
	b.WriteString("Errors block the commit; warnings need acknowledgment; info alerts are advisory.\n")

	for _, severity := range []alert.Severity{alert.SeverityError, alert.SeverityWarning, alert.SeverityInfo} {
		b.WriteString(fmt.Sprintf("\n## %s\n\n", severity))
		for _, def := range alert.Definitions() {
			if def.Severity != severity {
				continue
			}
			b.WriteString(fmt.Sprintf("### %s\n\n%s\n", def.ID, def.Doc))
			if def.RequiresNote {
				b.WriteString("\nProceeding past this alert requires an explanatory note.\n")
			}
		}
	}
	return b.String()
}
