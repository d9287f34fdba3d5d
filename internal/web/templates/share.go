package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/emiliopalmerini/effortmap/internal/chart"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// SharePage is the public view behind a share token.
func SharePage(graph *effort.Graph, theme user.Theme, viewCount int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		colors := chart.Colors(theme)
		percentages := effort.Percentages(graph.Workstreams)

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s - Effortmap</title>
<style>
body{margin:0;padding:2rem;background:%s;color:%s;font-family:sans-serif}
main{max-width:860px;margin:0 auto}
h1{font-size:1.6rem}
p.description{color:%s;opacity:.8}
table{border-collapse:collapse;margin-top:1.5rem}
td,th{padding:.4rem .9rem;text-align:left}
.swatch{display:inline-block;width:14px;height:14px;border-radius:3px;margin-right:.5rem;vertical-align:middle}
footer{margin-top:2rem;font-size:.8rem;opacity:.6}
</style>
</head>
<body>
<main>
<h1>%s</h1>
`, html.EscapeString(graph.Name), colors.Background, colors.Text, colors.Text,
			html.EscapeString(graph.Name)); err != nil {
			return err
		}

		if graph.Description != "" {
			if _, err := fmt.Fprintf(w, `<p class="description">%s</p>`+"\n",
				html.EscapeString(graph.Description)); err != nil {
				return err
			}
		}

		if err := writePieSVG(w, graph, colors, false); err != nil {
			return err
		}

		if _, err := io.WriteString(w, "<table>\n<tr><th>Workstream</th><th>Share</th></tr>\n"); err != nil {
			return err
		}
		for i, ws := range graph.Workstreams {
			if _, err := fmt.Fprintf(w,
				`<tr><td><span class="swatch" style="background:%s"></span>%s</td><td>%.1f%%</td></tr>`+"\n",
				ws.Color, html.EscapeString(ws.Name), percentages[i]); err != nil {
				return err
			}
		}

		_, err := fmt.Fprintf(w, `</table>
<footer>Viewed %d times</footer>
</main>
</body>
</html>
`, viewCount)
		return err
	})
}
