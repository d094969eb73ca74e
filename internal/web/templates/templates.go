// Package templates embeds the HTML views and static assets of the web app.
package templates

import (
	"embed"
	"html/template"
	"time"
)

//go:embed *.html
var views embed.FS

//go:embed app.css
var Static embed.FS

const dateLayout = "2006-01-02"

var funcs = template.FuncMap{
	"formatDate": FormatDate,
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

// Parse returns every view, ready for gin's SetHTMLTemplate.
func Parse() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(views, "*.html")
}

// FormatDate renders a YYYY-MM-DD date as "January 2, 2006". Unparseable
// values are shown as they are.
func FormatDate(value string) string {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return value
	}
	return t.Format("January 2, 2006")
}
