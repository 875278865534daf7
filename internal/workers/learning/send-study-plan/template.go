// internal/workers/learning/send-study-plan/template.go
package sendstudyplan

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

type planData struct {
	Greeting        string
	ClusterName     string
	Recommendations []string
}

var textPlan = texttemplate.Must(texttemplate.New("text").
	Funcs(texttemplate.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`{{.Greeting}},

Your learning style profile places you in the "{{.ClusterName}}" group.
{{if .Recommendations}}
Here is your study plan:
{{range $i, $r := .Recommendations}}
  {{inc $i}}. {{$r}}{{end}}
{{else}}
Your current habits look balanced; keep going.
{{end}}`))

var htmlPlan = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<p>{{.Greeting}},</p>
<p>Your learning style profile places you in the <strong>{{.ClusterName}}</strong> group.</p>
{{if .Recommendations}}<p>Here is your study plan:</p>
<ol>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ol>
{{else}}<p>Your current habits look balanced; keep going.</p>
{{end}}`))

func newPlanData(input *Input) planData {
	greeting := "Hello"
	if name := strings.TrimSpace(input.StudentName); name != "" {
		greeting = "Hello " + name
	}
	clusterName := input.ClusterName
	if clusterName == "" {
		clusterName = "Unclassified"
	}
	return planData{
		Greeting:        greeting,
		ClusterName:     clusterName,
		Recommendations: input.Recommendations,
	}
}

// renderPlan returns the plain text and HTML bodies of the email.
func renderPlan(input *Input) (string, string, error) {
	data := newPlanData(input)

	var text, html bytes.Buffer
	if err := textPlan.Execute(&text, data); err != nil {
		return "", "", err
	}
	if err := htmlPlan.Execute(&html, data); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}
