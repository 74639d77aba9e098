// Package notify delivers user-facing email: the immediate high-fit alert
// and the daily digest.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"findmygig/scan-service/internal/scanner"
)

// DigestTicket is one row of a user's daily summary email.
type DigestTicket struct {
	ID           string
	JobTitle     string
	Company      string
	OverallScore float64
	Tags         []string
	CreatedAt    time.Time
}

// DigestSummary aggregates the rows of one digest.
type DigestSummary struct {
	TotalNew     int
	HighFitCount int
	AvgScore     float64
}

type digestTemplateData struct {
	UserName string
	AppURL   string
	Tickets  []DigestTicket
	Summary  DigestSummary
}

type alertTemplateData struct {
	UserName string
	AppURL   string
	Ticket   scanner.HighFitTicket
}

// round is exposed to both templates for score display.
var templateFuncs = template.FuncMap{
	"round": func(f float64) int { return int(math.Round(f)) },
	"scoreColor": func(f float64) string {
		switch {
		case f >= 80:
			return "#22c55e"
		case f >= 70:
			return "#3b82f6"
		default:
			return "#6b7280"
		}
	},
}

var digestTemplate = template.Must(template.New("digest").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Daily Job Digest</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0; color: white;">
    <h1 style="margin: 0 0 10px 0;">&#127919; Daily Job Digest</h1>
    <p style="margin: 0; opacity: 0.9;">Hey {{.UserName}}, here are your new opportunities!</p>
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px;">
    <div style="display: grid; grid-template-columns: repeat(3, 1fr); gap: 20px; margin-bottom: 30px; text-align: center;">
      <div style="padding: 20px; background: #f9fafb; border-radius: 8px;">
        <div style="font-size: 32px; font-weight: bold; color: #3b82f6;">{{.Summary.TotalNew}}</div>
        <div style="color: #6b7280; font-size: 14px;">New Jobs</div>
      </div>
      <div style="padding: 20px; background: #f9fafb; border-radius: 8px;">
        <div style="font-size: 32px; font-weight: bold; color: #22c55e;">{{.Summary.HighFitCount}}</div>
        <div style="color: #6b7280; font-size: 14px;">High Fit</div>
      </div>
      <div style="padding: 20px; background: #f9fafb; border-radius: 8px;">
        <div style="font-size: 32px; font-weight: bold; color: #8b5cf6;">{{round .Summary.AvgScore}}</div>
        <div style="color: #6b7280; font-size: 14px;">Avg Score</div>
      </div>
    </div>
{{if .Tickets}}
    <h2 style="margin-top: 30px; color: #1f2937;">New Opportunities</h2>
    <table style="width: 100%; border-collapse: collapse; margin-top: 20px;">
      <thead>
        <tr style="background: #f9fafb;">
          <th style="padding: 12px; text-align: left; border-bottom: 2px solid #e5e7eb;">Job</th>
          <th style="padding: 12px; text-align: center; border-bottom: 2px solid #e5e7eb;">Score</th>
          <th style="padding: 12px; text-align: left; border-bottom: 2px solid #e5e7eb;">Tags</th>
          <th style="padding: 12px; text-align: center; border-bottom: 2px solid #e5e7eb;">Action</th>
        </tr>
      </thead>
      <tbody>
{{range .Tickets}}
        <tr>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb;">
            <strong>{{.JobTitle}}</strong><br/>
            <span style="color: #6b7280;">{{.Company}}</span>
          </td>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb; text-align: center;">
            <span style="background: {{scoreColor .OverallScore}}; color: white; padding: 4px 12px; border-radius: 12px; font-weight: bold;">{{round .OverallScore}}</span>
          </td>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb;">
            {{range .Tags}}<span style="background: #f3f4f6; padding: 2px 8px; border-radius: 8px; font-size: 12px; margin-right: 4px;">{{.}}</span>{{end}}
          </td>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb; text-align: center;">
            <a href="{{$.AppURL}}/dashboard/tickets/{{.ID}}" style="background: #3b82f6; color: white; padding: 6px 16px; border-radius: 6px; text-decoration: none; display: inline-block;">View</a>
          </td>
        </tr>
{{end}}
      </tbody>
    </table>
{{else}}
    <p style="text-align: center; color: #6b7280; padding: 40px;">No new jobs found today. We'll keep looking!</p>
{{end}}
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; text-align: center;">
      <a href="{{.AppURL}}/dashboard" style="background: #3b82f6; color: white; padding: 12px 32px; border-radius: 6px; text-decoration: none; display: inline-block; font-weight: 600;">View Dashboard</a>
    </div>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; text-align: center; color: #6b7280; font-size: 12px;">
      <p>Want to pause notifications? <a href="{{.AppURL}}/dashboard/settings" style="color: #3b82f6;">Manage your settings</a></p>
    </div>
  </div>
</body>
</html>`))

var alertTemplate = template.Must(template.New("alert").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>High Fit Job Alert</title>
</head>
<body style="font-family: sans-serif; padding: 20px; max-width: 600px; margin: 0 auto;">
  <div style="background: #22c55e; padding: 20px; border-radius: 10px; color: white; text-align: center;">
    <h1 style="margin: 0;">&#127881; High Fit Job Alert!</h1>
  </div>
  <div style="padding: 30px; background: white; border: 1px solid #e5e7eb; border-top: none;">
    <p>Hey {{.UserName}},</p>
    <p>We found a job that's a great match for you:</p>
    <div style="background: #f9fafb; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <h2 style="margin: 0 0 10px 0; color: #1f2937;">{{.Ticket.JobTitle}}</h2>
      <p style="color: #6b7280; margin: 0 0 15px 0;">{{.Ticket.Company}}</p>
      <div style="display: flex; gap: 10px; align-items: center;">
        <span style="background: #22c55e; color: white; padding: 6px 16px; border-radius: 12px; font-weight: bold;">{{round .Ticket.OverallScore}} Score</span>
        {{range .Ticket.Tags}}<span style="background: #e5e7eb; padding: 4px 12px; border-radius: 8px; font-size: 14px;">{{.}}</span>{{end}}
      </div>
    </div>
    <div style="text-align: center; margin-top: 30px;">
      <a href="{{.AppURL}}/dashboard/tickets/{{.Ticket.ID}}" style="background: #3b82f6; color: white; padding: 12px 32px; border-radius: 6px; text-decoration: none; display: inline-block; font-weight: 600;">View Job &amp; Apply</a>
    </div>
  </div>
</body>
</html>`))

func renderDigest(userName, appURL string, tickets []DigestTicket, summary DigestSummary) (string, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, digestTemplateData{
		UserName: userName,
		AppURL:   appURL,
		Tickets:  tickets,
		Summary:  summary,
	})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func renderAlert(userName, appURL string, ticket scanner.HighFitTicket) (string, error) {
	var buf bytes.Buffer
	err := alertTemplate.Execute(&buf, alertTemplateData{
		UserName: userName,
		AppURL:   appURL,
		Ticket:   ticket,
	})
	if err != nil {
		return "", fmt.Errorf("render alert: %w", err)
	}
	return buf.String(), nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
