package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/gartstein/recruit/internal/recruit/models"
)

// EmailData is the input of every candidate e-mail.
type EmailData struct {
	CandidateName string
	CandidateMail string
	JobTitle      string
	CompanyName   string
	Interview     *models.InterviewDetails
	Notes         string
}

const invitationText = `Hello {{.CandidateName}},

Thank you for your interest in the {{.JobTitle}} position at {{.CompanyName}}. We would like to invite you to an interview.
{{with .Interview}}
Type: {{kind .Type}}
Date: {{.Date}}
Time: {{.Time}}
{{if .MeetingLink}}Meeting link: {{.MeetingLink}}
{{end}}{{if .Location}}Location: {{.Location}}
{{end}}{{end}}{{if .Notes}}
{{.Notes}}
{{end}}
Please reply to this e-mail to confirm.

Best regards,
{{.CompanyName}} recruiting team
`

const invitationHTML = `<p>Hello {{.CandidateName}},</p>
<p>Thank you for your interest in the <strong>{{.JobTitle}}</strong> position at {{.CompanyName}}. We would like to invite you to an interview.</p>
{{with .Interview}}<ul>
<li>Type: {{kind .Type}}</li>
<li>Date: {{.Date}}</li>
<li>Time: {{.Time}}</li>
{{if .MeetingLink}}<li>Meeting link: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></li>{{end}}
{{if .Location}}<li>Location: {{.Location}}</li>{{end}}
</ul>{{end}}
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<p>Please reply to this e-mail to confirm.</p>
<p>Best regards,<br>{{.CompanyName}} recruiting team</p>
`

const rejectionText = `Hello {{.CandidateName}},

Thank you for taking the time to interview for the {{.JobTitle}} position at {{.CompanyName}}. After careful consideration we have decided to move forward with other candidates.

We appreciate your interest and wish you all the best.

Best regards,
{{.CompanyName}} recruiting team
`

const rejectionHTML = `<p>Hello {{.CandidateName}},</p>
<p>Thank you for taking the time to interview for the <strong>{{.JobTitle}}</strong> position at {{.CompanyName}}. After careful consideration we have decided to move forward with other candidates.</p>
<p>We appreciate your interest and wish you all the best.</p>
<p>Best regards,<br>{{.CompanyName}} recruiting team</p>
`

const acceptanceText = `Hello {{.CandidateName}},

We are delighted to offer you the {{.JobTitle}} position at {{.CompanyName}}.
{{if .Notes}}
{{.Notes}}
{{end}}
We will be in touch shortly with the next steps.

Best regards,
{{.CompanyName}} recruiting team
`

const acceptanceHTML = `<p>Hello {{.CandidateName}},</p>
<p>We are delighted to offer you the <strong>{{.JobTitle}}</strong> position at {{.CompanyName}}.</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<p>We will be in touch shortly with the next steps.</p>
<p>Best regards,<br>{{.CompanyName}} recruiting team</p>
`

func interviewKind(t models.InterviewType) string {
	switch t {
	case models.InterviewVideo:
		return "Video call"
	case models.InterviewPhone:
		return "Phone call"
	case models.InterviewInPerson:
		return "In person"
	}
	return strings.ToLower(string(t))
}

var funcs = map[string]interface{}{"kind": interviewKind}

type template struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func newTemplate(name, subject, text, html string) template {
	return template{
		subject: subject,
		text:    texttemplate.Must(texttemplate.New(name).Funcs(funcs).Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New(name).Funcs(funcs).Parse(html)),
	}
}

var (
	invitationTemplate = newTemplate("invitation", "Interview invitation: %s", invitationText, invitationHTML)
	rejectionTemplate  = newTemplate("rejection", "Your application for %s", rejectionText, rejectionHTML)
	acceptanceTemplate = newTemplate("acceptance", "Job offer: %s", acceptanceText, acceptanceHTML)
)

func (t template) render(data EmailData) (*Message, error) {
	if data.CompanyName == "" {
		data.CompanyName = "our company"
	}

	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return &Message{
		To:      data.CandidateMail,
		ToName:  data.CandidateName,
		Subject: fmt.Sprintf(t.subject, data.JobTitle),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func Invitation(data EmailData) (*Message, error) {
	return invitationTemplate.render(data)
}

func Rejection(data EmailData) (*Message, error) {
	return rejectionTemplate.render(data)
}

func Acceptance(data EmailData) (*Message, error) {
	return acceptanceTemplate.render(data)
}
