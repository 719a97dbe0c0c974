// Package notify renders and delivers quiz emails.
package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

const (
	templateSubmission   = "admin_submission"
	templateAnnouncement = "quiz_announcement"
)

var funcs = map[string]interface{}{
	"sectionName": sectionName,
}

var (
	textTemplates = texttmpl.Must(texttmpl.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltmpl.Must(htmltmpl.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml"))
)

// Message is a rendered email.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// SubmissionMessage renders the admin notification for a recorded attempt.
func SubmissionMessage(to string, n app.SubmissionNotice) (Message, error) {
	return render([]string{to}, fmt.Sprintf("Student Submission: %s - %s", n.StudentName, n.QuizTitle), templateSubmission, n)
}

// AnnouncementMessage renders the new-quiz email for one student.
func AnnouncementMessage(to string, a app.QuizAnnouncement) (Message, error) {
	return render([]string{to}, "New Quiz Available: "+a.QuizTitle, templateAnnouncement, a)
}

func render(to []string, subject, name string, data interface{}) (Message, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".gohtml", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	return Message{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func sectionName(kind string) string {
	switch kind {
	case domain.KindFillInTheBlank:
		return "Fill in the blanks"
	case domain.KindTrueFalse:
		return "True / False"
	case domain.KindMultipleChoice:
		return "Multiple choice"
	}
	return kind
}
