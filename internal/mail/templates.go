package mail

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

const (
	JoinInviteSubject = "join_invite_subject.txt"
	JoinInviteMessage = "join_invite_message.txt"
)

// JoinInviteContext is the data available to the join invitation templates.
type JoinInviteContext struct {
	SiteName     string
	ContactEmail string
	User         string
	Message      string
	AcceptURL    string
}

// Render executes the named template. Subjects are collapsed onto one line.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	out := buf.String()
	if strings.HasSuffix(name, "_subject.txt") {
		out = strings.Join(strings.Fields(out), " ")
	}
	return out, nil
}

// RenderJoinInvite returns subject and body for a join invitation.
func RenderJoinInvite(data JoinInviteContext) (subject, body string, err error) {
	subject, err = Render(JoinInviteSubject, data)
	if err != nil {
		return "", "", err
	}
	body, err = Render(JoinInviteMessage, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}
