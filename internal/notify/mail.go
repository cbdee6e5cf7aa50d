package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"sigawatch/internal/config"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/jordan-wright/email"
)

// Mailer sends notifications by e-mail. The body is the chat message,
// rendered to HTML with a plain text alternative.
type Mailer struct {
	smtp config.SmtpSettings
	// send is swapped in tests.
	send func(mail *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(settings config.SmtpSettings) *Mailer {
	return &Mailer{
		smtp: settings,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func newParser() *parser.Parser {
	return parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
}

// RenderHTML converts a Markdown message to HTML, line breaks are kept.
func RenderHTML(message string) []byte {
	doc := markdown.Parse([]byte(message), newParser())
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.HrefTargetBlank,
	})
	return markdown.Render(doc, renderer)
}

// PlainText strips the Markdown formatting of a message.
func PlainText(message string) string {
	doc := markdown.Parse([]byte(message), newParser())
	var buf bytes.Buffer
	extractText(doc, &buf)
	return strings.TrimSpace(buf.String())
}

func extractText(node ast.Node, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Literal)
		return
	case *ast.Code:
		buf.Write(n.Literal)
		return
	case *ast.Hardbreak, *ast.Softbreak:
		buf.WriteString("\n")
		return
	case *ast.HTMLSpan, *ast.HTMLBlock:
		return
	}

	container := node.AsContainer()
	if container == nil {
		return
	}
	for _, child := range container.Children {
		extractText(child, buf)
	}
	switch node.(type) {
	case *ast.Paragraph, *ast.Heading:
		buf.WriteString("\n\n")
	}
}

func (m *Mailer) Send(_ context.Context, subject, message string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("SIGA <%s>", m.smtp.From)
	mail.To = m.smtp.To
	mail.Subject = subject
	mail.Text = []byte(PlainText(message))
	mail.HTML = RenderHTML(message)

	addr := m.smtp.Address()
	var auth smtp.Auth
	if m.smtp.Username != "" {
		auth = smtp.PlainAuth("", m.smtp.Username, m.smtp.Password, m.smtp.Server)
	}
	err := m.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
