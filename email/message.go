package email

import (
	"fmt"
	"net/url"
	"strings"
)

// Template renders the verification message. VerifyURL receives the token as
// its "token" query parameter; when empty the token is shown on its own.
type Template struct {
	Subject   string
	VerifyURL string
}

// DefaultTemplate has a subject and no verify URL.
func DefaultTemplate() Template {
	return Template{Subject: "Verify your email address"}
}

func (t Template) link(token string) string {
	if t.VerifyURL == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(t.VerifyURL, "?") {
		sep = "&"
	}
	return t.VerifyURL + sep + "token=" + url.QueryEscape(token)
}

func (t Template) plain(token string) string {
	if l := t.link(token); l != "" {
		return fmt.Sprintf("Confirm your email address by opening %s\n\nThe link expires in 24 hours.", l)
	}
	return fmt.Sprintf("Your verification code is %s\n\nIt expires in 24 hours.", token)
}

func (t Template) html(token string) string {
	if l := t.link(token); l != "" {
		return fmt.Sprintf(`<p>Confirm your email address by opening <a href="%s">this link</a>.</p><p>The link expires in 24 hours.</p>`, l)
	}
	return fmt.Sprintf("<p>Your verification code is <strong>%s</strong></p><p>It expires in 24 hours.</p>", token)
}

func (t Template) subject() string {
	if t.Subject == "" {
		return DefaultTemplate().Subject
	}
	return t.Subject
}
