package mailer

import (
	"context"
	"fmt"
	"net/url"
)

// Message is a single plain-text + HTML email.
type Message struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Link builds "<base>/auth/callback?code=<code>&type=<kind>[&next=<redirect>]".
func Link(base, code, kind, redirectTo string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("type", kind)
	if redirectTo != "" {
		q.Set("next", redirectTo)
	}
	return fmt.Sprintf("%s/auth/callback?%s", base, q.Encode())
}

// InviteMessage is sent when a platform admin invites someone to an organization.
func InviteMessage(to, orgName, role, link string) Message {
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("You're invited to %s", orgName),
		Text:     fmt.Sprintf("You have been invited to join %s as %s.\n\nSet up your account here:\n%s\n", orgName, role, link),
		HTML:     fmt.Sprintf(`<p>You have been invited to join <b>%s</b> as %s.</p><p><a href="%s">Set up your account</a></p>`, orgName, role, link),
		Category: "invite",
	}
}

// MagicLinkMessage carries a one-time sign-in link.
func MagicLinkMessage(to, link string) Message {
	return Message{
		To:       to,
		Subject:  "Your sign-in link",
		Text:     fmt.Sprintf("Use this link to sign in:\n%s\n\nIf you didn't request it, ignore this email.\n", link),
		HTML:     fmt.Sprintf(`<p><a href="%s">Sign in</a></p><p>If you didn't request it, ignore this email.</p>`, link),
		Category: "magiclink",
	}
}

// PasswordResetMessage carries a one-time password recovery link.
func PasswordResetMessage(to, link string) Message {
	return Message{
		To:       to,
		Subject:  "Reset your password",
		Text:     fmt.Sprintf("Use this link to choose a new password:\n%s\n\nIf you didn't request it, ignore this email.\n", link),
		HTML:     fmt.Sprintf(`<p><a href="%s">Reset your password</a></p><p>If you didn't request it, ignore this email.</p>`, link),
		Category: "recovery",
	}
}
