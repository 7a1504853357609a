package service

import (
	"fmt"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

const (
	MailKindVerification  = "verification"
	MailKindPasswordReset = "password_reset"
)

// Site names the public front-end that account links point to.
type Site struct {
	Name   string
	Domain string
}

func (s Site) verifyURL(uid, token string) string {
	return fmt.Sprintf("https://%s/#/register/verify/%s/%s/", s.Domain, uid, token)
}

func (s Site) resetURL(uid, token string) string {
	return fmt.Sprintf("https://%s/#/auth/password_reset/confirm/%s/%s", s.Domain, uid, token)
}

func verificationEmail(site Site, user *domain.User, token string) ports.Message {
	link := site.verifyURL(domain.EncodeUID(user.ID), token)
	body := fmt.Sprintf(`Hi %s,

Thanks for registering with %s. Please confirm your email address by following this link:
%s

If you didn't create an account, you can safely ignore this email.

The %s Team`, user.Name, site.Name, link, site.Name)

	return ports.Message{
		To:      user.Email,
		Name:    user.Name,
		Subject: site.Name + " account validate",
		Body:    body,
		Kind:    MailKindVerification,
	}
}

func passwordResetEmail(site Site, user *domain.User, token string) ports.Message {
	link := site.resetURL(domain.EncodeUID(user.ID), token)
	body := fmt.Sprintf(`Hi %s,

You're receiving this email because a password reset was requested for your account at %s.

Please go to the following page and choose a new password:
%s

The link stops working once your password has been changed.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

The %s Team`, user.Name, site.Name, link, site.Name)

	return ports.Message{
		To:      user.Email,
		Name:    user.Name,
		Subject: site.Name + " password reset",
		Body:    body,
		Kind:    MailKindPasswordReset,
	}
}
