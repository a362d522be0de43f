// Package email, operator alert mail'leri için soyutlama katmanı sağlar.
//
// AlertSender interface'i ile gönderim detayları soyutlanır (Dependency
// Inversion). Şu anki implementasyon Resend API kullanır. Mail, end-user'a
// değil OPERATÖRE gider: per-channel overwrite hataları gibi best-effort
// sub-failure'lar kullanıcıya sessizdir ama operatörün haberi olmalıdır.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// AlertSender, operator alert gönderimi için interface.
type AlertSender interface {
	// SendOperatorAlert, operatöre kısa bir alert mail'i gönderir.
	SendOperatorAlert(ctx context.Context, subject, body string) error
}

// resendSender, Resend API ile mail gönderen AlertSender implementasyonu.
type resendSender struct {
	client     *resend.Client
	fromEmail  string
	operatorTo string
}

// NewResendSender, Resend API client'ı ile yeni bir AlertSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici adres — Resend'de doğrulanmış domain altında olmalı.
// operatorTo: Alert'lerin gideceği operator adresi.
func NewResendSender(apiKey, fromEmail, operatorTo string) AlertSender {
	return &resendSender{
		client:     resend.NewClient(apiKey),
		fromEmail:  fromEmail,
		operatorTo: operatorTo,
	}
}

func (s *resendSender) SendOperatorAlert(ctx context.Context, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{s.operatorTo},
		Subject: fmt.Sprintf("[bekci] %s", subject),
		Text:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send operator alert: %w", err)
	}
	return nil
}
