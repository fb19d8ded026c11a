// Package mailer 通过 SMTP 发送 HTML 邮件
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrms-go/backend/config"
	"gopkg.in/gomail.v2"
	"k8s.io/klog/v2"
)

// ErrDisabled SMTP 未启用
var ErrDisabled = errors.New("smtp is disabled")

// Message 一封待发送的邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender 使用 gomail 发送邮件，每次发送建立一次连接
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("mail recipient is empty")
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	klog.V(6).Infof("邮件发送成功: to=%s, subject=%s", msg.To, msg.Subject)
	return nil
}

// DisabledSender SMTP 未配置时使用，只记录日志
type DisabledSender struct{}

func (DisabledSender) Send(ctx context.Context, msg Message) error {
	klog.V(6).Infof("SMTP 未启用，跳过邮件: to=%s, subject=%s", msg.To, msg.Subject)
	return ErrDisabled
}

// New 根据配置返回 Sender
func New(cfg config.SMTPConfig) Sender {
	if !cfg.Enabled || cfg.Host == "" {
		return DisabledSender{}
	}
	return NewSMTPSender(cfg)
}
