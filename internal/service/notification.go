package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/embed"
	"github.com/hrms-go/backend/internal/eventbus"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/pkg/mailer"
	"k8s.io/klog/v2"
)

// NotificationResult 单封邮件的发送结果
type NotificationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NotificationService 合同邮件通知，发送失败只返回结果不返回错误
type NotificationService interface {
	Enabled() bool
	SendContract(ctx context.Context, instance model.ContractInstance) NotificationResult
	SendReminder(ctx context.Context, instance model.ContractInstance, kind eventbus.ReminderKind, daysLeft int) NotificationResult
	SendCompletion(ctx context.Context, instance model.ContractInstance) NotificationResult
	SendExpiryToHR(ctx context.Context, instance model.ContractInstance) NotificationResult
}

type notificationService struct {
	sender    mailer.Sender
	enabled   bool
	hrEmail   string
	contract  config.ContractConfig
	templates *template.Template
}

// mailData 邮件模板数据
type mailData struct {
	Subject        string
	CompanyName    string
	RecipientName  string
	RecipientEmail string
	Title          string
	ContractNumber string
	SignURL        string
	ExpiresAt      *time.Time
	CompletedDate  *time.Time
	DaysLeft       int
	Final          bool
}

// NewNotificationService 创建通知服务，模板解析失败时返回错误
func NewNotificationService(sender mailer.Sender, smtp config.SMTPConfig, contract config.ContractConfig) (NotificationService, error) {
	templates, err := embed.ParseMailTemplates(template.FuncMap{
		"formatDate": formatMailDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	_, disabled := sender.(mailer.DisabledSender)
	return &notificationService{
		sender:    sender,
		enabled:   !disabled,
		hrEmail:   smtp.HREmail,
		contract:  contract,
		templates: templates,
	}, nil
}

func (s *notificationService) Enabled() bool {
	return s.enabled
}

// SendContract 首次发送，邀请接收人签署
func (s *notificationService) SendContract(ctx context.Context, instance model.ContractInstance) NotificationResult {
	data := s.newMailData(instance)
	data.Subject = fmt.Sprintf("Action required: please sign %s", instance.Title)
	return s.deliver(ctx, instance.RecipientEmail, embed.MailContractSent, data)
}

// SendReminder 提醒邮件，final 用于最后一天
func (s *notificationService) SendReminder(ctx context.Context, instance model.ContractInstance, kind eventbus.ReminderKind, daysLeft int) NotificationResult {
	data := s.newMailData(instance)
	data.DaysLeft = daysLeft
	data.Final = kind == eventbus.ReminderFinal
	if data.Final {
		data.Subject = fmt.Sprintf("Final reminder: %s expires soon", instance.Title)
	} else {
		data.Subject = fmt.Sprintf("Reminder: %s is awaiting your signature", instance.Title)
	}
	return s.deliver(ctx, instance.RecipientEmail, embed.MailContractReminder, data)
}

// SendCompletion 签署完成确认
func (s *notificationService) SendCompletion(ctx context.Context, instance model.ContractInstance) NotificationResult {
	data := s.newMailData(instance)
	data.Subject = fmt.Sprintf("Signed: %s", instance.Title)
	return s.deliver(ctx, instance.RecipientEmail, embed.MailContractCompleted, data)
}

// SendExpiryToHR 过期通知发给 HR 邮箱
func (s *notificationService) SendExpiryToHR(ctx context.Context, instance model.ContractInstance) NotificationResult {
	if s.hrEmail == "" {
		return NotificationResult{Error: "hr email is not configured"}
	}
	data := s.newMailData(instance)
	data.Subject = fmt.Sprintf("Contract expired: %s (%s)", instance.Title, instance.ContractNumber)
	return s.deliver(ctx, s.hrEmail, embed.MailContractExpired, data)
}

func (s *notificationService) newMailData(instance model.ContractInstance) mailData {
	name := instance.RecipientName
	if name == "" {
		name = instance.RecipientEmail
	}
	return mailData{
		CompanyName:    s.contract.CompanyName,
		RecipientName:  name,
		RecipientEmail: instance.RecipientEmail,
		Title:          instance.Title,
		ContractNumber: instance.ContractNumber,
		SignURL:        fmt.Sprintf("%s/%d", strings.TrimRight(s.contract.SignBaseURL, "/"), instance.ID),
		ExpiresAt:      instance.ExpiresAt,
		CompletedDate:  instance.CompletedDate,
	}
}

// render 渲染邮件正文
func (s *notificationService) render(name string, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *notificationService) deliver(ctx context.Context, to, templateName string, data mailData) NotificationResult {
	html, err := s.render(templateName, data)
	if err != nil {
		klog.Errorf("邮件模板渲染失败: template=%s, error=%v", templateName, err)
		return NotificationResult{Error: err.Error()}
	}
	if err := s.sender.Send(ctx, mailer.Message{To: to, Subject: data.Subject, HTML: html}); err != nil {
		if !errors.Is(err, mailer.ErrDisabled) {
			klog.Warningf("邮件发送失败: to=%s, template=%s, error=%v", to, templateName, err)
		}
		return NotificationResult{Error: err.Error()}
	}
	return NotificationResult{Success: true}
}

func formatMailDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("January 2, 2006")
}
