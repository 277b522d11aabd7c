package mailer

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"gestion-cours/backend/config"
)

// Mailer 发送通知邮件
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer 根据配置创建邮件发送器；未配置 SMTP 时返回仅记录日志的实现
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled() {
		return &logMailer{logger: logger}
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	m.logger.Info("邮件已发送", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Debug("SMTP 未配置，跳过邮件发送", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// ── 模板 ──

// EnrollmentConfirmation 报名确认邮件的主题与正文
func EnrollmentConfirmation(courseTitle, username string) (subject, body string) {
	subject = fmt.Sprintf("报名确认：%s", courseTitle)
	body = fmt.Sprintf(
		"<p>%s 您好，</p><p>您已成功报名课程「%s」。</p><p>祝学习顺利！</p>",
		html.EscapeString(username), html.EscapeString(courseTitle),
	)
	return subject, body
}
