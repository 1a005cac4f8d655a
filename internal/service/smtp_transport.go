package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const defaultSMTPTimeout = 20 * time.Second

// smtpSecurity 连接加密方式
type smtpSecurity int

const (
	smtpPlain smtpSecurity = iota
	smtpStartTLS
	smtpImplicitTLS
)

// smtpTransport 单次投递一封邮件的 SMTP 会话
type smtpTransport struct {
	host     string
	port     int
	username string
	password string
	security smtpSecurity
	timeout  time.Duration
}

func (t smtpTransport) addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// deliver 建立连接、鉴权并发送；整个会话受 timeout 约束
func (t smtpTransport) deliver(ctx context.Context, from string, to []string, msg []byte) error {
	timeout := t.timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr())
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	tlsConfig := &tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12}
	if t.security == smtpImplicitTLS {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer client.Close()

	if t.security == smtpStartTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if t.username != "" || t.password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// recipientRejectedCodes 表示收件人不存在或被拒收的 SMTP 永久错误码
var recipientRejectedCodes = map[int]struct{}{550: {}, 551: {}, 553: {}}

var recipientRejectedHints = []string{
	"no such recipient",
	"no such user",
	"recipient not found",
	"recipient address rejected",
	"invalid recipient",
	"user unknown",
	"unknown user",
	"unknown mailbox",
	"mailbox unavailable",
}

// normalizeEmailSendError 收件人被拒时包装为 ErrEmailRecipientRejected（不可重试）
func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return fmt.Errorf("%w: %v", ErrEmailRecipientRejected, err)
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if _, ok := recipientRejectedCodes[protoErr.Code]; ok {
			return true
		}
	}
	message := strings.ToLower(err.Error())
	for _, hint := range recipientRejectedHints {
		if strings.Contains(message, hint) {
			return true
		}
	}
	return false
}
