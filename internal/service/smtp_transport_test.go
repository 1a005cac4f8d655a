package service

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vitrina-shop/internal/config"
)

// fakeSMTPServer 最小化的 SMTP 服务端，记录收到的命令与正文
type fakeSMTPServer struct {
	listener   net.Listener
	rejectRcpt bool

	mu       sync.Mutex
	commands []string
	data     string
}

func startFakeSMTP(t *testing.T, rejectRcpt bool) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	srv := &fakeSMTPServer{listener: ln, rejectRcpt: rejectRcpt}
	t.Cleanup(func() { _ = ln.Close() })
	go srv.serve()
	return srv
}

func (s *fakeSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()

		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(upper, "MAIL FROM"):
			reply("250 2.1.0 ok")
		case strings.HasPrefix(upper, "RCPT TO"):
			if s.rejectRcpt {
				reply("550 5.1.1 mailbox does not exist")
				continue
			}
			reply("250 2.1.5 ok")
		case upper == "DATA":
			reply("354 end with .")
			var body strings.Builder
			for {
				dataLine, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dataLine, "\r\n") == "." {
					break
				}
				body.WriteString(dataLine)
			}
			s.mu.Lock()
			s.data = body.String()
			s.mu.Unlock()
			reply("250 2.0.0 queued")
		case upper == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func (s *fakeSMTPServer) snapshot() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...), s.data
}

func TestEmailServiceSendPlainSMTP(t *testing.T) {
	srv := startFakeSMTP(t, false)
	svc := NewEmailService(&config.EmailConfig{
		Enabled:        true,
		Host:           "127.0.0.1",
		Port:           srv.port(),
		From:           "shop@vitrina.bg",
		FromName:       "Витрина",
		TimeoutSeconds: 5,
	})

	if err := svc.Send("buyer@example.com", "Поръчка VS-1", "Благодарим!"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	commands, data := srv.snapshot()
	joined := strings.Join(commands, "\n")
	if !strings.Contains(joined, "MAIL FROM:<shop@vitrina.bg>") || !strings.Contains(joined, "RCPT TO:<buyer@example.com>") {
		t.Fatalf("unexpected envelope commands: %s", joined)
	}
	if !strings.Contains(data, "Content-Type: text/plain; charset=UTF-8") || !strings.Contains(data, "Благодарим!") {
		t.Fatalf("unexpected message data: %s", data)
	}
	if !strings.Contains(data, "Subject: =?UTF-8?q?") {
		t.Fatalf("subject should be Q-encoded: %s", data)
	}
}

func TestEmailServiceRecipientRejected(t *testing.T) {
	srv := startFakeSMTP(t, true)
	svc := NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "shop@vitrina.bg",
	})

	err := svc.Send("ghost@example.com", "subject", "body")
	if !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("expected ErrEmailRecipientRejected, got %v", err)
	}
}

func TestSMTPTransportDialTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	transport := smtpTransport{host: "127.0.0.1", port: 1, timeout: time.Second}
	if err := transport.deliver(ctx, "a@b.c", []string{"d@e.f"}, []byte("x")); err == nil {
		t.Fatalf("expected dial error on cancelled context")
	}
}

func TestIsEmailRecipientRejectedByCode(t *testing.T) {
	if !isEmailRecipientRejected(&textproto.Error{Code: 553, Msg: "5.1.3 bad address"}) {
		t.Fatalf("553 should count as recipient rejection")
	}
	if isEmailRecipientRejected(&textproto.Error{Code: 451, Msg: "try again later"}) {
		t.Fatalf("temporary failures must stay retryable")
	}
	for text, want := range map[string]bool{
		"SMTP 5.1.1 user unknown": true,
		"no such recipient here":  true,
		"dial tcp: i/o timeout":   false,
	} {
		if got := isEmailRecipientRejected(errors.New(text)); got != want {
			t.Fatalf("isEmailRecipientRejected(%q) = %v, want %v", text, got, want)
		}
	}
	if isEmailRecipientRejected(nil) {
		t.Fatalf("nil error is not a rejection")
	}
}
