// Package notify 尽力而为的邮件通知
//
// 发送走独立的 worker goroutine + 有界队列，与请求/响应生命周期完全解耦：
// 发送失败只记日志，队列满直接丢弃，调用方永不阻塞、永不感知失败。
package notify

import (
	"fmt"
	"net/smtp"
	"sync"

	"edms/internal/config"
	"edms/pkg/logging"
)

// Message 一封待发送的通知邮件
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer 邮件通知器
//
// cfg.Host 为空时通知被禁用，Send 变为空操作。
type Mailer struct {
	cfg  config.SMTPConfig
	ch   chan Message
	wg   sync.WaitGroup
	log  *logging.Logger
	once sync.Once
}

// New 创建通知器并启动后台 worker
func New(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{
		cfg: cfg,
		log: logging.Default("notify"),
	}
	if cfg.Host == "" {
		return m
	}

	m.ch = make(chan Message, 64)
	m.wg.Add(1)
	go m.worker()
	return m
}

// Send 非阻塞入队；队列满或通知被禁用时丢弃
func (m *Mailer) Send(to, subject, body string) {
	if m == nil || m.ch == nil {
		return
	}
	select {
	case m.ch <- Message{To: to, Subject: subject, Body: body}:
	default:
		m.log.Warn("Mail queue full, dropping message", "to", to, "subject", subject)
	}
}

// Close 停止接收新消息并等待队列清空
func (m *Mailer) Close() {
	if m == nil || m.ch == nil {
		return
	}
	m.once.Do(func() {
		close(m.ch)
	})
	m.wg.Wait()
}

func (m *Mailer) worker() {
	defer m.wg.Done()
	for msg := range m.ch {
		err := m.deliver(msg)
		m.log.MailLog(msg.To, msg.Subject, err)
	}
}

func (m *Mailer) deliver(msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	data := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, msg.To, msg.Subject, msg.Body)

	return smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, []byte(data))
}
