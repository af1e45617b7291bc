package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mail sends alerts by e-mail
type Mail struct {
	auth     smtp.Auth
	address  string
	to       string
	from     string
	sendMail sendMailFunc
	log      logger.Logger
}

// NewMail creates a Mail notifier authenticated with PLAIN auth
func NewMail(settings core.MailSettings, log logger.Logger) *Mail {
	return &Mail{
		from:     settings.From,
		to:       settings.To,
		address:  fmt.Sprintf("%s:%d", settings.Server, settings.Port),
		auth:     smtp.PlainAuth("", settings.From, settings.Password, settings.Server),
		sendMail: smtp.SendMail,
		log:      log,
	}
}

// Notify sends text as an e-mail, the subject is its first line
func (m *Mail) Notify(text string) {
	subject, _, _ := strings.Cut(text, "\n")
	if len(subject) > 78 {
		subject = subject[:78]
	}

	message := fmt.Sprintf("To: %s\r\nFrom: \"SmartTrades\" <%s>\r\nSubject: %s\r\n\r\n%s\r\n",
		m.to, m.from, subject, text)

	if err := m.sendMail(m.address, m.auth, m.from, []string{m.to}, []byte(message)); err != nil {
		m.log.WithError(err).Error("notification/mail: failed to send email")
	}
}
