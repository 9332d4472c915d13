package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type smtpConf struct {
	Host     string // SMTP_HOST, e.g. smtp.gmail.com
	Port     string // SMTP_PORT, e.g. 587
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD, app password or smtp password
	From     string // SMTP_FROM, falls back to Username
	AppName  string // APP_NAME
}

func loadSMTP() smtpConf {
	get := func(k, d string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return d
	}
	return smtpConf{
		Host:     get("SMTP_HOST", ""),
		Port:     get("SMTP_PORT", "587"),
		Username: get("SMTP_USERNAME", ""),
		Password: get("SMTP_PASSWORD", ""),
		From:     get("SMTP_FROM", ""),
		AppName:  get("APP_NAME", "Loan Manager"),
	}
}

// Mailer turns transition events into emails. Events go through a buffered
// queue drained by a single worker so the request path never waits on SMTP.
// A full queue drops the event with a log line; the loan state is the source
// of truth, mail is best-effort.
type Mailer struct {
	conf  smtpConf
	queue chan Event
	done  chan struct{}
}

func NewMailer() *Mailer {
	m := &Mailer{
		conf:  loadSMTP(),
		queue: make(chan Event, 128),
		done:  make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mailer) Dispatch(ev Event) {
	select {
	case m.queue <- ev:
	default:
		log.Printf("[notify] queue full, dropped event for loan %s (%s -> %s)", ev.LoanID, ev.PreviousStatus, ev.NewStatus)
	}
}

// Close flushes the queue and stops the worker.
func (m *Mailer) Close() {
	close(m.queue)
	<-m.done
}

func (m *Mailer) run() {
	for ev := range m.queue {
		if err := m.sendEvent(ev); err != nil {
			log.Printf("[notify] send failed for loan %s: %v", ev.LoanID, err)
		}
	}
	close(m.done)
}

func (m *Mailer) sendEvent(ev Event) error {
	subject, html := renderEvent(m.conf.AppName, ev)
	return m.SendMail(ev.Recipient, subject, html)
}

func renderEvent(appName string, ev Event) (subject, html string) {
	action := map[string]string{
		"PENDING":  "a new loan request is waiting for your review",
		"APPROVED": "your loan request has been approved",
		"BORROWED": "your equipment has been handed out",
		"RETURNED": "your equipment return has been recorded",
		"REFUSED":  "your loan request has been refused",
	}[ev.NewStatus]
	if action == "" {
		action = "your loan request status changed to " + ev.NewStatus
	}

	subject = fmt.Sprintf("%s: %s", appName, action)
	comment := ""
	if ev.Comment != "" {
		comment = fmt.Sprintf("<p>Comment: %s</p>", ev.Comment)
	}
	html = fmt.Sprintf(`
<div style="font-family:Arial,sans-serif; font-size:14px; color:#222">
  <p>Hello,</p>
  <p>%s.</p>
  <p>Request: <code>%s</code><br/>Equipment: <code>%s</code><br/>Status: <b>%s</b></p>
  %s
  <hr/>
  <p style="color:#666">This is an automated message from %s.</p>
</div>
`, action, ev.LoanID, ev.EquipmentID, ev.NewStatus, comment, appName)
	return subject, html
}

// SendMail sends a single HTML mail. Without SMTP configuration it logs the
// mail instead of failing, which keeps dev setups working.
func (m *Mailer) SendMail(toEmail, subject, html string) error {
	conf := m.conf
	if conf.Host == "" || (conf.Username == "" && conf.From == "") {
		log.Printf("[DEV] mail to %s: %s", toEmail, subject)
		return nil
	}

	fromAddr := conf.From
	if fromAddr == "" {
		fromAddr = conf.Username
	}

	msg := buildMIMEWithFromName(conf.AppName, fromAddr, toEmail, subject, html)
	auth := smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	addr := conf.Host + ":" + conf.Port
	return smtp.SendMail(addr, auth, fromAddr, []string{toEmail}, []byte(msg))
}

func buildMIMEWithFromName(fromName, fromAddr, to, subject, html string) string {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + html
}
