package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/taskdash/taskdash-api/internal/config"
	"github.com/taskdash/taskdash-api/internal/model"
)

type smtpService struct {
	dialer     *gomail.Dialer
	fromEmail  string
	fromName   string
	adminEmail string
}

// NewSMTPService creates the gomail-backed sender. The dialer uses implicit
// SSL when the configured port is 465, STARTTLS otherwise.
func NewSMTPService(cfg config.SMTPConfig) Service {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.Port == 465

	return &smtpService{
		dialer:     dialer,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		adminEmail: cfg.AdminEmail,
	}
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support, so the dial+send runs in a goroutine
	// and the caller's deadline decides when to give up waiting on it.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", to, err)
		}
		return nil
	}
}

func (s *smtpService) SendMeetingReminder(ctx context.Context, to, name string, meeting *model.Meeting) error {
	subject := fmt.Sprintf("Reminder: %s starts in %d minutes", meeting.Title, meeting.ReminderMinutes)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your meeting %q starts at %s UTC.\n", meeting.Title, meeting.MeetingDate.UTC().Format("2006-01-02 15:04"))
	if meeting.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", meeting.Location)
	}
	if meeting.MeetingURL != "" {
		fmt.Fprintf(&b, "Join: %s\n", meeting.MeetingURL)
	}
	fmt.Fprintf(&b, "Duration: %d minutes\n", meeting.DurationMinutes)

	return s.send(ctx, to, subject, b.String())
}

func (s *smtpService) SendTaskNotification(ctx context.Context, to, name string, task *model.Task) error {
	subject := fmt.Sprintf("Task overdue: %s", task.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour task %q (priority %s) has been %s since %s UTC. Please review it.\n",
		name, task.Title, task.Priority, task.Status, task.CreatedAt.UTC().Format("2006-01-02 15:04"),
	)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendTaskDigest(ctx context.Context, to, name string, tasks []*model.Task) error {
	subject := fmt.Sprintf("You have %d open tasks", len(tasks))

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour open tasks:\n\n", name)
	for _, t := range tasks {
		desc := t.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", t.Status, t.Priority, t.Title, desc)
	}

	return s.send(ctx, to, subject, b.String())
}

func (s *smtpService) SendDailySummary(ctx context.Context, to, name string, summary *model.TaskSummary) error {
	subject := "Your daily task summary"
	body := fmt.Sprintf(
		"Hi %s,\n\nTasks: %d total, %d pending, %d in progress, %d completed.\n\nHave a productive day!\n",
		name, summary.Total, summary.Pending, summary.InProgress, summary.Completed,
	)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendAlert(ctx context.Context, subject, body string) error {
	if s.adminEmail == "" {
		return fmt.Errorf("no admin email configured")
	}
	return s.send(ctx, s.adminEmail, subject, body+fmt.Sprintf("\n\nReported at %s UTC\n", time.Now().UTC().Format(time.RFC3339)))
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}
