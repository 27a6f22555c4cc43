package email

import (
	"context"

	"github.com/taskdash/taskdash-api/internal/model"
)

type Service interface {
	SendMeetingReminder(ctx context.Context, to, name string, meeting *model.Meeting) error
	SendTaskNotification(ctx context.Context, to, name string, task *model.Task) error
	SendTaskDigest(ctx context.Context, to, name string, tasks []*model.Task) error
	SendDailySummary(ctx context.Context, to, name string, summary *model.TaskSummary) error
	SendAlert(ctx context.Context, subject, body string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}
