package services

import (
	"context"
	"fmt"
	"time"

	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/streak"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type MailRecipients interface {
	ListWithEmail(ctx context.Context) ([]models.User, error)
}

type StreakMailer interface {
	IsConfigured() bool
	SendStreakReminder(to, username string, currentStreak int) error
}

// ReminderResult summarizes one reminder pass.
type ReminderResult struct {
	Checked int
	Sent    int
	Failed  int
}

// ReminderService mails users who have not logged anything today.
type ReminderService struct {
	users     MailRecipients
	mailer    StreakMailer
	streakLoc *time.Location
	remindLoc *time.Location
	log       *zap.Logger
	now       func() time.Time
}

func NewReminderService(users MailRecipients, mailer StreakMailer, streakLoc, remindLoc *time.Location, log *zap.Logger) *ReminderService {
	return &ReminderService{
		users:     users,
		mailer:    mailer,
		streakLoc: streakLoc,
		remindLoc: remindLoc,
		log:       log,
		now:       time.Now,
	}
}

// Start schedules RunOnce on spec, evaluated in the reminder timezone, and
// starts the scheduler. Stop the returned cron to cancel it.
func (s *ReminderService) Start(spec string) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(s.remindLoc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("failed to schedule reminders %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

func (s *ReminderService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("streak reminder run failed", zap.Error(err))
		return
	}
	s.log.Info("streak reminders sent",
		zap.Int("checked", res.Checked),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
}

// RunOnce sends one reminder to every user without activity today. A failed
// send is logged and counted; it does not stop the pass.
func (s *ReminderService) RunOnce(ctx context.Context) (ReminderResult, error) {
	var res ReminderResult
	if !s.mailer.IsConfigured() {
		s.log.Warn("smtp not configured, skipping streak reminders")
		return res, nil
	}

	users, err := s.users.ListWithEmail(ctx)
	if err != nil {
		return res, err
	}

	now := s.now()
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		if last, ok := u.LastActivity(); ok && streak.SameDay(last, now, s.remindLoc) {
			continue
		}

		current := streak.Current(u.Streak, now, s.streakLoc)
		if err := s.mailer.SendStreakReminder(u.Email, u.Username, current); err != nil {
			res.Failed++
			s.log.Warn("failed to send streak reminder", zap.String("user_id", u.ID.String()), zap.Error(err))
			continue
		}
		res.Sent++
	}
	return res, nil
}
