package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// ErrDeliveryFailed is returned when SendGrid rejects a message.
var ErrDeliveryFailed = errors.New("mail delivery failed")

// SendGrid delivers notifications through the SendGrid v3 API.
type SendGrid struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
	api    func(rest.Request) (*rest.Response, error)
}

var _ app.Notifier = (*SendGrid)(nil)

func NewSendGrid(key, fromName, fromEmail string, logger *zap.Logger) *SendGrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGrid{
		key:    key,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
		api:    sendgrid.API,
	}
}

func (s *SendGrid) NotifySubmission(ctx context.Context, to string, n app.SubmissionNotice) error {
	msg, err := SubmissionMessage(to, n)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// AnnounceQuiz sends one message per student so addresses are not disclosed
// to each other. It keeps going after a failure and returns the first error.
func (s *SendGrid) AnnounceQuiz(ctx context.Context, to []string, a app.QuizAnnouncement) (int, error) {
	var (
		sent     int
		firstErr error
	)
	for _, addr := range to {
		msg, err := AnnouncementMessage(addr, a)
		if err == nil {
			err = s.send(ctx, msg)
		}
		if err != nil {
			s.logger.Warn("announcement not sent", zap.String("to", addr), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, firstErr
}

func (s *SendGrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	return m
}

func (s *SendGrid) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(s.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := s.api(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, res.StatusCode, res.Body)
	}
	s.logger.Debug("mail sent", zap.String("subject", msg.Subject), zap.Int("status", res.StatusCode))
	return nil
}
