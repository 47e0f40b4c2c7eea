package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, framesPrefix, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	msg := buildFailureMessage(n.from, userEmail, jobID, framesPrefix, errorMsg)

	err := smtp.SendMail(addr, nil, n.from, []string{userEmail}, msg)
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func buildFailureMessage(from, to, jobID, framesPrefix, errorMsg string) []byte {
	subject := fmt.Sprintf("FIAP X - Pose Smoothing Failed [Job %s]", jobID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Your keypoint smoothing job could not be completed.\r\n\r\n"+
			"Job ID: %s\r\n"+
			"Frames: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"Check that the clip has at least 9 OpenPose frames and re-submit it.\r\n\r\n"+
			"-- FIAP X Pose Service",
		jobID, framesPrefix, errorMsg,
	)

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, to, subject, body,
	))
}
