package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/models"
)

// EmailService sends operational notifications.
type EmailService interface {
	SendContactNotification(ctx context.Context, contact *models.Contact) error
}

// AWSSESEmailService sends notifications through AWS SES.
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	adminEmail  string
	logger      *slog.Logger
}

func NewAWSSESEmailService(cfg *config.EmailConfig, logger *slog.Logger) (*AWSSESEmailService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		adminEmail:  cfg.AdminEmail,
		logger:      logger,
	}, nil
}

// SendContactNotification mails the submission to the site administrator.
func (s *AWSSESEmailService) SendContactNotification(ctx context.Context, contact *models.Contact) error {
	subject := fmt.Sprintf("[에멜무지로] 새 문의: %s", contact.Subject)

	textBody := fmt.Sprintf(`새로운 문의가 접수되었습니다.

이름: %s
이메일: %s
회사: %s
연락처: %s
문의 유형: %s

제목: %s

내용:
%s

접수 시각: %s
`,
		contact.Name, contact.Email, contact.Company, contact.Phone,
		contact.InquiryTypeLabel(), contact.Subject, contact.Message,
		contact.CreatedAt.Format("2006-01-02 15:04:05"),
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.adminEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		ReplyToAddresses: []string{contact.Email},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send contact notification via SES",
			slog.String("contact_id", contact.ID),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("contact notification sent",
		slog.String("contact_id", contact.ID),
		slog.String("message_id", *result.MessageId))
	return nil
}

// LogOnlyEmailService is used in development when no SES credentials or
// admin address are configured. It records the notification in the log and
// succeeds.
type LogOnlyEmailService struct {
	logger *slog.Logger
}

func NewLogOnlyEmailService(logger *slog.Logger) *LogOnlyEmailService {
	return &LogOnlyEmailService{logger: logger}
}

func (s *LogOnlyEmailService) SendContactNotification(ctx context.Context, contact *models.Contact) error {
	s.logger.Info("contact notification (log only)",
		slog.String("contact_id", contact.ID),
		slog.String("subject", contact.Subject),
		slog.String("inquiry_type", contact.InquiryType))
	return nil
}
