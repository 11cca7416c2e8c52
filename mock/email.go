package mock

import (
	"context"

	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.EmailService = (*EmailService)(nil)

// EmailService is a mock implementation of bantay.EmailService.
type EmailService struct {
	SendSuspensionNoticeFn func(ctx context.Context, to, actorName string, record *bantay.ViolationRecord) error

	// SentNotices records sent suspension notices for assertions.
	SentNotices []SentNotice
}

// SentNotice records details of a sent suspension notice.
type SentNotice struct {
	To        string
	ActorName string
	Record    *bantay.ViolationRecord
}

func (s *EmailService) SendSuspensionNotice(ctx context.Context, to, actorName string, record *bantay.ViolationRecord) error {
	s.SentNotices = append(s.SentNotices, SentNotice{To: to, ActorName: actorName, Record: record})
	if s.SendSuspensionNoticeFn != nil {
		return s.SendSuspensionNoticeFn(ctx, to, actorName, record)
	}
	return nil
}
