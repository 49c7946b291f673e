package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/errors"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

// MessageService handles course-scoped messaging between leaders and
// participants.
type MessageService interface {
	Send(ctx context.Context, sender *model.User, courseID uuid.UUID, recipientID *uuid.UUID, content string) (*model.Message, error)
	Inbox(ctx context.Context, userID uuid.UUID) ([]model.Message, error)
	Sent(ctx context.Context, userID uuid.UUID) ([]model.Message, error)
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) error
}

type messageService struct {
	msgRepo    repository.MessageRepository
	courseRepo repository.CourseRepository
	regRepo    repository.RegistrationRepository
}

// NewMessageService creates a new message service.
func NewMessageService(
	msgRepo repository.MessageRepository,
	courseRepo repository.CourseRepository,
	regRepo repository.RegistrationRepository,
) MessageService {
	return &messageService{
		msgRepo:    msgRepo,
		courseRepo: courseRepo,
		regRepo:    regRepo,
	}
}

// Send stores a message in a course context. Leaders (and admins) may write
// to one participant or broadcast to all; participants may only write to the
// course's leader, regardless of the requested recipient.
func (s *messageService) Send(ctx context.Context, sender *model.User, courseID uuid.UUID, recipientID *uuid.UUID, content string) (*model.Message, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}

	msg := &model.Message{
		CourseID: courseID,
		SenderID: sender.ID,
		Content:  content,
	}

	leads := sender.IsAdmin() || course.TeacherID == sender.ID

	switch {
	case leads && recipientID == nil:
		msg.IsBroadcast = true
	case leads:
		msg.RecipientID = recipientID
	default:
		// Participants need an active registration and always reach the leader.
		if _, err := s.regRepo.FindActive(ctx, courseID, sender.ID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrMessageNotAllowed
			}
			return nil, fmt.Errorf("check registration: %w", err)
		}
		teacherID := course.TeacherID
		msg.RecipientID = &teacherID
	}

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Inbox returns direct messages plus broadcasts for courses the user is
// actively registered in.
func (s *messageService) Inbox(ctx context.Context, userID uuid.UUID) ([]model.Message, error) {
	regs, err := s.regRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	courseIDs := make([]uuid.UUID, 0, len(regs))
	for _, reg := range regs {
		courseIDs = append(courseIDs, reg.CourseID)
	}
	return s.msgRepo.ListInbox(ctx, userID, courseIDs)
}

func (s *messageService) Sent(ctx context.Context, userID uuid.UUID) ([]model.Message, error) {
	return s.msgRepo.ListSent(ctx, userID)
}

// MarkRead flags a direct message as read. Only the recipient may do so;
// broadcasts have no per-recipient read state and are rejected.
func (s *messageService) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrMessageNotAllowed
		}
		return fmt.Errorf("find message: %w", err)
	}
	if msg.RecipientID == nil || *msg.RecipientID != userID {
		return errors.ErrMessageNotAllowed
	}
	return s.msgRepo.MarkRead(ctx, messageID)
}
