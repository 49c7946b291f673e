package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/model"
)

// MessageRepository defines message persistence operations.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
	ListInbox(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]model.Message, error)
	ListSent(ctx context.Context, senderID uuid.UUID) ([]model.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListInbox returns direct messages to the user plus broadcasts for the
// given courses (the ones the user is actively registered in).
func (r *messageRepository) ListInbox(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]model.Message, error) {
	var msgs []model.Message
	q := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Course")
	if len(courseIDs) > 0 {
		q = q.Where("recipient_id = ? OR (is_broadcast = ? AND course_id IN ?)", userID, true, courseIDs)
	} else {
		q = q.Where("recipient_id = ?", userID)
	}
	if err := q.Order("created_at DESC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) ListSent(ctx context.Context, senderID uuid.UUID) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Preload("Recipient").
		Preload("Course").
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", id).
		Update("read", true).Error
}
