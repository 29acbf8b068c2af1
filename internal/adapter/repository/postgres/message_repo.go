package postgres

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	m := MessageModel{
		ID:         uuid.NewString(),
		ListingID:  msg.ListingID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		IsRead:     msg.IsRead,
		CreatedAt:  msg.CreatedAt,
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return storeErr("insert message", err)
	}
	msg.ID = m.ID
	return nil
}

func (r *MessageRepository) FindMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	var m MessageModel
	err := conn(ctx, r.db).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, storeErr("find message", err)
	}
	return m.toDomain(), nil
}

func (r *MessageRepository) FindMessagesByListing(ctx context.Context, listingID string) ([]*domain.Message, error) {
	return r.find(ctx, "find listing messages", "listing_id = ?", listingID, "created_at ASC, id ASC")
}

func (r *MessageRepository) FindMessagesByReceiver(ctx context.Context, receiverID string) ([]*domain.Message, error) {
	return r.find(ctx, "find received messages", "receiver_id = ?", receiverID, "created_at DESC, id DESC")
}

func (r *MessageRepository) MarkMessageRead(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Model(&MessageModel{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return storeErr("mark message read", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) find(ctx context.Context, op, where, arg, order string) ([]*domain.Message, error) {
	var models []MessageModel
	if err := conn(ctx, r.db).Where(where, arg).Order(order).Find(&models).Error; err != nil {
		return nil, storeErr(op, err)
	}
	msgs := make([]*domain.Message, len(models))
	for i := range models {
		msgs[i] = models[i].toDomain()
	}
	return msgs, nil
}
