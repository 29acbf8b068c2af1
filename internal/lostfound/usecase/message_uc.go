package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// MessageUsecase coordinates messages toward listing owners and reunion confirmation.
type MessageUsecase struct {
	tx           domain.Transactor
	listings     domain.ListingRepository
	messages     domain.MessageRepository
	users        domain.UserRepository
	reputation   *ReputationUsecase
	cache        ListingCache
	events       EventPublisher
	notifier     Notifier
	logger       *logger.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

// NewMessageUsecase accepts nil cache, publisher and notifier.
func NewMessageUsecase(
	tx domain.Transactor,
	listings domain.ListingRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	reputation *ReputationUsecase,
	cache ListingCache,
	events EventPublisher,
	notifier Notifier,
	log *logger.Logger,
	storeTimeout time.Duration,
) *MessageUsecase {
	return &MessageUsecase{
		tx:           tx,
		listings:     listings,
		messages:     messages,
		users:        users,
		reputation:   reputation,
		cache:        cache,
		events:       events,
		notifier:     notifier,
		logger:       log.Named("MessageUsecase"),
		storeTimeout: storeTimeout,
		now:          utcNow,
	}
}

// SendMessage writes to the owner of the listing. The receiver always comes from the listing.
func (uc *MessageUsecase) SendMessage(ctx context.Context, sender domain.Identity, listingID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Invalid("content", "is required")
	}
	if strings.TrimSpace(sender.UserID) == "" {
		return nil, domain.Invalid("sender", "identity is required")
	}

	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	listing, err := uc.listings.FindListingByID(sctx, listingID)
	if err != nil {
		return nil, domain.Unavailable("find listing", err)
	}
	if listing.OwnerID == sender.UserID {
		return nil, domain.ErrSelfMessage
	}
	if !listing.IsOpen() {
		return nil, domain.ErrListingClosed
	}

	now := uc.now()
	if err := uc.users.UpsertUser(sctx, profileFromIdentity(sender, now)); err != nil {
		return nil, domain.Unavailable("record sender profile", err)
	}

	msg := &domain.Message{
		ListingID:  listing.ID,
		SenderID:   sender.UserID,
		ReceiverID: listing.OwnerID,
		Content:    content,
		CreatedAt:  now,
	}
	if err := uc.messages.InsertMessage(sctx, msg); err != nil {
		uc.logger.Error("failed to insert message", zap.String("listing_id", listingID), zap.Error(err))
		return nil, domain.Unavailable("insert message", err)
	}

	uc.logger.Info("message sent",
		zap.String("message_id", msg.ID),
		zap.String("listing_id", msg.ListingID),
		zap.String("sender_id", msg.SenderID),
		zap.String("receiver_id", msg.ReceiverID),
	)
	publish(ctx, uc.events, uc.logger, SubjectMessageSent, MessageEvent{
		MessageID:  msg.ID,
		ListingID:  msg.ListingID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		OccurredAt: now,
	})
	uc.notifyOwner(sctx, listing, sender, msg)
	return msg, nil
}

func (uc *MessageUsecase) notifyOwner(ctx context.Context, listing *domain.Listing, sender domain.Identity, msg *domain.Message) {
	if uc.notifier == nil {
		return
	}
	owner, err := uc.users.FindUserByID(ctx, listing.OwnerID)
	if err != nil {
		uc.logger.Warn("cannot load owner for notification", zap.String("owner_id", listing.OwnerID), zap.Error(err))
		return
	}
	if owner.Email == "" {
		return
	}
	notice := NewMessageNotice{
		RecipientEmail: owner.Email,
		RecipientName:  owner.Username,
		SenderName:     sender.Username,
		ListingID:      listing.ID,
		ListingTitle:   listing.Title,
		Content:        msg.Content,
	}
	if err := uc.notifier.NotifyNewMessage(ctx, notice); err != nil {
		uc.logger.Warn("failed to notify listing owner", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// MarkRead is idempotent for the receiver and forbidden for everyone else.
func (uc *MessageUsecase) MarkRead(ctx context.Context, messageID, actorID string) (*domain.Message, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	msg, err := uc.messages.FindMessageByID(sctx, messageID)
	if err != nil {
		return nil, domain.Unavailable("find message", err)
	}
	if msg.ReceiverID != actorID {
		return nil, domain.ErrNotMessageTarget
	}
	if msg.IsRead {
		return msg, nil
	}
	if err := uc.messages.MarkMessageRead(sctx, messageID); err != nil {
		return nil, domain.Unavailable("mark message read", err)
	}
	msg.IsRead = true
	return msg, nil
}

// ListListingMessages shows the owner the whole thread and anyone else only what they sent.
func (uc *MessageUsecase) ListListingMessages(ctx context.Context, listingID, actorID string) ([]*domain.Message, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	listing, err := uc.listings.FindListingByID(sctx, listingID)
	if err != nil {
		return nil, domain.Unavailable("find listing", err)
	}
	msgs, err := uc.messages.FindMessagesByListing(sctx, listingID)
	if err != nil {
		return nil, domain.Unavailable("find listing messages", err)
	}
	if listing.OwnerID == actorID {
		return msgs, nil
	}

	own := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.SenderID == actorID {
			own = append(own, m)
		}
	}
	return own, nil
}

func (uc *MessageUsecase) Inbox(ctx context.Context, actorID string) ([]*domain.Message, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	msgs, err := uc.messages.FindMessagesByReceiver(sctx, actorID)
	if err != nil {
		return nil, domain.Unavailable("find inbox", err)
	}
	return msgs, nil
}

// ConfirmReunion closes the listing and credits whoever messaged about it most recently.
// Both writes commit together; a second confirmation fails on the closed listing.
func (uc *MessageUsecase) ConfirmReunion(ctx context.Context, listingID, actorID string) (*domain.ReunionResult, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	var result *domain.ReunionResult
	err := uc.tx.WithinTransaction(sctx, func(txCtx context.Context) error {
		listing, err := uc.listings.FindListingByID(txCtx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID != actorID {
			return domain.ErrNotListingOwner
		}
		if !listing.IsOpen() {
			return domain.ErrListingClosed
		}

		msgs, err := uc.messages.FindMessagesByListing(txCtx, listingID)
		if err != nil {
			return err
		}
		latest := latestFromCounterparty(msgs, listing.OwnerID)
		if latest == nil {
			return domain.ErrNoReunionPartner
		}

		if err := uc.listings.UpdateListingStatus(txCtx, listingID, domain.StatusOpen, domain.StatusClosed); err != nil {
			return err
		}
		credited, err := uc.reputation.CreditReunion(txCtx, latest.SenderID)
		if err != nil {
			return err
		}

		listing.Status = domain.StatusClosed
		listing.UpdatedAt = uc.now()
		result = &domain.ReunionResult{Listing: listing, CreditedUser: credited, MessageID: latest.ID}
		return nil
	})
	if err != nil {
		if domain.Kind(err) == nil || errors.Is(err, domain.ErrUnavailable) {
			uc.logger.Error("reunion confirmation failed", zap.String("listing_id", listingID), zap.Error(err))
		}
		return nil, domain.Unavailable("confirm reunion", err)
	}

	invalidate(ctx, uc.cache, uc.logger, listingID)
	uc.logger.Info("reunion confirmed",
		zap.String("listing_id", listingID),
		zap.String("owner_id", actorID),
		zap.String("credited_user_id", result.CreditedUser.ID),
	)
	publish(ctx, uc.events, uc.logger, SubjectListingClosed, newListingEvent(result.Listing, result.Listing.UpdatedAt))
	publish(ctx, uc.events, uc.logger, SubjectReunionConfirmed, ReunionEvent{
		ListingID:          listingID,
		OwnerID:            actorID,
		CreditedUserID:     result.CreditedUser.ID,
		TrustScore:         result.CreditedUser.TrustScore,
		SuccessfulReunions: result.CreditedUser.SuccessfulReunions,
		OccurredAt:         result.Listing.UpdatedAt,
	})
	return result, nil
}

// latestFromCounterparty expects msgs oldest first; ties go to the later entry.
func latestFromCounterparty(msgs []*domain.Message, ownerID string) *domain.Message {
	var latest *domain.Message
	for _, m := range msgs {
		if m.SenderID == ownerID {
			continue
		}
		if latest == nil || !m.CreatedAt.Before(latest.CreatedAt) {
			latest = m
		}
	}
	return latest
}
