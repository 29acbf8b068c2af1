package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

const DefaultTrustIncrement int64 = 10

// ReputationUsecase keeps trust scores and reunion counts. Only reunion confirmation credits it.
type ReputationUsecase struct {
	users        domain.UserRepository
	increment    int64
	logger       *logger.Logger
	storeTimeout time.Duration
}

// NewReputationUsecase clamps a negative increment to zero so scores never decrease.
func NewReputationUsecase(users domain.UserRepository, increment int64, log *logger.Logger, storeTimeout time.Duration) *ReputationUsecase {
	l := log.Named("ReputationUsecase")
	if increment < 0 {
		l.Warn("negative trust increment configured, using 0", zap.Int64("increment", increment))
		increment = 0
	}
	return &ReputationUsecase{
		users:        users,
		increment:    increment,
		logger:       l,
		storeTimeout: storeTimeout,
	}
}

func (uc *ReputationUsecase) Increment() int64 {
	return uc.increment
}

// CreditReunion adds one reunion and the trust increment in a single atomic update.
// It is not idempotent; callers invoke it once per confirmed reunion.
func (uc *ReputationUsecase) CreditReunion(ctx context.Context, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Invalid("user_id", "is required")
	}

	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	user, err := uc.users.IncrementReputation(sctx, userID, uc.increment, 1)
	if err != nil {
		uc.logger.Error("failed to credit reunion", zap.String("user_id", userID), zap.Error(err))
		return nil, domain.Unavailable("increment reputation", err)
	}

	uc.logger.Info("reunion credited",
		zap.String("user_id", userID),
		zap.Int64("trust_score", user.TrustScore),
		zap.Int64("successful_reunions", user.SuccessfulReunions),
	)
	return user, nil
}

func (uc *ReputationUsecase) GetProfile(ctx context.Context, userID string) (*domain.PublicProfile, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	user, err := uc.users.FindUserByID(sctx, userID)
	if err != nil {
		return nil, domain.Unavailable("find user", err)
	}
	profile := user.Public()
	return &profile, nil
}
