package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser refreshes the profile fields and leaves reputation counters alone on conflict.
func (r *UserRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	m := UserModel{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	columns := []string{"username", "updated_at"}
	if user.Email != "" {
		columns = append(columns, "email")
	}

	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&m).Error
	return storeErr("upsert user", err)
}

func (r *UserRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	var m UserModel
	err := conn(ctx, r.db).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return m.toDomain(), nil
}

// IncrementReputation updates both counters in one statement and reads the row back under the same lock.
func (r *UserRepository) IncrementReputation(ctx context.Context, userID string, trustDelta, reunionsDelta int64) (*domain.User, error) {
	var m UserModel
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserModel{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"trust_score":         gorm.Expr("trust_score + ?", trustDelta),
			"successful_reunions": gorm.Expr("successful_reunions + ?", reunionsDelta),
			"updated_at":          time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return tx.Where("id = ?", userID).Take(&m).Error
	})
	if err != nil {
		return nil, storeErr("increment reputation", err)
	}
	return m.toDomain(), nil
}
