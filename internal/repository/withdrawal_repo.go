package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

var (
	ErrInsufficientBalance = errors.New("可提现余额不足")
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(req *model.WithdrawalRequest) error {
	return r.db.Create(req).Error
}

func (r *WithdrawalRepository) GetByID(id int64) (*model.WithdrawalRequest, error) {
	var req model.WithdrawalRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *WithdrawalRepository) ListByUser(userID int64) ([]*model.WithdrawalRequest, error) {
	var reqs []*model.WithdrawalRequest
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&reqs).Error
	return reqs, err
}

func (r *WithdrawalRepository) ListAll(status string) ([]*model.WithdrawalRequest, error) {
	query := r.db.Model(&model.WithdrawalRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reqs []*model.WithdrawalRequest
	err := query.Order("id DESC").Find(&reqs).Error
	return reqs, err
}

func (r *WithdrawalRepository) UpdateStatus(id int64, status string, processedAt *time.Time) error {
	fields := map[string]interface{}{"status": status}
	if processedAt != nil {
		fields["processed_at"] = processedAt
	}
	return r.db.Model(&model.WithdrawalRequest{}).Where("id = ?", id).Updates(fields).Error
}

// ProcessDebit 在单个事务内将提现置为 PROCESSED 并从余额扣减
// 余额行加锁读取，可提现不足时返回 ErrInsufficientBalance 并回滚
func (r *WithdrawalRepository) ProcessDebit(req *model.WithdrawalRequest, processedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var balance model.EducatorBalance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("educator_id = ?", req.UserID).
			First(&balance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientBalance
			}
			return err
		}

		if balance.Available < req.Amount {
			return ErrInsufficientBalance
		}

		err = tx.Model(&model.EducatorBalance{}).
			Where("educator_id = ?", req.UserID).
			Updates(map[string]interface{}{
				"withdrawn": gorm.Expr("withdrawn + ?", req.Amount),
				"available": gorm.Expr("available - ?", req.Amount),
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.WithdrawalRequest{}).
			Where("id = ?", req.ID).
			Updates(map[string]interface{}{
				"status":       model.WithdrawalProcessed,
				"processed_at": processedAt,
			}).Error
	})
}
