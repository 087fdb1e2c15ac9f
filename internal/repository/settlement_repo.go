package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

type SettlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) GetByMonth(month time.Time) (*model.MonthlySettlement, error) {
	var settlement model.MonthlySettlement
	err := r.db.Where("month = ?", month).First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *SettlementRepository) List() ([]*model.MonthlySettlement, error) {
	var settlements []*model.MonthlySettlement
	err := r.db.Order("month DESC").Find(&settlements).Error
	return settlements, err
}

// SaveWithEarnings 在单个事务内写入结算及其讲师收益，并同步余额台账
// 同月已有 DRAFT 时先冲回旧收益再覆盖，保证余额不重复累加；全部成功或全部回滚
func (r *SettlementRepository) SaveWithEarnings(settlement *model.MonthlySettlement, earnings []*model.EducatorEarning) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.MonthlySettlement
		err := tx.Where("month = ?", settlement.Month).First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		if err == nil {
			// 冲回旧草稿的收益
			var oldEarnings []*model.EducatorEarning
			if err := tx.Where("settlement_id = ?", existing.ID).Find(&oldEarnings).Error; err != nil {
				return err
			}
			for _, old := range oldEarnings {
				err := tx.Model(&model.EducatorBalance{}).
					Where("educator_id = ?", old.EducatorID).
					Updates(map[string]interface{}{
						"total_earned": gorm.Expr("total_earned - ?", old.Earnings),
						"available":    gorm.Expr("available - ?", old.Earnings),
					}).Error
				if err != nil {
					return err
				}
			}
			if err := tx.Where("settlement_id = ?", existing.ID).Delete(&model.EducatorEarning{}).Error; err != nil {
				return err
			}

			settlement.ID = existing.ID
			settlement.CreatedAt = existing.CreatedAt
			if err := tx.Save(settlement).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(settlement).Error; err != nil {
				return err
			}
		}

		for _, earning := range earnings {
			earning.SettlementID = settlement.ID
			if err := tx.Create(earning).Error; err != nil {
				return err
			}

			// 余额台账 upsert
			var balance model.EducatorBalance
			err := tx.Where("educator_id = ?", earning.EducatorID).First(&balance).Error
			if err == gorm.ErrRecordNotFound {
				balance = model.EducatorBalance{
					EducatorID:  earning.EducatorID,
					TotalEarned: earning.Earnings,
					Available:   earning.Earnings,
				}
				if err := tx.Create(&balance).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			err = tx.Model(&model.EducatorBalance{}).
				Where("educator_id = ?", earning.EducatorID).
				Updates(map[string]interface{}{
					"total_earned": gorm.Expr("total_earned + ?", earning.Earnings),
					"available":    gorm.Expr("available + ?", earning.Earnings),
				}).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// Finalize 将结算置为 FINALIZED
func (r *SettlementRepository) Finalize(id int64, finalizedAt time.Time) error {
	return r.db.Model(&model.MonthlySettlement{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.SettlementFinalized,
			"finalized_at": finalizedAt,
		}).Error
}

// EarningWithUsername 讲师收益连带用户名
type EarningWithUsername struct {
	model.EducatorEarning
	Username string `json:"username"`
}

// GetEarningsBySettlement 查询结算的讲师收益明细，按收益降序
func (r *SettlementRepository) GetEarningsBySettlement(settlementID int64) ([]*EarningWithUsername, error) {
	var earnings []*EarningWithUsername
	err := r.db.Model(&model.EducatorEarning{}).
		Select("educator_earnings.*, users.username").
		Joins("LEFT JOIN users ON users.id = educator_earnings.educator_id").
		Where("educator_earnings.settlement_id = ?", settlementID).
		Order("educator_earnings.earnings DESC, educator_earnings.educator_id ASC").
		Scan(&earnings).Error
	return earnings, err
}

// GetEarningsByEducator 查询讲师的历史结算收益
func (r *SettlementRepository) GetEarningsByEducator(educatorID int64) ([]*model.EducatorEarning, error) {
	var earnings []*model.EducatorEarning
	err := r.db.Where("educator_id = ?", educatorID).Order("id DESC").Find(&earnings).Error
	return earnings, err
}

func (r *SettlementRepository) GetBalance(educatorID int64) (*model.EducatorBalance, error) {
	var balance model.EducatorBalance
	err := r.db.Where("educator_id = ?", educatorID).First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}
