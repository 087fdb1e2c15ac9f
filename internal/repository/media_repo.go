package repository

import (
	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(media *model.Media) error {
	return r.db.Create(media).Error
}

func (r *MediaRepository) GetByID(id int64) (*model.Media, error) {
	var media model.Media
	err := r.db.Where("id = ?", id).First(&media).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *MediaRepository) ListByEducator(educatorID int64) ([]*model.Media, error) {
	var medias []*model.Media
	err := r.db.Where("educator_id = ?", educatorID).Order("id DESC").Find(&medias).Error
	return medias, err
}
