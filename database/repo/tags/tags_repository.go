package tags

import (
	"context"

	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	"gorm.io/gorm/clause"
)

// Repository 标签仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的标签仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// FindByNames 批量查询标签。名称必须已规范化为小写，
// 与存储的规范形式比较即实现大小写不敏感匹配。
func (r *Repository) FindByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	if len(names) == 0 {
		return []*models.Tag{}, nil
	}

	var tags []*models.Tag
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&tags).Error
	return tags, err
}

// CreateIgnoreConflicts 乐观批量创建标签。
// name 唯一约束是事实来源：并发上传同名标签时冲突行被忽略，
// 调用方随后重查即可拿到已存在的行，冲突从不向上传播。
func (r *Repository) CreateIgnoreConflicts(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tags := make([]*models.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, &models.Tag{Name: name})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tags).Error
}

// TotalCount 标签总数
func (r *Repository) TotalCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Count(&total).Error
	return total, err
}
