package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image 图片元数据。创建后除删除外不可变更。
// Identifier 是对象存储中的唯一键，与存储对象一一对应。
type Image struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Title        string `gorm:"size:255;not null"`
	Description  string `gorm:"size:1000"`
	Identifier   string `gorm:"uniqueIndex:idx_image_identifier;size:128;not null"`
	OriginalName string `gorm:"size:255"`
	MimeType     string `gorm:"size:64;not null"`
	FileSize     int64  `gorm:"not null"`
	Width        int
	Height       int

	UserID uint `gorm:"index;not null"`
	User   User `gorm:"foreignKey:UserID"`

	UploadedAt time.Time `gorm:"index;not null"`

	Tags []*Tag `gorm:"many2many:image_tags;"`
}

// BeforeCreate 生成主键和上传时间
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.UploadedAt.IsZero() {
		i.UploadedAt = time.Now().UTC()
	}
	return nil
}

// TagNames 返回排序前的标签名列表
func (i *Image) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, tag := range i.Tags {
		names = append(names, tag.Name)
	}
	return names
}
