package models

import "time"

// Tag 标签。Name 存储规范化后的小写形式，全局唯一。
// 标签目录只增不删：引用数为零的标签也会保留。
type Tag struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex:idx_tag_name;size:64;not null"`
	CreatedAt time.Time
}
