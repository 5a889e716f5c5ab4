package models

import "time"

// Like 点赞记录。(image_id, user_id) 的唯一索引是并发切换的仲裁者，
// 多实例部署下的正确性依赖该约束而非进程内锁。
type Like struct {
	ID      uint      `gorm:"primaryKey;autoIncrement"`
	ImageID string    `gorm:"type:uuid;uniqueIndex:idx_like_image_user,priority:1;not null"`
	UserID  uint      `gorm:"uniqueIndex:idx_like_image_user,priority:2;not null"`
	LikedAt time.Time `gorm:"index;not null"`
}
