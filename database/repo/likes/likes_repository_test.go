package likes

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:likes_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

	// 自动迁移
	err = db.AutoMigrate(&models.User{}, &models.Image{}, &models.Tag{}, &models.Like{})
	assert.NoError(t, err)

	return db
}

// testProvider 测试数据库提供者
type testProvider struct {
	db *gorm.DB
}

func (p *testProvider) DB() *gorm.DB {
	return p.db
}

func (p *testProvider) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

func (p *testProvider) Transaction(fn database.TxFunc) error {
	return p.db.Transaction(fn)
}

func (p *testProvider) TransactionWithContext(ctx context.Context, fn database.TxFunc) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

func (p *testProvider) AutoMigrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

func (p *testProvider) SQLDB() (*sql.DB, error) {
	return p.db.DB()
}

func (p *testProvider) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (p *testProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *testProvider) Name() string {
	return "sqlite"
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Role:     models.RoleUser,
		Enabled:  true,
	}
	assert.NoError(t, db.Create(user).Error)
	return user
}

func createTestImage(t *testing.T, db *gorm.DB, userID uint, title string, uploadedAt time.Time) *models.Image {
	image := &models.Image{
		Title:      title,
		Identifier: fmt.Sprintf("%s-%d.jpg", title, time.Now().UnixNano()),
		MimeType:   "image/jpeg",
		FileSize:   1024,
		UserID:     userID,
		UploadedAt: uploadedAt,
	}
	assert.NoError(t, db.Create(image).Error)
	return image
}

func TestRepository_Toggle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	image := createTestImage(t, db, user.ID, "sunset", time.Now().UTC())

	// 第一次切换：点赞
	liked, err := repo.Toggle(ctx, image.ID, user.ID)
	assert.NoError(t, err)
	assert.True(t, liked)

	count, err := repo.CountByImage(ctx, image.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 第二次切换：取消点赞
	liked, err = repo.Toggle(ctx, image.ID, user.ID)
	assert.NoError(t, err)
	assert.False(t, liked)

	count, err = repo.CountByImage(ctx, image.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRepository_Toggle_IndependentUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	image := createTestImage(t, db, alice.ID, "sunset", time.Now().UTC())

	liked, err := repo.Toggle(ctx, image.ID, alice.ID)
	assert.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.Toggle(ctx, image.ID, bob.ID)
	assert.NoError(t, err)
	assert.True(t, liked)

	count, err := repo.CountByImage(ctx, image.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// alice 取消点赞不影响 bob
	liked, err = repo.Toggle(ctx, image.ID, alice.ID)
	assert.NoError(t, err)
	assert.False(t, liked)

	exists, err := repo.Exists(ctx, image.ID, bob.ID)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_CountByImages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	first := createTestImage(t, db, alice.ID, "first", time.Now().UTC())
	second := createTestImage(t, db, alice.ID, "second", time.Now().UTC())

	_, err := repo.Toggle(ctx, first.ID, alice.ID)
	assert.NoError(t, err)
	_, err = repo.Toggle(ctx, first.ID, bob.ID)
	assert.NoError(t, err)
	_, err = repo.Toggle(ctx, second.ID, bob.ID)
	assert.NoError(t, err)

	counts, err := repo.CountByImages(ctx, []string{first.ID, second.ID})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), counts[first.ID])
	assert.Equal(t, int64(1), counts[second.ID])
}

func TestRepository_LikedSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	first := createTestImage(t, db, alice.ID, "first", time.Now().UTC())
	second := createTestImage(t, db, alice.ID, "second", time.Now().UTC())

	_, err := repo.Toggle(ctx, first.ID, bob.ID)
	assert.NoError(t, err)

	liked, err := repo.LikedSet(ctx, []string{first.ID, second.ID}, bob.ID)
	assert.NoError(t, err)
	assert.True(t, liked[first.ID])
	assert.False(t, liked[second.ID])

	// 匿名查看者没有点赞集合
	liked, err = repo.LikedSet(ctx, []string{first.ID, second.ID}, 0)
	assert.NoError(t, err)
	assert.Empty(t, liked)
}

func TestRepository_Leaderboard_WindowAndOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	june := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	july := june.AddDate(0, 1, 0)

	popular := createTestImage(t, db, alice.ID, "popular", june.Add(24*time.Hour))
	runnerUp := createTestImage(t, db, bob.ID, "runner-up", june.Add(48*time.Hour))

	likeAt := func(imageID string, userID uint, at time.Time) {
		assert.NoError(t, db.Create(&models.Like{ImageID: imageID, UserID: userID, LikedAt: at}).Error)
	}

	// 六月窗口内：popular 两赞、runnerUp 一赞
	likeAt(popular.ID, alice.ID, june.Add(2*time.Hour))
	likeAt(popular.ID, bob.ID, june.Add(3*time.Hour))
	likeAt(runnerUp.ID, carol.ID, june.Add(4*time.Hour))

	// 窗口外的点赞不计入：五月末与七月初
	likeAt(runnerUp.ID, alice.ID, june.Add(-time.Minute))
	likeAt(runnerUp.ID, bob.ID, july)

	rows, err := repo.Leaderboard(ctx, june, july, 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, popular.ID, rows[0].ImageID)
	assert.Equal(t, int64(2), rows[0].LikeCount)
	assert.Equal(t, "alice", rows[0].Username)

	assert.Equal(t, runnerUp.ID, rows[1].ImageID)
	assert.Equal(t, int64(1), rows[1].LikeCount)
}

func TestRepository_Leaderboard_TieBreakByUploadTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	june := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	july := june.AddDate(0, 1, 0)

	older := createTestImage(t, db, alice.ID, "older", june.Add(time.Hour))
	newer := createTestImage(t, db, bob.ID, "newer", june.Add(2*time.Hour))

	// 两张图各一赞，平局由最早上传的胜出
	assert.NoError(t, db.Create(&models.Like{ImageID: newer.ID, UserID: alice.ID, LikedAt: june.Add(5 * time.Hour)}).Error)
	assert.NoError(t, db.Create(&models.Like{ImageID: older.ID, UserID: bob.ID, LikedAt: june.Add(6 * time.Hour)}).Error)

	rows, err := repo.Leaderboard(ctx, june, july, 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, older.ID, rows[0].ImageID)
	assert.Equal(t, newer.ID, rows[1].ImageID)
}

func TestRepository_Leaderboard_Limit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	june := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	july := june.AddDate(0, 1, 0)

	for i := 0; i < 3; i++ {
		image := createTestImage(t, db, alice.ID, fmt.Sprintf("image-%d", i), june.Add(time.Duration(i)*time.Hour))
		assert.NoError(t, db.Create(&models.Like{ImageID: image.ID, UserID: alice.ID, LikedAt: june.Add(time.Hour)}).Error)
	}

	rows, err := repo.Leaderboard(ctx, june, july, 2)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}
