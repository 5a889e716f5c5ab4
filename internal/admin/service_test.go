package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	usersRepo "github.com/anoixa/photo-gallery/database/repo/users"
	"github.com/anoixa/photo-gallery/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:admin_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

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

// flakyStore 可注入删除失败的存根存储
type flakyStore struct {
	deleteErr error
	deleted   []string
}

func (s *flakyStore) SaveWithContext(context.Context, string, io.Reader, int64, string) error {
	return nil
}

func (s *flakyStore) DeleteWithContext(_ context.Context, identifier string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, identifier)
	return nil
}

func (s *flakyStore) PresignedURL(_ context.Context, identifier string, _ time.Duration) (string, error) {
	return "https://cdn.example.com/" + identifier, nil
}

func (s *flakyStore) Exists(context.Context, string) (bool, error) {
	return true, nil
}

func (s *flakyStore) Health(context.Context) error {
	return nil
}

func (s *flakyStore) Name() string {
	return "flaky"
}

func setupService(t *testing.T) (*Service, *gorm.DB, *flakyStore) {
	db := setupTestDB(t)
	provider := &testProvider{db: db}
	store := &flakyStore{}

	service := NewService(
		usersRepo.NewRepository(provider),
		imagesRepo.NewRepository(provider),
		likesRepo.NewRepository(provider),
		store,
	)
	return service, db, store
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Role:     role,
		Enabled:  true,
	}
	assert.NoError(t, db.Create(user).Error)
	return user
}

func createTestImage(t *testing.T, db *gorm.DB, userID uint, title string) *models.Image {
	image := &models.Image{
		Title:      title,
		Identifier: fmt.Sprintf("%s-%d.jpg", title, time.Now().UnixNano()),
		MimeType:   "image/jpeg",
		FileSize:   1024,
		UserID:     userID,
		UploadedAt: time.Now().UTC(),
	}
	assert.NoError(t, db.Create(image).Error)
	return image
}

func TestService_ListUsers(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", models.RoleAdmin)
	createTestUser(t, db, "bob", models.RoleUser)
	createTestImage(t, db, alice.ID, "one")
	createTestImage(t, db, alice.ID, "two")

	page, err := service.ListUsers(ctx, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
	assert.Len(t, page.Items, 2)

	assert.Equal(t, "alice", page.Items[0].Username)
	assert.Equal(t, int64(2), page.Items[0].ImageCount)
	assert.Equal(t, "bob", page.Items[1].Username)
	assert.Equal(t, int64(0), page.Items[1].ImageCount)
}

func TestService_DeleteUser_Cascade(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", models.RoleUser)
	bob := createTestUser(t, db, "bob", models.RoleUser)
	first := createTestImage(t, db, alice.ID, "first")
	second := createTestImage(t, db, alice.ID, "second")
	kept := createTestImage(t, db, bob.ID, "kept")

	// bob 给 alice 的图片点过赞
	assert.NoError(t, db.Create(&models.Like{ImageID: first.ID, UserID: bob.ID, LikedAt: time.Now().UTC()}).Error)

	assert.NoError(t, service.DeleteUser(ctx, alice.ID))

	var userCount, imageCount, likeCount int64
	assert.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.NoError(t, db.Model(&models.Image{}).Count(&imageCount).Error)
	assert.NoError(t, db.Model(&models.Like{}).Count(&likeCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), imageCount)
	assert.Equal(t, int64(0), likeCount)

	// 两个 blob 都被清理，bob 的图片不受影响
	assert.ElementsMatch(t, []string{first.Identifier, second.Identifier}, store.deleted)

	var remaining models.Image
	assert.NoError(t, db.First(&remaining, "id = ?", kept.ID).Error)
}

func TestService_DeleteUser_BlobFailureContinues(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", models.RoleUser)
	createTestImage(t, db, alice.ID, "orphaned")

	store.deleteErr = errors.New("storage down")

	// blob 删除失败不阻断级联删除
	assert.NoError(t, service.DeleteUser(ctx, alice.ID))

	var userCount, imageCount int64
	assert.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.NoError(t, db.Model(&models.Image{}).Count(&imageCount).Error)
	assert.Equal(t, int64(0), userCount)
	assert.Equal(t, int64(0), imageCount)
}

func TestService_DeleteUser_NotFound(t *testing.T) {
	service, _, _ := setupService(t)

	err := service.DeleteUser(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestService_ChangeRole(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleUser)

	view, err := service.ChangeRole(ctx, user.ID, models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, view.Role)

	var reloaded models.User
	assert.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
}

func TestService_ChangeRole_Invalid(t *testing.T) {
	service, db, _ := setupService(t)
	user := createTestUser(t, db, "alice", models.RoleUser)

	_, err := service.ChangeRole(context.Background(), user.ID, "superuser")
	assert.True(t, apperrors.IsValidation(err))
}

func TestService_SetEnabled(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleUser)

	view, err := service.SetEnabled(ctx, user.ID, false)
	assert.NoError(t, err)
	assert.False(t, view.Enabled)

	view, err = service.SetEnabled(ctx, user.ID, true)
	assert.NoError(t, err)
	assert.True(t, view.Enabled)
}

func TestService_SystemStats(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	disabled := createTestUser(t, db, "ghost", models.RoleUser)
	assert.NoError(t, db.Model(&models.User{}).Where("id = ?", disabled.ID).Update("enabled", false).Error)

	image := createTestImage(t, db, alice.ID, "stats")
	assert.NoError(t, db.Create(&models.Like{ImageID: image.ID, UserID: admin.ID, LikedAt: time.Now().UTC()}).Error)

	stats, err := service.SystemStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Users.Admins)
	assert.Equal(t, int64(2), stats.Users.Regular)
	assert.Equal(t, int64(2), stats.Users.Enabled)
	assert.Equal(t, int64(1), stats.Users.Disabled)
	assert.Equal(t, int64(1), stats.Images.Total)
	assert.Equal(t, int64(1024), stats.Images.TotalSizeBytes)
	assert.Equal(t, int64(1), stats.Likes.Total)
}
