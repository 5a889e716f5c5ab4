package content

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anoixa/photo-gallery/config"
	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	imagesRepo "github.com/anoixa/photo-gallery/database/repo/images"
	likesRepo "github.com/anoixa/photo-gallery/database/repo/likes"
	tagsRepo "github.com/anoixa/photo-gallery/database/repo/tags"
	"github.com/anoixa/photo-gallery/internal/apperrors"
	tagsSvc "github.com/anoixa/photo-gallery/internal/tags"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:content_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
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

// fakeStore 内存对象存储
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	saveErr   error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) SaveWithContext(_ context.Context, identifier string, file io.Reader, _ int64, _ string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[identifier] = data
	return nil
}

func (s *fakeStore) DeleteWithContext(_ context.Context, identifier string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, identifier)
	return nil
}

func (s *fakeStore) PresignedURL(_ context.Context, identifier string, _ time.Duration) (string, error) {
	return "https://cdn.example.com/" + identifier, nil
}

func (s *fakeStore) Exists(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[identifier]
	return ok, nil
}

func (s *fakeStore) Health(_ context.Context) error {
	return nil
}

func (s *fakeStore) Name() string {
	return "fake"
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func testConfig() *config.Config {
	return &config.Config{
		UploadMaxSizeMB:      5,
		PresignExpiryMinutes: 30,
	}
}

func setupService(t *testing.T) (*Service, *gorm.DB, *fakeStore) {
	db := setupTestDB(t)
	provider := &testProvider{db: db}
	store := newFakeStore()

	service := NewService(
		imagesRepo.NewRepository(provider),
		likesRepo.NewRepository(provider),
		tagsSvc.NewNormalizer(tagsRepo.NewRepository(provider)),
		store,
		testConfig(),
	)
	return service, db, store
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

// pngPayload 带 PNG 魔数的测试字节，能通过内容嗅探
func pngPayload() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), []byte("test image payload")...)
}

func uploadInput(ownerID uint, title string, tags ...string) *UploadInput {
	data := pngPayload()
	return &UploadInput{
		File:         bytes.NewReader(data),
		Size:         int64(len(data)),
		ContentType:  "image/png",
		OriginalName: "photo.png",
		Title:        title,
		Tags:         tags,
		OwnerID:      ownerID,
	}
}

func TestService_Upload(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	view, err := service.Upload(ctx, uploadInput(user.ID, "Sunset", "Nature", "nature", " SUNSET "))
	assert.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Sunset", view.Title)
	assert.Equal(t, "alice", view.UploaderUsername)
	assert.Equal(t, []string{"nature", "sunset"}, view.Tags)
	assert.Contains(t, view.ImageURL, "https://cdn.example.com/")
	assert.Equal(t, 1, store.count())

	exists, err := store.Exists(ctx, view.BlobKey)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestService_Upload_Validation(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	tests := []struct {
		name   string
		mutate func(*UploadInput)
	}{
		{"缺少标题", func(in *UploadInput) { in.Title = "  " }},
		{"不支持的类型", func(in *UploadInput) { in.ContentType = "application/pdf" }},
		{"超过大小上限", func(in *UploadInput) { in.Size = 6 * 1024 * 1024 }},
		{"缺少文件", func(in *UploadInput) { in.File = nil }},
		{"标题过长", func(in *UploadInput) { in.Title = string(make([]byte, 256)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := uploadInput(user.ID, "Valid Title")
			tt.mutate(input)

			_, err := service.Upload(ctx, input)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestService_Upload_RejectsSpoofedContentType(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	// 声明 image/png 但实际内容不是图片
	input := uploadInput(user.ID, "Disguised")
	data := []byte("%PDF-1.7 definitely not pixels")
	input.File = bytes.NewReader(data)
	input.Size = int64(len(data))

	_, err := service.Upload(ctx, input)
	assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
	assert.Equal(t, 0, store.count())

	var count int64
	assert.NoError(t, db.Model(&models.Image{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestService_Upload_TitleLengthCountsRunes(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	// 100 个多字节字符按字符数计，不超过 255 的上限
	title := strings.Repeat("山", 100)
	view, err := service.Upload(ctx, uploadInput(user.ID, title))
	assert.NoError(t, err)
	assert.Equal(t, title, view.Title)

	_, err = service.Upload(ctx, uploadInput(user.ID, strings.Repeat("山", 256)))
	assert.True(t, apperrors.IsValidation(err))
}

func TestService_Upload_StorageFailureWritesNoMetadata(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	store.saveErr = errors.New("bucket unreachable")

	_, err := service.Upload(ctx, uploadInput(user.ID, "Doomed"))
	assert.True(t, apperrors.IsStorage(err))

	var count int64
	assert.NoError(t, db.Model(&models.Image{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestService_GetByID_NotFound(t *testing.T) {
	service, _, _ := setupService(t)

	_, err := service.GetByID(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestService_List_LikeStatusForViewer(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	view, err := service.Upload(ctx, uploadInput(alice.ID, "Shared"))
	assert.NoError(t, err)

	assert.NoError(t, db.Create(&models.Like{ImageID: view.ID, UserID: bob.ID, LikedAt: time.Now().UTC()}).Error)

	// bob 看到自己的点赞状态
	page, err := service.List(ctx, 1, 20, bob.ID)
	assert.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].LikedByCurrentUser)
	assert.Equal(t, int64(1), page.Items[0].LikeCount)

	// 匿名查看者只看到计数
	page, err = service.List(ctx, 1, 20, 0)
	assert.NoError(t, err)
	assert.False(t, page.Items[0].LikedByCurrentUser)
	assert.Equal(t, int64(1), page.Items[0].LikeCount)
}

func TestService_SearchByTags_NormalizesQuery(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	_, err := service.Upload(ctx, uploadInput(user.ID, "Tagged", "nature"))
	assert.NoError(t, err)

	// 查询端的变体写法同样规范化后匹配
	page, err := service.SearchByTags(ctx, []string{" NATURE "}, imagesRepo.MatchAny, 1, 20, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)
}

func TestService_Delete_Authorization(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	view, err := service.Upload(ctx, uploadInput(alice.ID, "Mine"))
	assert.NoError(t, err)

	// 非所有者且非管理员被拒绝
	err = service.Delete(ctx, view.ID, bob.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// 管理员可以删除任何人的图片
	assert.NoError(t, service.Delete(ctx, view.ID, bob.ID, true))
	assert.Equal(t, 0, store.count())

	_, err = service.GetByID(ctx, view.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestService_Delete_Owner(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	view, err := service.Upload(ctx, uploadInput(alice.ID, "Mine"))
	assert.NoError(t, err)

	assert.NoError(t, service.Delete(ctx, view.ID, alice.ID, false))
}

func TestService_Delete_NotFound(t *testing.T) {
	service, _, _ := setupService(t)

	err := service.Delete(context.Background(), "missing", 1, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestService_Delete_BlobFailureStillDeletesMetadata(t *testing.T) {
	service, db, store := setupService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	view, err := service.Upload(ctx, uploadInput(alice.ID, "Sticky"))
	assert.NoError(t, err)

	store.deleteErr = errors.New("storage down")

	assert.NoError(t, service.Delete(ctx, view.ID, alice.ID, false))

	var count int64
	assert.NoError(t, db.Model(&models.Image{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
