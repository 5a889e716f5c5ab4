package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/anoixa/photo-gallery/config"
	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/database/models"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Apply the database schema or copy data between databases (e.g., SQLite to PostgreSQL).`,
}

// migrateSchemaCmd 应用数据库结构
var migrateSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Apply database schema to the configured database",
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		provider, err := database.NewGormProvider(config.Get())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer provider.Close()

		if err := database.AutoMigrateDB(provider.DB()); err != nil {
			log.Fatalf("Schema migration failed: %v", err)
		}
		log.Println("Schema migration completed successfully")
	},
}

// migrateRunCmd 跨数据库数据迁移
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy all data from a source database to a target database",
	Long: `Copy all data from a source database to a target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  photo-gallery migrate run --from-sqlite ./data/gallery.db --to-postgres "host=localhost user=postgres password=secret dbname=gallery port=5432"`,
	Run: func(cmd *cobra.Command, args []string) {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		if fromSQLite == "" || toPostgres == "" {
			log.Fatal("both --from-sqlite and --to-postgres are required")
		}

		if err := runMigration(fromSQLite, toPostgres, batchSize); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateSchemaCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
}

// runMigration 执行数据库迁移。按依赖顺序复制：
// 用户 → 标签 → 图片 → 图片标签关联 → 点赞。
func runMigration(fromSQLite, toPostgres string, batchSize int) error {
	sourceDB, err := openMigrationDB(sqlite.Open(fromSQLite))
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer closeMigrationDB(sourceDB)

	targetDB, err := openMigrationDB(postgres.Open(toPostgres))
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer closeMigrationDB(targetDB)

	log.Println("Migrating database schema...")
	if err := database.AutoMigrateDB(targetDB); err != nil {
		return err
	}

	if err := copyTable[models.User](sourceDB, targetDB, batchSize, "users"); err != nil {
		return err
	}
	if err := copyTable[models.Tag](sourceDB, targetDB, batchSize, "tags"); err != nil {
		return err
	}
	if err := copyImages(sourceDB, targetDB, batchSize); err != nil {
		return err
	}
	if err := copyImageTags(sourceDB, targetDB); err != nil {
		return err
	}
	if err := copyTable[models.Like](sourceDB, targetDB, batchSize, "likes"); err != nil {
		return err
	}

	log.Println("Migration completed successfully!")
	return nil
}

func openMigrationDB(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func closeMigrationDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// copyTable 按批次复制整表
func copyTable[T any](sourceDB, targetDB *gorm.DB, batchSize int, name string) error {
	log.Printf("Migrating %s...", name)

	var copied int
	var offset int
	for {
		var rows []T
		if err := sourceDB.Limit(batchSize).Offset(offset).Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(rows) == 0 {
			break
		}

		if err := targetDB.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}

		copied += len(rows)
		offset += batchSize
	}

	log.Printf("Migrated %d %s", copied, name)
	return nil
}

// copyImages 复制图片，剥离关联避免重复写标签
func copyImages(sourceDB, targetDB *gorm.DB, batchSize int) error {
	log.Println("Migrating images...")

	var copied int
	var offset int
	for {
		var images []models.Image
		if err := sourceDB.Limit(batchSize).Offset(offset).Find(&images).Error; err != nil {
			return fmt.Errorf("failed to read images: %w", err)
		}
		if len(images) == 0 {
			break
		}

		for i := range images {
			images[i].Tags = nil
		}

		if err := targetDB.Create(&images).Error; err != nil {
			return fmt.Errorf("failed to write images: %w", err)
		}

		copied += len(images)
		offset += batchSize
	}

	log.Printf("Migrated %d images", copied)
	return nil
}

// copyImageTags 复制图片-标签关联表
func copyImageTags(sourceDB, targetDB *gorm.DB) error {
	log.Println("Migrating image_tags relationships...")

	type imageTag struct {
		ImageID string
		TagID   uint
	}

	var relations []imageTag
	if err := sourceDB.Raw("SELECT image_id, tag_id FROM image_tags").Scan(&relations).Error; err != nil {
		return fmt.Errorf("failed to read image_tags: %w", err)
	}

	for _, rel := range relations {
		if err := targetDB.Exec(
			"INSERT INTO image_tags (image_id, tag_id) VALUES (?, ?)",
			rel.ImageID, rel.TagID,
		).Error; err != nil {
			return fmt.Errorf("failed to write image_tags relation (image=%s, tag=%d): %w", rel.ImageID, rel.TagID, err)
		}
	}

	log.Printf("Migrated %d image_tags relations", len(relations))
	return nil
}
