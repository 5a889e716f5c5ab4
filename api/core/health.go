package core

import (
	"context"

	"github.com/anoixa/photo-gallery/cache"
	"github.com/anoixa/photo-gallery/database"
	"github.com/anoixa/photo-gallery/storage"
)

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}

	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	return "ok"
}

func checkStorageHealth(provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}

	if err := provider.Health(context.Background()); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
