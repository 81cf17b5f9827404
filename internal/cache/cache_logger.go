package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateTestCache invalidates all test-related caches
func InvalidateTestCache(ctx context.Context, cm *CacheManager, testID uint, creatorID string) {
	SafeDelete(ctx, cm.Test,
		fmt.Sprintf("id:%d", testID),
		fmt.Sprintf("details:%d", testID))

	SafeInvalidatePattern(ctx, cm.Test, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Test, "list:*")
	SafeInvalidatePattern(ctx, cm.Dashboard, fmt.Sprintf("test:%d:*", testID))
}

// InvalidateUserDashboards invalidates cached dashboard views for a
// user after a new result is recorded.
func InvalidateUserDashboards(ctx context.Context, cm *CacheManager, userID string, testID uint) {
	SafeInvalidatePattern(ctx, cm.Dashboard, fmt.Sprintf("user:%s:*", userID))
	SafeInvalidatePattern(ctx, cm.Dashboard, fmt.Sprintf("test:%d:*", testID))
	SafeInvalidatePattern(ctx, cm.Result, fmt.Sprintf("user:%s:*", userID))
	SafeInvalidatePattern(ctx, cm.Result, fmt.Sprintf("test:%d:*", testID))
}
