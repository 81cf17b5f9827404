package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/models"
)

func testContext(t *testing.T, url string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)
	return c
}

func TestParseTestFiltersFromQuery(t *testing.T) {
	c := testContext(t, "/api/v1/tests?topic=algebra&status=published&search=mid&limit=5&offset=10&sort_by=title&sort_order=asc")

	filters := parseTestFilters(c)

	if filters.Topic == nil || *filters.Topic != "algebra" {
		t.Fatalf("Topic = %v, want algebra", filters.Topic)
	}
	if filters.Status == nil || *filters.Status != models.TestPublished {
		t.Fatalf("Status = %v, want published", filters.Status)
	}
	if filters.Search != "mid" {
		t.Fatalf("Search = %q, want %q", filters.Search, "mid")
	}
	if filters.Limit != 5 || filters.Offset != 10 {
		t.Fatalf("pagination = (%d, %d), want (5, 10)", filters.Limit, filters.Offset)
	}
	if filters.SortBy != "title" || filters.SortOrder != "asc" {
		t.Fatalf("sort = (%q, %q), want (title, asc)", filters.SortBy, filters.SortOrder)
	}
}

func TestParseTestFiltersDefaults(t *testing.T) {
	c := testContext(t, "/api/v1/tests")

	filters := parseTestFilters(c)

	if filters.Topic != nil {
		t.Fatalf("Topic = %v, want nil when absent", *filters.Topic)
	}
	if filters.Status != nil {
		t.Fatalf("Status = %v, want nil when absent", *filters.Status)
	}
	if filters.Limit != 20 || filters.Offset != 0 {
		t.Fatalf("pagination = (%d, %d), want default (20, 0)", filters.Limit, filters.Offset)
	}
}

func TestParsePaginationRejectsOutOfRange(t *testing.T) {
	c := testContext(t, "/api/v1/tests?limit=500&offset=-3")

	limit, offset := parsePagination(c)
	if limit != 20 {
		t.Fatalf("limit = %d, want default 20 for out-of-range value", limit)
	}
	if offset != 0 {
		t.Fatalf("offset = %d, want 0 for negative value", offset)
	}
}
