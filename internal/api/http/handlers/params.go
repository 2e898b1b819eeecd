package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/auth"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// pathID reads a UUID route parameter. A malformed value cannot name an
// existing row, so it reports NOT_FOUND for the resource.
func pathID(c *fiber.Ctx, key, resource string) (string, error) {
	raw := c.Params(key)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{key: raw})
	}
	return raw, nil
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parsePage(c *fiber.Ctx) service.Page {
	limit := parseInt(c.Query("limit"), 0)
	if pageSize := parseInt(c.Query("page_size"), 0); pageSize > 0 {
		limit = pageSize
	}
	offset := parseInt(c.Query("offset"), 0)
	if page := parseInt(c.Query("page"), 0); page > 0 && limit > 0 {
		offset = (page - 1) * limit
	}
	return service.Page{
		SortField: c.Query("sort"),
		SortOrder: c.Query("order"),
		Limit:     limit,
		Offset:    offset,
	}
}

func parseTime(val string) (time.Time, error) {
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid time", map[string]any{"value": val})
	}
	return t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) *bool {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &parsed
}
