package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/config"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/utils"
)

func adminRole() models.UserRole {
	return models.RoleAdmin
}

// CasdoorAuthMiddleware authenticates requests against Casdoor-issued JWTs
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	logger   utils.Logger
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorAuthMiddleware{
		client:   client,
		userRepo: userRepo,
		logger:   logger,
	}
}

// AuthMiddleware validates the bearer token and stores the caller's
// identity in the gin context under user_id, user, user_role and
// user_email.
func (m *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or invalid authorization header",
			})
			c.Abort()
			return
		}

		claims, err := m.client.ParseJwtToken(token)
		if err != nil {
			m.logger.Warn("Token validation failed", "error", err)
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		user := m.resolveUser(c, claims)
		if user == nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User account not found",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

// resolveUser prefers the repository record over claims so role changes
// in Casdoor take effect without waiting for a new token.
func (m *CasdoorAuthMiddleware) resolveUser(c *gin.Context, claims *casdoorsdk.Claims) *models.User {
	if m.userRepo != nil {
		user, err := m.userRepo.GetByID(c.Request.Context(), claims.User.Id)
		if err == nil {
			return user
		}
		if !repositories.IsNotFoundError(err) {
			m.logger.Warn("User lookup failed, falling back to token claims",
				"user_id", claims.User.Id, "error", err)
		}
	}
	return userFromClaims(claims)
}

func userFromClaims(claims *casdoorsdk.Claims) *models.User {
	if claims.User.Id == "" {
		return nil
	}
	role := models.RoleUser
	if claims.User.IsAdmin {
		role = models.RoleAdmin
	}
	return &models.User{
		ID:       claims.User.Id,
		Username: claims.User.Name,
		Email:    claims.User.Email,
		Role:     role,
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireRoleMiddleware restricts a route to the given roles. Admins
// pass every role check.
func (m *CasdoorAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			c.Abort()
			return
		}

		current, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Insufficient permissions",
			})
			c.Abort()
			return
		}

		if current == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
		c.Abort()
	}
}

// GetUserIDFromContext returns the authenticated user's id, if any
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetUserRoleFromContext returns the authenticated user's role, if any
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, bool) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.UserRole)
	return role, ok
}

// GetUserFromContext returns the full authenticated user, if any
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
