package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"crewbox/utils"
)

// SessionClaims are issued by the external auth service; crewbox only
// verifies them, it never issues sessions itself.
type SessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth verifies the bearer session token and exposes the acting user via
// Locals (userID, userName, userEmail, userRole).
func JWTAuth(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return utils.UnauthorizedError("Missing session token", nil)
		}

		claims := &SessionClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !parsed.Valid {
			return utils.UnauthorizedError("Invalid session token", err)
		}
		if claims.Subject == "" {
			return utils.UnauthorizedError("Session token has no subject", nil)
		}

		c.Locals("userID", claims.Subject)
		c.Locals("userName", claims.Name)
		c.Locals("userEmail", claims.Email)
		c.Locals("userRole", claims.Role)

		return c.Next()
	}
}

// bearerToken reads the token from the Authorization header, falling back
// to the access_token query parameter for SSE/WebSocket clients that cannot
// set headers.
func bearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return c.Query("access_token")
}
