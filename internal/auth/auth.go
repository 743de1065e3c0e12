package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const AccessTokenDuration = 24 * time.Hour

type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenRequest exchanges a device API key for an access token. Identity
// resolution lives upstream; the key identifies the installation and the
// user id is taken on trust from the provisioning layer.
type TokenRequest struct {
	DeviceKey string `json:"device_key" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

// TokenHandler handles POST /auth/token.
func TokenHandler(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.DeviceKey == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "device_key and user_id are required"})
	}

	expected := os.Getenv("DEVICE_API_KEY")
	if expected == "" || subtle.ConstantTimeCompare([]byte(req.DeviceKey), []byte(expected)) != 1 {
		log.Warn().Str("user_id", req.UserID).Msg("token request with bad device key")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid device key"})
	}

	token, err := MintToken(req.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign access token")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to issue token"})
	}

	return c.JSON(http.StatusOK, map[string]string{"access_token": token})
}

// MintToken signs a short-lived access token for the given user.
func MintToken(userID string) (string, error) {
	claims := &JwtCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("SESSION_SECRET")))
}

// JwtAuthMiddleware validates Bearer tokens and sets user_id on the
// context. Every protected operation trusts that identity unconditionally.
func JwtAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		sessionSecret := os.Getenv("SESSION_SECRET")
		token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(sessionSecret), nil
		})
		if err != nil || !token.Valid {
			log.Warn().Err(err).Msg("Token validation error")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		claims, ok := token.Claims.(*JwtCustomClaims)
		if !ok || claims.UserID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token claims"})
		}

		c.Set("user_id", claims.UserID)
		return next(c)
	}
}
