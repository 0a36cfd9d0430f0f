package middleware

import (
	"FuelDoor/Config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// OperatorClaims identifies the pump operator making verification decisions.
// Issuing the token is the login service's job; this middleware only parses
// and checks it.
type OperatorClaims struct {
	PumpID uint `json:"pump_id"`
	jwt.RegisteredClaims
}

var secretKey = []byte("secret")

// Configure sets the signing secret used to verify operator tokens.
func Configure(cfg Config.AppConfig) {
	secretKey = []byte(cfg.JWTSecret)
}

func Verify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get JWT from cookies
		cookie := c.Cookies("jwt")
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		token, err := jwt.ParseWithClaims(cookie, &OperatorClaims{}, func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*OperatorClaims)
		if !ok || claims.Issuer == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}

		c.Locals("operator", claims)
		return c.Next()
	}
}

// OperatorFromCtx returns the claims stored by Verify, or nil outside a
// verified route.
func OperatorFromCtx(c *fiber.Ctx) *OperatorClaims {
	claims, _ := c.Locals("operator").(*OperatorClaims)
	return claims
}
