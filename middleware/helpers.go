package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUserID   = "user_id"
	jwtClaimPlayerID = "player_id"
)

func GetUserIDFromContext(ctx context.Context) (int, error) {
	return intClaim(ctx, jwtClaimUserID)
}

// GetPlayerIDFromContext - ID профиля игрока из токена. Учётка без профиля
// получает ошибку: такие операции требуют созданного игрока.
func GetPlayerIDFromContext(ctx context.Context) (int, error) {
	return intClaim(ctx, jwtClaimPlayerID)
}

func intClaim(ctx context.Context, name string) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context")
	}

	raw, ok := claims[name]
	if !ok {
		return 0, fmt.Errorf("missing %q claim in token", name)
	}

	// JSON-числа приходят как float64.
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid type for %q claim: %T", name, raw)
	}
	id := int(value)
	if id <= 0 || value != float64(id) {
		return 0, fmt.Errorf("invalid value in %q claim", name)
	}
	return id, nil
}
