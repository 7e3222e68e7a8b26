package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles reconocidos por el middleware.
const (
	RoleAdmin        = "admin"
	RoleStoreManager = "store_manager"
	RoleStaff        = "staff"
)

// Claims incluye los claims estándar JWT más el tenant (marca), la tienda y el rol.
// StoreID vacío: usuario de casa matriz.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	BrandID string `json:"brand_id"`
	StoreID string `json:"store_id,omitempty"`
	Role    string `json:"role"`
}

// Identity datos del usuario autenticado.
type Identity struct {
	UserID  string
	BrandID string
	StoreID string
	Role    string
}

// Generate genera un token JWT firmado para la identidad dada.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  id.UserID,
		BrandID: id.BrandID,
		StoreID: id.StoreID,
		Role:    id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o le falta la marca.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	if claims.UserID == "" || claims.BrandID == "" {
		return Identity{}, fmt.Errorf("claims incompletos")
	}
	return Identity{UserID: claims.UserID, BrandID: claims.BrandID, StoreID: claims.StoreID, Role: claims.Role}, nil
}
