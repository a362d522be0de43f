package models

import "github.com/golang-jwt/jwt/v5"

// OperatorLoginRequest, operator API login isteği.
// Tek operatör hesabı vardır; kullanıcı adı yok, sadece şifre doğrulanır.
type OperatorLoginRequest struct {
	Password string `json:"password"`
}

// OperatorClaims, operator access token'ının JWT claims'i.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// OperatorToken, başarılı login yanıtı.
type OperatorToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // saniye cinsinden
}
