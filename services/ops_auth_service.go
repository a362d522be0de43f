package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg"
)

// OpsAuthService, operator API kimlik doğrulaması.
//
// Bot'un tek bir operatör hesabı vardır: şifre, env'den verilen bcrypt hash
// ile karşılaştırılır. Kullanıcı tablosu yoktur — roster DB'si yalnızca
// moderasyon state'i tutar.
type OpsAuthService interface {
	// Login, operator şifresini doğrular ve access token üretir.
	Login(password string) (*models.OperatorToken, error)

	// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
	ValidateAccessToken(tokenString string) (*models.OperatorClaims, error)
}

type opsAuthService struct {
	passwordHash []byte // bcrypt hash; boşsa login devre dışı
	jwtSecret    []byte
	tokenExp     time.Duration
}

// NewOpsAuthService, constructor.
// passwordHash boş string ise Login her zaman ErrUnauthorized döner —
// operator API read-only endpoint'leri token'sız zaten erişilemez olduğu
// için API fiilen kapalı olur.
func NewOpsAuthService(passwordHash, jwtSecret string, tokenExp time.Duration) OpsAuthService {
	return &opsAuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		tokenExp:     tokenExp,
	}
}

func (s *opsAuthService) Login(password string) (*models.OperatorToken, error) {
	if len(s.passwordHash) == 0 {
		return nil, fmt.Errorf("%w: operator login is not configured", pkg.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", pkg.ErrUnauthorized)
	}

	now := time.Now()
	claims := &models.OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "bekci",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &models.OperatorToken{
		AccessToken: signed,
		ExpiresIn:   int64(s.tokenExp.Seconds()),
	}, nil
}

func (s *opsAuthService) ValidateAccessToken(tokenString string) (*models.OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.OperatorClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.OperatorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}
