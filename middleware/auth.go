// Package middleware, operator API request pipeline'ına eklenen ara katmanları barındırır.
//
// Go'da middleware bir fonksiyondur:
//
//	func(next http.Handler) http.Handler
//
// "next" parametresi zincirdeki bir sonraki handler'dır.
// Middleware kendi işini yapar (token doğrula), sonra next'i çağırır.
// Hata varsa next çağrılmaz → request burada durur.
package middleware

import (
	"net/http"
	"strings"

	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/services"
)

// AuthMiddleware, operator JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	authService services.OpsAuthService
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.OpsAuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Require, operator token'ı zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401 Unauthorized.
//
// HTTP header formatı: Authorization: Bearer <token>
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hata mesajları operatörün tarayıcı diline göre döner.
		loc := i18n.NewLocalizer(i18n.DetectLanguage(r.Header.Get("Accept-Language")))

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("auth.tokenRequired"))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("auth.tokenRequired"))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		if _, err := m.authService.ValidateAccessToken(tokenString); err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("auth.tokenInvalid"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
