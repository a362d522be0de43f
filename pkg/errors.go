// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir (string taşıyan struct'lar).
// errors.New() ile sabit error değişkenleri tanımlarız.
// Böylece error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrBadRequest) { ... }
//
// Bu, typo'ya açık string karşılaştırmasından çok daha güvenlidir.
package pkg

import "errors"

// Domain-level error'lar.
//
// ErrBadRequest: validasyon hataları — hiçbir state değişmeden reddedilir.
// ErrExternal: platform API hatası (rol oluşturma, channel overwrite, voice flag).
// Persistence hataları ayrı bir sentinel taşımaz — repo katmanı %w ile wrap eder,
// caller için önemli olan "yazma başarısız" semantiğidir.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrExternal     = errors.New("external service error")
	ErrInternal     = errors.New("internal error")
)
