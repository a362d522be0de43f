// Package bus, mute/unmute geçişlerini ilgilenen alt sistemlere duyurur.
//
// MuteBus, basit bir multicast publish/subscribe yapısıdır: handler'lar
// kayıt sırasına göre, senkron olarak çağrılır. Publish her zaman ilgili
// persistence yazması BAŞARILI olduktan sonra çağrılır — subscriber'lar
// event'i gördüklerinde kalıcı state zaten günceldir.
//
// Subscriber izolasyonu: bir handler'ın panic'i recover edilir ve loglanır;
// diğer handler'lar çağrılmaya devam eder ve komutu başlatan akış bozulmaz.
package bus

import (
	"log"
	"sync"

	"github.com/akinalp/bekci/models"
)

// MuteHandler, bir mute veya unmute geçişini işleyen fonksiyon.
type MuteHandler func(event models.MuteEvent)

// MuteBus, mute/unmute event'lerinin publish/subscribe noktası.
//
// Subscribe işlemleri tipik olarak startup'ta (wire-up) yapılır ama mutex
// ile korunur — runtime'da subscribe etmek de güvenlidir.
type MuteBus struct {
	mu        sync.RWMutex
	onMuted   []MuteHandler
	onUnmuted []MuteHandler
}

// NewMuteBus, boş bir bus oluşturur.
func NewMuteBus() *MuteBus {
	return &MuteBus{}
}

// OnMuted, mute event'leri için handler kaydeder.
func (b *MuteBus) OnMuted(handler MuteHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMuted = append(b.onMuted, handler)
}

// OnUnmuted, unmute event'leri için handler kaydeder.
func (b *MuteBus) OnUnmuted(handler MuteHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onUnmuted = append(b.onUnmuted, handler)
}

// PublishMuted, mute event'ini tüm handler'lara kayıt sırasıyla iletir.
func (b *MuteBus) PublishMuted(event models.MuteEvent) {
	b.mu.RLock()
	handlers := b.onMuted
	b.mu.RUnlock()

	deliver(handlers, event)
}

// PublishUnmuted, unmute event'ini tüm handler'lara kayıt sırasıyla iletir.
func (b *MuteBus) PublishUnmuted(event models.MuteEvent) {
	b.mu.RLock()
	handlers := b.onUnmuted
	b.mu.RUnlock()

	deliver(handlers, event)
}

// deliver, handler'ları sırayla çağırır; panic'leri izole eder.
func deliver(handlers []MuteHandler, event models.MuteEvent) {
	for _, handler := range handlers {
		func() {
			defer func() {
				if p := recover(); p != nil {
					log.Printf("[bus] mute event handler panicked: %v", p)
				}
			}()
			handler(event)
		}()
	}
}
