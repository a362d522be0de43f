// platform/socket.go — Platform gateway event stream.
//
// Platform, member_joined ve message_create gibi event'leri bir WebSocket
// üzerinden yayınlar. Socket, bağlantıyı yönetir ve decode edilen event'leri
// callback'lere iletir. Callback'ler main.go'daki wire-up sırasında, Run
// çağrılmadan ÖNCE set edilmelidir.
//
// gorilla/websocket aynı anda sadece bir okuma ve bir yazma destekler —
// okuma Run loop'unda, heartbeat yazması ayrı goroutine'de yapılır ve
// yazmalar mutex ile korunur.
package platform

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// heartbeatInterval: Platform'a "hâlâ bağlıyım" sinyali gönderme sıklığı.
	heartbeatInterval = 30 * time.Second

	// readWait: Platform'dan mesaj gelmesi beklenen maksimum süre.
	// Heartbeat ack'leri de mesajdır — bu süre dolarsa bağlantı kopmuş sayılır.
	readWait = 90 * time.Second

	// reconnectBase / reconnectMax: Yeniden bağlanma backoff sınırları.
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// gatewayEvent, platform'dan gelen ham event.
type gatewayEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// MemberJoinedData, member_joined event payload'ı.
type MemberJoinedData struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
}

// MessageCreateData, message_create event payload'ı.
type MessageCreateData struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
}

// Socket, platform gateway WebSocket bağlantısını yönetir.
type Socket struct {
	gatewayURL string
	botToken   string

	onMemberJoined func(MemberJoinedData)
	onMessage      func(MessageCreateData)

	mu   sync.Mutex // conn yazmalarını ve conn değişimini korur
	conn *websocket.Conn
}

// NewSocket, gateway socket'i oluşturur (bağlanmaz — Run bağlanır).
func NewSocket(gatewayURL, botToken string) *Socket {
	return &Socket{
		gatewayURL: gatewayURL,
		botToken:   botToken,
	}
}

// OnMemberJoined, member_joined event callback'ini set eder.
func (s *Socket) OnMemberJoined(fn func(MemberJoinedData)) {
	s.onMemberJoined = fn
}

// OnMessage, message_create event callback'ini set eder.
func (s *Socket) OnMessage(fn func(MessageCreateData)) {
	s.onMessage = fn
}

// Run, gateway'e bağlanır ve event'leri okur. Bağlantı koptuğunda
// exponential backoff ile yeniden bağlanır. ctx iptal edilene kadar bloklar.
//
// Her event callback'i ayrı goroutine'de çağrılır — yavaş bir handler
// (platform API çağrıları yapar) okuma loop'unu bloklamamalıdır.
func (s *Socket) Run(ctx context.Context) {
	backoff := reconnectBase

	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.connect(ctx); err != nil {
			log.Printf("[gateway] connect failed: %v (retrying in %s)", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, reconnectMax)
			continue
		}

		log.Println("[gateway] connected")
		backoff = reconnectBase

		s.readLoop(ctx)

		// readLoop döndü — bağlantı koptu.
		s.closeConn()
		if ctx.Err() != nil {
			return
		}
		log.Printf("[gateway] disconnected (reconnecting in %s)", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}
}

// connect, WebSocket bağlantısını kurar ve heartbeat goroutine'ini başlatır.
func (s *Socket) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, s.gatewayURL+"?token="+s.botToken, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.heartbeatLoop(ctx, conn)
	return nil
}

// readLoop, bağlantıdan event okur ve dispatch eder. Hata alınca döner.
func (s *Socket) readLoop(ctx context.Context) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			log.Printf("[gateway] failed to set read deadline: %v", err)
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] unexpected close: %v", err)
			}
			return
		}

		var event gatewayEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[gateway] invalid event: %v", err)
			continue
		}

		s.dispatch(event)
	}
}

// dispatch, decode edilen event'i ilgili callback'e iletir.
func (s *Socket) dispatch(event gatewayEvent) {
	switch event.Op {
	case "heartbeat_ack":
		// Beklenen — read deadline zaten yenilendi.

	case "member_joined":
		var data MemberJoinedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			log.Printf("[gateway] invalid member_joined payload: %v", err)
			return
		}
		if s.onMemberJoined != nil {
			go s.onMemberJoined(data)
		}

	case "message_create":
		var data MessageCreateData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			log.Printf("[gateway] invalid message_create payload: %v", err)
			return
		}
		if s.onMessage != nil {
			go s.onMessage(data)
		}
	}
}

// heartbeatLoop, bağlantı yaşadığı sürece periyodik heartbeat gönderir.
func (s *Socket) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			// Bağlantı değiştiyse bu loop eski bağlantıya aittir — sonlan.
			if s.conn != conn {
				s.mu.Unlock()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteJSON(gatewayEvent{Op: "heartbeat"})
			s.mu.Unlock()
			if err != nil {
				log.Printf("[gateway] heartbeat failed: %v", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// closeConn, mevcut bağlantıyı kapatır.
func (s *Socket) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
