package gateway

// Package gateway owns the lifecycle of live socket connections: accept,
// authenticate, enforce the single-active-session rule, register the pair
// of presence entries, and expose user<->socket resolution to every other
// real-time feature.
//
// Per connection the flow is Connecting -> Authenticating -> Active ->
// Closed. Authentication fails closed: a socket that cannot be bound to a
// known identity is disconnected without any handshake payload, and the
// client is expected to re-authenticate over HTTP first.
//
// The presence registry in Redis is the source of truth shared by all
// replicas; the maps held here only track sockets plugged into this
// process, so that eviction and delivery commands arriving from other
// replicas (via the gateway.events exchange) can be applied locally.

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pong-social/internal/notification"
	"github.com/iliyamo/pong-social/internal/presence"
	"github.com/iliyamo/pong-social/internal/queue"
	"github.com/iliyamo/pong-social/internal/session"
)

// storeTimeout bounds every presence/session call made on a connection's
// behalf. A store that cannot answer in time fails the connect closed; a
// timeout during disconnect cleanup is logged and abandoned (the entry
// self-corrects on the next connect's eviction pass).
const storeTimeout = 5 * time.Second

// PublishFunc publishes a gateway event to the other replicas. Failures
// are the caller's to log; eviction and remote delivery are best-effort.
type PublishFunc func(ctx context.Context, ev queue.GatewayEvent) error

// Gateway is the connection coordinator.
type Gateway struct {
	replicaID string
	sessions  *session.Store
	presence  *presence.Store
	publish   PublishFunc
	feed      *notification.Feed
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client            // socket id -> client (this replica only)
	users   map[uint64]map[string]*Client // routing group: user id -> local members
}

// New builds a Gateway. The notification feed is attached afterwards via
// AttachFeed because it resolves sockets through the gateway itself.
func New(replicaID string, sessions *session.Store, pstore *presence.Store, publish PublishFunc) *Gateway {
	return &Gateway{
		replicaID: replicaID,
		sessions:  sessions,
		presence:  pstore,
		publish:   publish,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers enforce cookie rules; origin checking is handled by
			// the deployment's reverse proxy configuration.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
		users:   make(map[uint64]map[string]*Client),
	}
}

// AttachFeed wires the notification feed used to answer noti-unread.
func (g *Gateway) AttachFeed(feed *notification.Feed) { g.feed = feed }

// HandleWS upgrades the HTTP request and runs the connection until it
// closes. The credential is the session cookie when present, otherwise a
// bearer token carrying the session token directly (cross-process
// handshakes that never touched this replica's HTTP layer).
func (g *Gateway) HandleWS(c echo.Context) error {
	token := credentialFrom(c.Request())

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // upgrader already wrote the handshake error
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	userID, err := g.sessions.Validate(ctx, token)
	cancel()
	if err != nil {
		// Fail closed, no error payload: the client infers from the
		// disconnect that it must re-authenticate.
		_ = conn.Close()
		return nil
	}

	socketID := uuid.NewString()
	client := newClient(socketID, userID, conn)

	// The client goes into the local registry before its presence entry
	// exists: once Register returns this socket id as a racing connect's
	// prev, the eviction must be able to find and close it in-process. The
	// published eviction path skips this replica's own events, so a socket
	// that is bound but not yet registered locally would survive as a
	// zombie.
	g.addLocal(client)
	if err := g.bindSocket(userID, socketID, token); err != nil {
		c.Logger().Warnf("gateway: presence register failed user=%d: %v", userID, err)
		g.removeLocal(client)
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	client.readPump(func(ev envelope) { g.dispatch(client, ev) })

	// Connection is gone; tear down local and shared state.
	g.removeLocal(client)
	g.cleanupPresence(socketID)
	return nil
}

// credentialFrom extracts the session token: cookie first, bearer second.
func credentialFrom(r *http.Request) string {
	if ck, err := r.Cookie(session.CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// bindSocket registers the presence pair for a freshly authenticated
// connection and kicks off eviction of the superseded socket, if any. A
// registry that cannot be written means the connection must not proceed.
func (g *Gateway) bindSocket(userID uint64, socketID, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	prev, err := g.presence.Register(ctx, userID, socketID, token)
	if err != nil {
		return err
	}
	if prev != "" && prev != socketID {
		g.evict(prev)
	}
	return nil
}

// dispatch routes one inbound frame.
func (g *Gateway) dispatch(client *Client, ev envelope) {
	switch ev.Event {
	case "noti-unread":
		if g.feed == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		items, err := g.feed.Unread(ctx, client.ID)
		if err != nil {
			log.Printf("gateway: unread feed failed socket=%s: %v", client.ID, err)
			return
		}
		data, err := json.Marshal(items)
		if err != nil {
			log.Printf("gateway: marshal feed failed socket=%s: %v", client.ID, err)
			return
		}
		client.enqueue(envelope{Event: "noti-unread", Data: data})
	default:
		// Unknown events are ignored; game/channel features register
		// their own handlers over the emit primitives below.
	}
}

// evict force-disconnects a superseded socket. Fire-and-forget: it never
// blocks or fails the new connection. If the socket is not plugged into
// this replica, the eviction rides the fan-out exchange.
func (g *Gateway) evict(socketID string) {
	if c := g.localClient(socketID); c != nil {
		c.close()
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		ev := queue.GatewayEvent{Origin: g.replicaID, Type: queue.EventEvicted, SocketID: socketID}
		if err := g.publish(ctx, ev); err != nil {
			log.Printf("gateway: evict publish failed socket=%s: %v", socketID, err)
		}
	}()
}

// cleanupPresence removes the presence pair after a disconnect. A missing
// reverse entry means an eviction already cleared it, a normal race and not
// an error. Store failures are logged and swallowed: the socket is already
// gone, and the next connect's eviction pass self-corrects the registry.
func (g *Gateway) cleanupPresence(socketID string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := g.presence.Remove(ctx, socketID); err != nil && !errors.Is(err, presence.ErrNotFound) {
		log.Printf("gateway: presence cleanup failed socket=%s: %v", socketID, err)
	}
}

// ResolveSocketForUser returns the socket id currently bound to userID.
// presence.ErrNotFound means the user is offline.
func (g *Gateway) ResolveSocketForUser(ctx context.Context, userID uint64) (string, error) {
	entry, err := g.presence.GetByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return entry.SocketID, nil
}

// ResolveUserForSocket returns the user owning socketID.
func (g *Gateway) ResolveUserForSocket(ctx context.Context, socketID string) (uint64, error) {
	return g.presence.GetUserBySocket(ctx, socketID)
}

// EmitToUser pushes an event to every member of the user's routing group,
// on this replica directly and on the others via the exchange.
func (g *Gateway) EmitToUser(ctx context.Context, userID uint64, event string, payload json.RawMessage) {
	g.DeliverUser(userID, event, payload)
	ev := queue.GatewayEvent{Origin: g.replicaID, Type: queue.EventEmit, UserID: userID, Event: event, Payload: payload}
	if err := g.publish(ctx, ev); err != nil {
		log.Printf("gateway: emit publish failed user=%d event=%s: %v", userID, event, err)
	}
}

// EmitToSocket pushes an event to one resolved socket, wherever it lives.
func (g *Gateway) EmitToSocket(ctx context.Context, socketID, event string, payload json.RawMessage) {
	if c := g.localClient(socketID); c != nil {
		c.enqueue(envelope{Event: event, Data: payload})
		return
	}
	ev := queue.GatewayEvent{Origin: g.replicaID, Type: queue.EventEmit, SocketID: socketID, Event: event, Payload: payload}
	if err := g.publish(ctx, ev); err != nil {
		log.Printf("gateway: emit publish failed socket=%s event=%s: %v", socketID, event, err)
	}
}

// CloseSocket closes socketID if this replica holds it. Part of the
// queue.LocalDelivery contract.
func (g *Gateway) CloseSocket(socketID string) {
	if c := g.localClient(socketID); c != nil {
		c.close()
	}
}

// DeliverSocket hands a frame to socketID if held locally.
func (g *Gateway) DeliverSocket(socketID, event string, payload json.RawMessage) {
	if c := g.localClient(socketID); c != nil {
		c.enqueue(envelope{Event: event, Data: payload})
	}
}

// DeliverUser hands a frame to the local members of userID's group.
func (g *Gateway) DeliverUser(userID uint64, event string, payload json.RawMessage) {
	g.mu.RLock()
	members := make([]*Client, 0, len(g.users[userID]))
	for _, c := range g.users[userID] {
		members = append(members, c)
	}
	g.mu.RUnlock()
	for _, c := range members {
		c.enqueue(envelope{Event: event, Data: payload})
	}
}

func (g *Gateway) localClient(socketID string) *Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clients[socketID]
}

func (g *Gateway) addLocal(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[c.ID] = c
	group := g.users[c.UserID]
	if group == nil {
		group = make(map[string]*Client)
		g.users[c.UserID] = group
	}
	group[c.ID] = c
}

func (g *Gateway) removeLocal(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, c.ID)
	if group, ok := g.users[c.UserID]; ok {
		delete(group, c.ID)
		if len(group) == 0 {
			delete(g.users, c.UserID)
		}
	}
}
