// Package notify relays store-change signals to open management panels.
package notify

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// WriteTimeout bounds a write to one SSE client so a stale connection
// cannot hold up a broadcast.
const WriteTimeout = 2 * time.Second

// Client is one connected event stream
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
}

func (c *Client) send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.Writer.Write(message); err != nil {
		return err
	}
	c.Flusher.Flush()
	return nil
}

func (c *Client) close() {
	c.once.Do(func() { close(c.Done) })
}

// Broadcaster fans messages out to every connected SSE client
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*Client
	nextID  int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[string]*Client)}
}

func (b *Broadcaster) AddClient(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	client := &Client{
		ID:      fmt.Sprintf("panel-%d", b.nextID),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}
	b.clients[client.ID] = client
	count := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("Panel connected")
	return client, nil
}

func (b *Broadcaster) RemoveClient(client *Client) {
	b.mu.Lock()
	delete(b.clients, client.ID)
	count := len(b.clients)
	b.mu.Unlock()

	client.close()
	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("Panel disconnected")
}

// Broadcast sends data as one SSE message to all clients. Clients whose
// write fails or times out are dropped.
func (b *Broadcaster) Broadcast(data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event")
		return
	}
	message := []byte(fmt.Sprintf("data: %s\n\n", payload))

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	dead := make(chan *Client, len(clients))
	var wg sync.WaitGroup
	for _, c := range clients {
		select {
		case <-c.Done:
			continue
		default:
		}
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if !b.write(c, message) {
				dead <- c
			}
		}(c)
	}
	wg.Wait()
	close(dead)

	for c := range dead {
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) write(c *Client, message []byte) bool {
	result := make(chan error, 1)
	go func() {
		result <- c.send(message)
	}()

	select {
	case err := <-result:
		if err != nil {
			log.Debug().Str("clientId", c.ID).Err(err).Msg("Event write failed, dropping panel")
			return false
		}
		return true
	case <-time.After(WriteTimeout):
		log.Warn().Str("clientId", c.ID).Dur("timeout", WriteTimeout).Msg("Event write timed out, dropping panel")
		return false
	case <-c.Done:
		return true
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// HandleSSE holds an event stream open until the request is cancelled.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client, err := b.AddClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.RemoveClient(client)

	hello := fmt.Sprintf("data: {\"type\":\"connected\",\"clientId\":%q}\n\n", client.ID)
	if err := client.send([]byte(hello)); err != nil {
		return
	}

	select {
	case <-r.Context().Done():
	case <-client.Done:
	}
}
