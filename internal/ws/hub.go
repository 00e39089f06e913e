package ws

import "sync"

const (
	ChannelImports      = "imports"
	ChannelLoanPayments = "loan:payments"
)

func LoanPaymentsTopic(loanID string) string {
	return ChannelLoanPayments + ":" + loanID
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: map[string]map[*Client]struct{}{}}
}

func (h *Hub) Subscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[topic]; !ok {
		h.subscribers[topic] = map[*Client]struct{}{}
	}
	h.subscribers[topic][client] = struct{}{}
	client.setChannel(topic, true)
}

func (h *Hub) Unsubscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(topic, client)
}

func (h *Hub) UnsubscribeAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range client.listChannels() {
		h.removeLocked(topic, client)
	}
}

func (h *Hub) removeLocked(topic string, client *Client) {
	client.setChannel(topic, false)
	subs, ok := h.subscribers[topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscribers, topic)
	}
}

func (h *Hub) Publish(topic string, payload []byte) {
	h.mu.RLock()
	subs := make([]*Client, 0, len(h.subscribers[topic]))
	for c := range h.subscribers[topic] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		c.send(payload)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
