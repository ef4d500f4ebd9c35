package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Queue decouples the scheduler (publisher) from the dispatcher
// (consumer). Bodies are opaque JSON.
type Queue interface {
	Publish(topic string, body []byte) error
	Subscribe(topic string, handler func(body []byte) error) error
	Close() error
}

// InMemoryQueue runs handlers in-process. Used in tests and in
// single-binary local runs where RabbitMQ isn't configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(body []byte) error
	wg       sync.WaitGroup

	// MaxRetries bounds redelivery of a failing handler.
	MaxRetries int
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(body []byte) error),
		MaxRetries: 3,
	}
}

// Publish delivers the body to every subscriber asynchronously.
func (q *InMemoryQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go q.processJob(handler, body)
	}
	return nil
}

// processJob retries a failing handler with growing backoff, then drops
// the job. Mirrors the broker's bounded-redelivery behavior.
func (q *InMemoryQueue) processJob(handler func(body []byte) error, body []byte) {
	defer q.wg.Done()
	for attempt := 0; ; attempt++ {
		err := handler(body)
		if err == nil {
			return // ACK
		}
		if attempt >= q.MaxRetries {
			log.Printf("job permanently failed after %d attempts: %v", attempt+1, err)
			return
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close waits for in-flight jobs to drain.
func (q *InMemoryQueue) Close() error {
	q.wg.Wait()
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
