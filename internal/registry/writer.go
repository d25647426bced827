package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	sendTimeout       = 5 * time.Second
	messageBufferSize = 16
)

// ErrSendBufferFull is returned by TrySend when the client is not draining
// its buffer. The recipient missed the message; recovery is its own
// reconnect-and-refetch path.
var ErrSendBufferFull = errors.New("send buffer full")

// ErrWriterStopped is returned when sending on a stopped writer.
var ErrWriterStopped = errors.New("writer stopped")

// Writer serializes all writes to one WebSocket connection through a single
// goroutine. gorilla/websocket allows only one concurrent writer per
// connection, so broadcasts, acks and pings all funnel through here.
type Writer struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	pingChannel chan struct{}
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewWriter(connection *websocket.Conn, clock clockwork.Clock) *Writer {
	w := &Writer{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		pingChannel: make(chan struct{}, 1),
		doneChannel: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Writer) run() {
	defer w.wg.Done()

	for {
		select {
		case msg, ok := <-w.sendChannel:
			if !ok {
				return
			}
			start := w.clock.Now()
			w.updateWriteDeadline()
			if err := w.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			metrics.MessageSendDuration.Observe(w.clock.Since(start).Seconds())
		case <-w.pingChannel:
			w.updateWriteDeadline()
			if err := w.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.PingFailures.Inc()
				return
			}
		case <-w.doneChannel:
			return
		}
	}
}

// TrySend enqueues msg without blocking.
func (w *Writer) TrySend(msg []byte) error {
	select {
	case <-w.doneChannel:
		return ErrWriterStopped
	default:
	}

	select {
	case w.sendChannel <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Send enqueues msg, waiting up to the send timeout for buffer space.
func (w *Writer) Send(msg []byte) error {
	select {
	case <-w.doneChannel:
		return ErrWriterStopped
	default:
	}

	timer := w.clock.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case w.sendChannel <- msg:
		return nil
	case <-w.doneChannel:
		return ErrWriterStopped
	case <-timer.Chan():
		return ErrSendBufferFull
	}
}

// Ping enqueues a ping control frame. A pending ping that has not been
// written yet satisfies the request.
func (w *Writer) Ping() error {
	select {
	case <-w.doneChannel:
		return ErrWriterStopped
	default:
	}

	select {
	case w.pingChannel <- struct{}{}:
		return nil
	default:
		return nil
	}
}

// Stop closes the connection and terminates the write loop.
func (w *Writer) Stop() {
	w.stopOnce.Do(func() {
		close(w.doneChannel)
		_ = w.connection.Close()
	})
	w.wg.Wait()
}

// StopGraceful sends a close frame with reason before closing.
func (w *Writer) StopGraceful(reason string) {
	w.stopOnce.Do(func() {
		close(w.doneChannel)

		// Wait for the run goroutine to exit before writing the close
		// frame; gorilla forbids concurrent writes.
		w.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		w.updateWriteDeadline()
		_ = w.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = w.connection.Close()
	})
}

func (w *Writer) updateWriteDeadline() {
	_ = w.connection.SetWriteDeadline(w.clock.Now().Add(writeDeadline))
}
