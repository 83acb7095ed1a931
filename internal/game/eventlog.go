package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	eventBufferSize    = 1024
	eventFlushInterval = 100 * time.Millisecond
)

// Event is one journal record.
type Event struct {
	Time    time.Time      `json:"time"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventLog is an append-only, newline-delimited JSON journal written by a
// background goroutine. Emitting never blocks the tick loop; when the
// buffer is full events are dropped and counted.
type EventLog struct {
	ch       chan Event
	file     *os.File
	wg       sync.WaitGroup
	stopOnce sync.Once
	dropped  uint64
}

// NewEventLog opens path for append and starts the writer.
func NewEventLog(path string) (*EventLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	el := &EventLog{
		ch:   make(chan Event, eventBufferSize),
		file: file,
	}
	el.wg.Add(1)
	go el.writerLoop()
	return el, nil
}

// Emit queues one event. Safe on a nil log and never blocks.
func (el *EventLog) Emit(eventType string, payload map[string]any) {
	if el == nil {
		return
	}
	select {
	case el.ch <- Event{Time: time.Now(), Type: eventType, Payload: payload}:
	default:
		atomic.AddUint64(&el.dropped, 1)
	}
}

// Dropped returns how many events were discarded due to backpressure.
func (el *EventLog) Dropped() uint64 {
	if el == nil {
		return 0
	}
	return atomic.LoadUint64(&el.dropped)
}

// Close flushes pending events and closes the file. Safe on a nil log.
func (el *EventLog) Close() {
	if el == nil {
		return
	}
	el.stopOnce.Do(func() {
		close(el.ch)
		el.wg.Wait()
		el.file.Close()
	})
}

func (el *EventLog) writerLoop() {
	defer el.wg.Done()

	ticker := time.NewTicker(eventFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-el.ch:
			if !ok {
				el.file.Sync()
				return
			}
			el.write(ev)
		case <-ticker.C:
			el.file.Sync()
		}
	}
}

func (el *EventLog) write(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	el.file.Write(data)
	el.file.Write([]byte("\n"))
}
