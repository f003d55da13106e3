package nbiot

import (
	"fmt"
	"io"
	"sync"
)

// Step is one expected command/reply pair in a scripted conversation.
// Reply is queued for reading as soon as the expected command is written.
type Step struct {
	// Expect is the exact wire form of the command, including the trailing
	// carriage return. Empty matches any write.
	Expect string
	// Reply is the raw byte stream the modem answers with, CRLF line
	// endings included.
	Reply string
}

// TestTransport is a test helper that simulates a blocking modem transport
// using channels. Reads block until a scripted reply is available, like a
// real serial port would. It also records every write so tests can assert
// on the exact command bytes - or on the absence of any channel
// interaction.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	steps    []Step
	writes   []string
	closed   bool
}

// NewTestTransport creates a transport that plays the given script.
func NewTestTransport(steps ...Step) *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
		steps:    steps,
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writes = append(t.writes, string(p))

	if len(t.steps) == 0 {
		return 0, fmt.Errorf("unexpected write %q: script exhausted", p)
	}
	step := t.steps[0]
	t.steps = t.steps[1:]

	if step.Expect != "" && string(p) != step.Expect {
		return 0, fmt.Errorf("unexpected write %q, script expects %q", p, step.Expect)
	}
	if step.Reply != "" && !t.closed {
		t.readChan <- []byte(step.Reply)
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport outside the script.
// This simulates unsolicited output from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes returns every write seen so far, in order.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}
