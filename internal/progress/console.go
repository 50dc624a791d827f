package progress

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

const clearLine = "\r\033[K"

type lineResult struct {
	line string
	err  error
}

// Console serialises every write to the operator terminal behind one lock.
// The watchdog draws its indicator on the current line; any other output
// first clears that line so text never interleaves with a frame.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	in         io.Reader
	styles     Styles
	lineActive bool
	pendingMu  sync.Mutex
	pending    []byte

	readerOnce sync.Once
	lines      chan lineResult
}

// NewConsole creates a console writing to out and reading operator answers from in
func NewConsole(out io.Writer, in io.Reader, styles Styles) *Console {
	return &Console{
		out:    out,
		in:     in,
		styles: styles,
	}
}

// Styles returns the console styles
func (c *Console) Styles() Styles {
	return c.styles
}

// Println writes one line, clearing an indicator frame first.
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushPending()
	c.println(fmt.Sprint(a...))
}

// Printf writes one formatted line, clearing an indicator frame first.
// A trailing newline is added when missing.
func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushPending()
	c.println(fmt.Sprintf(format, args...))
}

// Write makes the console usable as a log destination. When the console is
// held by an Exclusive callback the bytes are queued and written once the
// callback returns, so a log call made from inside it cannot block.
func (c *Console) Write(p []byte) (int, error) {
	if !c.mu.TryLock() {
		c.queue(p)
		return len(p), nil
	}
	defer c.mu.Unlock()
	c.flushPending()
	c.releaseLine()
	return c.out.Write(p)
}

func (c *Console) queue(p []byte) {
	c.pendingMu.Lock()
	c.pending = append(c.pending, p...)
	c.pendingMu.Unlock()
}

// flushPending must be called with mu held
func (c *Console) flushPending() {
	c.pendingMu.Lock()
	buf := c.pending
	c.pending = nil
	c.pendingMu.Unlock()
	if len(buf) > 0 {
		c.releaseLine()
		_, _ = c.out.Write(buf)
	}
}

// Frame draws s over the current line without waiting for the lock.
// It reports false when the console is busy and nothing was drawn.
func (c *Console) Frame(s string) bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()
	c.flushPending()
	_, _ = io.WriteString(c.out, clearLine+c.styles.Indicator.Render(s))
	c.lineActive = true
	return true
}

// Exclusive runs fn while holding the console lock. Nothing else, including
// indicator frames, is written until fn returns.
func (c *Console) Exclusive(fn func(*Session) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushPending()
	c.releaseLine()
	err := fn(&Session{console: c})
	c.flushPending()
	return err
}

// Finish moves past an indicator frame so the shell prompt starts on a fresh line
func (c *Console) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushPending()
	if c.lineActive {
		_, _ = io.WriteString(c.out, clearLine)
		c.lineActive = false
	}
}

func (c *Console) println(s string) {
	c.releaseLine()
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, _ = io.WriteString(c.out, s)
}

func (c *Console) releaseLine() {
	if c.lineActive {
		_, _ = io.WriteString(c.out, clearLine)
		c.lineActive = false
	}
}

// startReader reads input lines on a dedicated goroutine so a pending read
// can be abandoned when the context is cancelled.
func (c *Console) startReader() {
	c.readerOnce.Do(func() {
		c.lines = make(chan lineResult)
		go func() {
			reader := bufio.NewReader(c.in)
			for {
				line, err := reader.ReadString('\n')
				if line != "" || err == nil {
					c.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
				}
				if err != nil {
					c.lines <- lineResult{err: err}
					close(c.lines)
					return
				}
			}
		}()
	})
}

// Session is the console handle passed to Exclusive callbacks. It writes
// without re-acquiring the lock.
type Session struct {
	console *Console
}

// Styles returns the console styles
func (s *Session) Styles() Styles {
	return s.console.styles
}

// Println writes one line
func (s *Session) Println(a ...any) {
	s.console.println(fmt.Sprint(a...))
}

// Printf writes one formatted line
func (s *Session) Printf(format string, args ...any) {
	s.console.println(fmt.Sprintf(format, args...))
}

// Print writes text without a newline, for prompts
func (s *Session) Print(text string) {
	_, _ = io.WriteString(s.console.out, text)
}

// ReadLine waits for one line of operator input. It returns io.EOF when the
// input is closed and ctx.Err() when ctx is cancelled first.
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	c := s.console
	if c.in == nil {
		return "", io.EOF
	}
	c.startReader()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}
