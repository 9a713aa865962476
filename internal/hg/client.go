package hg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"hggrip/internal/logger"
)

// Hooks receive the streams of a single runcommand call. Every field is optional.
type Hooks struct {
	Output     func(data []byte)
	Error      func(data []byte)
	ReturnCode func(code int)
	// Prompt receives the output written since the previous input request and
	// returns the answer. Line requests get a trailing newline appended, so an
	// empty answer selects the prompt's default.
	Prompt func(question []byte) []byte
}

// Runner executes raw command lines against a command server session
type Runner interface {
	RunCommand(ctx context.Context, args []string, hooks Hooks) ([]byte, error)
	Encoding() string
}

// Options configure how the command server process is started
type Options struct {
	HgPath   string
	Encoding string
	Configs  []string // extra --config name=value pairs
	Env      []string
}

// closeTimeout is how long a server gets to exit after stdin is closed
const closeTimeout = 5 * time.Second

// Client is a session with one `hg serve --cmdserver pipe` process.
// Commands on a client run one at a time.
type Client struct {
	root     string
	hello    Hello
	encoding string

	r *bufio.Reader
	w io.Writer

	closeFn func() error
	kill    func()

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open starts a command server rooted at root and reads its hello message
func Open(ctx context.Context, root string, opts Options) (*Client, error) {
	hgPath := opts.HgPath
	if hgPath == "" {
		hgPath = "hg"
	}

	args := []string{"serve", "--cmdserver", "pipe", "--config", "ui.interactive=True"}
	for _, c := range opts.Configs {
		args = append(args, "--config", c)
	}

	cmd := exec.Command(hgPath, args...)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "HGPLAIN=1")
	if opts.Encoding != "" {
		cmd.Env = append(cmd.Env, "HGENCODING="+opts.Encoding)
	}
	cmd.Env = append(cmd.Env, opts.Env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", hgPath, err)
	}

	p := &process{cmd: cmd, stdin: stdin}
	c, err := attach(ctx, stdout, stdin, p.close, p.kill)
	if err != nil {
		p.kill()
		_ = p.close()
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("command server in %s: %w: %s", root, err, msg)
		}
		return nil, fmt.Errorf("command server in %s: %w", root, err)
	}
	c.root = root
	if opts.Encoding != "" {
		c.encoding = opts.Encoding
	}

	logger.WithRoot(root).Debug().Int("pid", c.hello.PID).Str("encoding", c.encoding).Msg("command server started")
	return c, nil
}

// attach wires a client to an already running server and consumes the hello message
func attach(ctx context.Context, r io.Reader, w io.Writer, closeFn func() error, kill func()) (*Client, error) {
	c := &Client{
		r:       bufio.NewReaderSize(r, 64*1024),
		w:       w,
		closeFn: closeFn,
		kill:    kill,
	}

	stop := context.AfterFunc(ctx, c.abort)
	defer stop()

	f, err := readFrame(c.r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if f.Channel != ChannelOutput {
		return nil, fmt.Errorf("%w: hello expected on channel 'o', got %q", ErrProtocol, f.Channel)
	}
	hello, err := parseHello(f.Data)
	if err != nil {
		return nil, err
	}
	c.hello = hello
	c.encoding = hello.Encoding
	return c, nil
}

// Root returns the directory the server was started in
func (c *Client) Root() string { return c.root }

// Hello returns the server greeting
func (c *Client) Hello() Hello { return c.hello }

// Encoding returns the encoding used for arguments and output
func (c *Client) Encoding() string { return c.encoding }

// Alive reports whether the session can still run commands
func (c *Client) Alive() bool { return !c.closed.Load() }

// RunCommand runs one command line, streaming its channels into hooks.
// A non-zero return code yields a *CommandError. If ctx ends before the
// command finishes the server is killed and the client becomes unusable.
func (c *Client) RunCommand(ctx context.Context, args []string, hooks Hooks) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("hg: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, ErrClosed
	}

	encoded := make([][]byte, len(args))
	for i, a := range args {
		b, err := Encode(c.encoding, a)
		if err != nil {
			return nil, fmt.Errorf("encode argument %q as %s: %w", a, c.encoding, err)
		}
		encoded[i] = b
	}

	stop := context.AfterFunc(ctx, c.abort)
	defer stop()

	out, err := c.run(args, encoded, hooks)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("hg %s: %w", args[0], ctx.Err())
	}
	return out, err
}

func (c *Client) run(args []string, encoded [][]byte, hooks Hooks) ([]byte, error) {
	if err := writeCommand(c.w, "runcommand", encodeArgs(encoded)); err != nil {
		c.abort()
		return nil, fmt.Errorf("%w: write runcommand: %v", ErrClosed, err)
	}

	var out, errOut, pending bytes.Buffer
	for {
		f, err := readFrame(c.r)
		if err != nil {
			c.abort()
			if errors.Is(err, ErrProtocol) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrClosed, err)
		}

		switch f.Channel {
		case ChannelOutput:
			out.Write(f.Data)
			pending.Write(f.Data)
			if hooks.Output != nil {
				hooks.Output(f.Data)
			}

		case ChannelError:
			errOut.Write(f.Data)
			if hooks.Error != nil {
				hooks.Error(f.Data)
			}

		case ChannelDebug:
			logger.Debugf("hg debug: %s", bytes.TrimRight(f.Data, "\n"))

		case ChannelResult:
			if len(f.Data) != 4 {
				c.abort()
				return nil, fmt.Errorf("%w: result frame of %d bytes", ErrProtocol, len(f.Data))
			}
			code := int(int32(binary.BigEndian.Uint32(f.Data)))
			if hooks.ReturnCode != nil {
				hooks.ReturnCode(code)
			}
			if code != 0 {
				return nil, &CommandError{Args: args, Code: code, Out: out.Bytes(), Err: errOut.Bytes()}
			}
			return out.Bytes(), nil

		case ChannelInput, ChannelLine:
			var answer []byte
			if hooks.Prompt != nil {
				answer = hooks.Prompt(bytes.Clone(pending.Bytes()))
			}
			pending.Reset()
			if f.Channel == ChannelLine && !bytes.HasSuffix(answer, []byte("\n")) {
				answer = append(answer, '\n')
			}
			if uint32(len(answer)) > f.Length {
				answer = answer[:f.Length]
			}
			if err := writeBlock(c.w, answer); err != nil {
				c.abort()
				return nil, fmt.Errorf("%w: write answer: %v", ErrClosed, err)
			}

		default:
			if unicode.IsUpper(rune(f.Channel)) {
				c.abort()
				return nil, fmt.Errorf("%w: unexpected required channel %q", ErrProtocol, f.Channel)
			}
		}
	}
}

// abort kills the server without waiting; Close still reaps it
func (c *Client) abort() {
	if c.closed.Swap(true) {
		return
	}
	if c.kill != nil {
		c.kill()
	}
}

// Close stops the server. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.closeFn != nil {
			c.closeErr = c.closeFn()
		}
	})
	return c.closeErr
}

// process owns the server's os/exec handle
type process struct {
	cmd   *exec.Cmd
	stdin io.Closer
	once  sync.Once
	err   error
}

func (p *process) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// close closes stdin, which makes the server exit, and waits for it
func (p *process) close() error {
	p.once.Do(func() {
		_ = p.stdin.Close()
		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case err := <-done:
			p.err = err
		case <-time.After(closeTimeout):
			p.kill()
			p.err = <-done
		}
		var exitErr *exec.ExitError
		if errors.As(p.err, &exitErr) && !exitErr.Exited() {
			// killed by us
			p.err = nil
		}
	})
	return p.err
}
