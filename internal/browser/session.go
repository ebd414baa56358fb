package browser

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultPort is the remote debugging port Chrome listens on. Lighthouse attaches to it.
const DefaultPort = 9222

// DefaultStepTimeout bounds a single navigation step.
const DefaultStepTimeout = 30 * time.Second

// Options configures the Chrome instance.
type Options struct {
	Headless     bool
	Port         int
	WindowWidth  int
	WindowHeight int
	// ChromePath overrides the Chrome binary chromedp discovers.
	ChromePath string
	// Flags are extra command line switches, e.g. "--disable-mobile-emulation"
	// or "--lang=en-GB".
	Flags       []string
	StepTimeout time.Duration
	Verbose     bool
}

// DefaultOptions mirrors the desktop audit setup: headless, 1200x900,
// sandboxing disabled for containers.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		Port:         DefaultPort,
		WindowWidth:  1200,
		WindowHeight: 900,
		Flags: []string{
			"--disable-mobile-emulation",
			"--no-sandbox",
			"--disable-setuid-sandbox",
		},
		StepTimeout: DefaultStepTimeout,
	}
}

// Session is a running Chrome instance owned by a single audit run.
type Session struct {
	opts          Options
	ctx           context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	closed        bool
}

// Launch starts Chrome with a fixed remote debugging port and opens the first tab.
// The returned session must be closed.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}

	if opts.Verbose {
		log.Printf("[BROWSER] Launching Chrome on debugging port %d (headless=%t)", opts.Port, opts.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:          opts,
		ctx:           browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx, chromedp.EmulateViewport(int64(opts.WindowWidth), int64(opts.WindowHeight))); err != nil {
		s.cancel()
		return nil, &SessionError{Message: "failed to start browser", Cause: err}
	}

	return s, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(opts.Port)),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	for _, f := range opts.Flags {
		name, value := parseFlag(f)
		if name == "" {
			continue
		}
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	return allocOpts
}

// parseFlag splits "--name=value" into a chromedp flag. A switch without a value is true.
func parseFlag(f string) (string, any) {
	f = strings.TrimLeft(strings.TrimSpace(f), "-")
	if f == "" {
		return "", nil
	}
	name, value, ok := strings.Cut(f, "=")
	if !ok {
		return name, true
	}
	return name, value
}

// CurrentURL returns the location of the active tab.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := s.stepContext(ctx)
	defer cancel()

	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return "", &SessionError{Message: "failed to read current location", Cause: err}
	}
	return loc, nil
}

// stepContext derives a chromedp context bounded by the step timeout that is
// also cancelled when ctx is.
func (s *Session) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, s.opts.StepTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Close shuts Chrome down. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if cerr := chromedp.Cancel(s.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
		err = &SessionError{Message: "failed to close browser", Cause: cerr}
	}
	s.cancel()
	if s.opts.Verbose {
		log.Printf("[BROWSER] Chrome closed")
	}
	return err
}

func (s *Session) cancel() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
