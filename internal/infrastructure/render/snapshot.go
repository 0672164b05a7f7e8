package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"SecretSanta/internal/ports"
)

// Snapshotter screenshots HTML documents with a headless Chromium that is started on
// first use and reused until Close.
type Snapshotter struct {
	width  int
	height int
	bin    string
	logger *slog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

var _ ports.Snapshotter = (*Snapshotter)(nil)

// NewSnapshotter configures the viewport; bin optionally points at a browser binary.
func NewSnapshotter(width, height int, bin string, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Snapshotter{width: width, height: height, bin: bin, logger: logger}
}

// Capture renders html at the configured viewport and returns a PNG.
func (s *Snapshotter) Capture(ctx context.Context, html string) ([]byte, error) {
	browser, err := s.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			s.logger.Debug("close page", "error", cerr)
		}
	}()

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.width,
		Height:            s.height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	img, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return img, nil
}

func (s *Snapshotter) connect() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().Headless(true)
	if s.bin != "" {
		l = l.Bin(s.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	s.logger.Debug("browser started", "control_url", controlURL)
	s.launcher = l
	s.browser = browser
	return browser, nil
}

// Close shuts the browser down if it was started.
func (s *Snapshotter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}

	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	s.browser, s.launcher = nil, nil
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
