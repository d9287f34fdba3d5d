package chart

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// Screenshotter captures chart images by pointing a headless Chromium at
// the internal render page. The page draws the pie as static SVG, so the
// capture only waits for the chart element, no settle delay.
type Screenshotter struct {
	baseURL    string
	browserBin string
	logger     *zap.Logger
}

func NewScreenshotter(baseURL, browserBin string, logger *zap.Logger) *Screenshotter {
	return &Screenshotter{baseURL: baseURL, browserBin: browserBin, logger: logger}
}

// RenderPageURL is the internal page the browser is pointed at.
func (s *Screenshotter) RenderPageURL(graphID string, theme user.Theme) string {
	return fmt.Sprintf("%s/render/%s?theme=%s", s.baseURL, url.PathEscape(graphID), theme)
}

// Capture launches a browser, loads the render page and screenshots it.
// Each call gets its own browser; captures are rare enough that keeping a
// warm instance isn't worth the lifecycle management.
func (s *Screenshotter) Capture(ctx context.Context, graphID string, theme user.Theme) ([]byte, error) {
	launch := launcher.New().Headless(true)
	if s.browserBin != "" {
		launch = launch.Bin(s.browserBin)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("launch chrome: %w", err))
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("connect to chrome: %w", err))
	}
	defer func() {
		if err := browser.Close(); err != nil {
			s.logger.Warn("closing browser failed", zap.Error(err))
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: s.RenderPageURL(graphID, theme)})
	if err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("open render page: %w", err))
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: imageWidth, Height: imageHeight, DeviceScaleFactor: 1,
	}); err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("set viewport: %w", err))
	}

	if err := page.Timeout(15 * time.Second).WaitLoad(); err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("load render page: %w", err))
	}
	if _, err := page.Timeout(10 * time.Second).Element("#chart"); err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("chart element missing: %w", err))
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, apperrors.Upstream("browser", fmt.Errorf("capture screenshot: %w", err))
	}
	return data, nil
}
