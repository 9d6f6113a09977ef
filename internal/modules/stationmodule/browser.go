package stationmodule

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.159 Safari/537.36"

const clickWaitTimeout = 5 * time.Second

// muteAndPlayJS mutes every video element and starts playback, so players
// that refuse unmuted autoplay begin fetching their stream.
const muteAndPlayJS = `() => {
	const muteAndPlay = () => {
		document.querySelectorAll("video").forEach(v => {
			v.muted = true;
			try { v.play().catch(() => {}) } catch (e) {}
		});
	};
	if (document.readyState === 'loading') {
		document.addEventListener("DOMContentLoaded", muteAndPlay);
	} else {
		muteAndPlay();
	}
}`

// shadowClickJS pierces open shadow roots looking for the selector, for
// players that bury their controls inside custom elements.
const shadowClickJS = `(selector) => {
	const search = (root) => {
		const el = root.querySelector(selector);
		if (el) return el;
		for (const node of root.querySelectorAll('*')) {
			if (node.shadowRoot) {
				const found = search(node.shadowRoot);
				if (found) return found;
			}
		}
		return null;
	};
	const el = search(document);
	if (el) { el.click(); return true; }
	return false;
}`

// BrowserSession drives a page long enough for the capture proxy to see the
// stream URLs it fetches. Implementations must clean up their browser
// process on every exit path.
type BrowserSession interface {
	Observe(station *database.Station, window time.Duration) error
}

// RodSession runs a headless Chromium through the capture proxy via Rod.
type RodSession struct {
	proxyHost   string
	pageTimeout time.Duration
}

// NewRodSession configures a session factory for the given proxy.
func NewRodSession(proxyHost string, pageTimeout time.Duration) *RodSession {
	return &RodSession{proxyHost: proxyHost, pageTimeout: pageTimeout}
}

// Observe navigates to the station's source page, coaxes playback, and
// blocks for the observation window while the proxy captures manifest URLs.
// The launcher's Kill/Cleanup defers force-terminate a hung browser and
// remove its profile directory on every exit path.
func (s *RodSession) Observe(station *database.Station, window time.Duration) error {
	l := launcher.New().
		Headless(true).
		Proxy("http://" + s.proxyHost).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("ignore-certificate-errors").
		Set("disable-web-security").
		Set("disable-popup-blocking").
		Set("user-agent", userAgent)

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch headless browser: %w", err)
	}
	defer l.Kill()
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to headless browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			logger.Debug("browser close failed", "error", closeErr)
		}
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return fmt.Errorf("create tab: %w", err)
	}
	defer page.Close()
	page = page.Timeout(s.pageTimeout)

	if err := page.Navigate(station.StreamSource); err != nil {
		return fmt.Errorf("navigate to %s: %w", station.StreamSource, err)
	}
	if err := page.WaitLoad(); err != nil {
		logger.Debug("page load wait timed out, continuing", "station", station.Name, "error", err)
	}

	s.clickPlayButton(page, station)

	if _, err := page.Eval(muteAndPlayJS); err != nil {
		logger.Debug("mute-and-play injection failed", "station", station.Name, "error", err)
	}

	time.Sleep(window)
	return nil
}

// clickPlayButton is best-effort: some players start fetching only after an
// explicit click; most do not need one.
func (s *RodSession) clickPlayButton(page *rod.Page, station *database.Station) {
	if station.PlayButtonSelector == "" {
		return
	}

	if station.UseShadowDOM {
		if _, err := page.Eval(shadowClickJS, station.PlayButtonSelector); err != nil {
			logger.Debug("shadow-dom play click failed", "station", station.Name, "error", err)
		}
		time.Sleep(2 * time.Second)
		return
	}

	el, err := page.Timeout(clickWaitTimeout).Element(station.PlayButtonSelector)
	if err != nil {
		logger.Debug("play button not found", "station", station.Name, "selector", station.PlayButtonSelector)
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		logger.Debug("play button click failed", "station", station.Name, "error", err)
		return
	}
	time.Sleep(2 * time.Second)
}
