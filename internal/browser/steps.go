package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/lighthouse-audit/internal/types"
)

// navigationPollInterval is how often the location is checked while waiting
// for a click to navigate.
const navigationPollInterval = 100 * time.Millisecond

// Perform runs the steps in order in the active tab and returns the URL the
// tab ends on.
func (s *Session) Perform(ctx context.Context, steps []types.Step) (string, error) {
	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return "", &NavigationError{Step: i + 1, Action: string(step.Action), Message: "invalid step", Cause: err}
		}
		if s.opts.Verbose {
			log.Printf("[BROWSER] Step %d/%d: %s", i+1, len(steps), step.String())
		}
		if err := s.perform(ctx, step); err != nil {
			return "", &NavigationError{Step: i + 1, Action: string(step.Action), Message: step.String(), Cause: err}
		}
	}
	return s.CurrentURL(ctx)
}

func (s *Session) perform(ctx context.Context, step types.Step) error {
	runCtx, cancel := s.stepContext(ctx)
	defer cancel()

	switch step.Action {
	case types.StepGoto:
		return chromedp.Run(runCtx,
			chromedp.Navigate(step.URL),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	case types.StepClick:
		return s.click(runCtx, step)
	case types.StepType:
		return chromedp.Run(runCtx,
			chromedp.WaitVisible(step.Selector, chromedp.ByQuery),
			chromedp.SendKeys(step.Selector, step.Value, chromedp.ByQuery),
		)
	case types.StepWait:
		return chromedp.Run(runCtx, chromedp.WaitVisible(step.Selector, chromedp.ByQuery))
	case types.StepSleep:
		return chromedp.Run(runCtx, chromedp.Sleep(step.Duration))
	case types.StepFollowLink:
		return s.followLink(runCtx, step.Text)
	default:
		return fmt.Errorf("unsupported action %q", step.Action)
	}
}

// click triggers the element's click handler from page script, which also works
// for elements hidden behind overlays, and optionally waits for the resulting navigation.
func (s *Session) click(ctx context.Context, step types.Step) error {
	var before string
	if err := chromedp.Run(ctx, chromedp.Location(&before)); err != nil {
		return err
	}

	var navigated <-chan struct{}
	if step.WaitNavigation {
		listenCtx, stop := context.WithCancel(ctx)
		defer stop()
		navigated = listenMainFrameNavigation(listenCtx)
	}

	quoted, err := json.Marshal(step.Selector)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { throw new Error("no element matches selector"); }
		el.click();
		return true;
	})()`, quoted)

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		// The page may already be unloading when the result comes back.
		if !step.WaitNavigation || !signalled(navigated) {
			return err
		}
	}
	if !step.WaitNavigation {
		return nil
	}
	if err := awaitNavigation(ctx, before, navigated, currentLocation); err != nil {
		return err
	}
	return chromedp.Run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

// listenMainFrameNavigation signals once the top-level frame commits a navigation,
// including a reload of the same URL.
func listenMainFrameNavigation(ctx context.Context) <-chan struct{} {
	navigated := make(chan struct{}, 1)
	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame.ParentID == "" {
			select {
			case navigated <- struct{}{}:
			default:
			}
		}
	})
	return navigated
}

func signalled(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

type locationFunc func(ctx context.Context) (string, error)

func currentLocation(ctx context.Context) (string, error) {
	var loc string
	err := chromedp.Run(ctx, chromedp.Location(&loc))
	return loc, err
}

// awaitNavigation blocks until the main frame navigated or the location differs
// from before. Location errors are expected while the old document is torn down
// and only end the wait when ctx expires.
func awaitNavigation(ctx context.Context, before string, navigated <-chan struct{}, location locationFunc) error {
	ticker := time.NewTicker(navigationPollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("navigation from %s did not happen: %w (last error: %v)", before, ctx.Err(), lastErr)
			}
			return fmt.Errorf("navigation from %s did not happen: %w", before, ctx.Err())
		case <-navigated:
			return nil
		case <-ticker.C:
			loc, err := location(ctx)
			if err != nil {
				lastErr = err
				continue
			}
			if loc != before {
				return nil
			}
		}
	}
}

func (s *Session) followLink(ctx context.Context, text string) error {
	var html, loc string
	if err := chromedp.Run(ctx,
		chromedp.Location(&loc),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return err
	}

	target, err := FindLinkByText(html, loc, text)
	if err != nil {
		return err
	}

	return chromedp.Run(ctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}
