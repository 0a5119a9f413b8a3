// Package browsertool implements the optional browser adapter
// (component C.5): a single tool dispatching a discriminated action
// union over a chromedp-driven headless Chrome instance, plus a frame
// streamer for periodic screenshot capture.
package browsertool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/stream"
	"github.com/relaylabs/agentloop/tool"
)

// Availability is probed once and cached; every action fails fast with
// browser-cli-missing when the probe failed, rather than attempting to
// spawn Chrome per call.
type Availability struct {
	once      sync.Once
	available bool
	err       error
}

func (a *Availability) Check() error {
	a.once.Do(func() {
		allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
		defer cancel()
		taskCtx, cancel2 := chromedp.NewContext(allocCtx)
		defer cancel2()
		pingCtx, cancel3 := context.WithTimeout(taskCtx, 5*time.Second)
		defer cancel3()
		if err := chromedp.Run(pingCtx, chromedp.Navigate("about:blank")); err != nil {
			a.err = err
			a.available = false
			return
		}
		a.available = true
	})
	if !a.available {
		return corerr.New("tool.browser", "probe", corerr.BrowserCLIMissing, "no usable browser binary found", a.err)
	}
	return nil
}

// Tool drives one persistent chromedp tab shared across action calls.
type Tool struct {
	avail    *Availability
	mu       sync.Mutex
	allocCtx context.Context
	cancel   context.CancelFunc
	taskCtx  context.Context
}

func New() *Tool {
	return &Tool{avail: &Availability{}}
}

func (t *Tool) Name() string        { return "browser_action" }
func (t *Tool) Description() string { return "Drive a headless browser: navigate, click, type, screenshot, and read page state." }
func (t *Tool) Timeout() time.Duration      { return 30 * time.Second }
func (t *Tool) Durability() tool.Durability { return tool.Durability{Independent: false} }

var actionKinds = []string{
	"open", "snapshot", "click", "dblclick", "fill", "type", "select", "press",
	"hover", "scroll", "screenshot", "getText", "getUrl", "getTitle", "wait",
	"eval", "check", "uncheck", "close",
}

func (t *Tool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":   map[string]any{"type": "string", "enum": actionKinds},
			"url":      map[string]any{"type": "string"},
			"selector": map[string]any{"type": "string"},
			"text":     map[string]any{"type": "string"},
			"value":    map[string]any{"type": "string"},
			"key":      map[string]any{"type": "string"},
			"script":   map[string]any{"type": "string"},
			"dx":       map[string]any{"type": "number"},
			"dy":       map[string]any{"type": "number"},
			"ms":       map[string]any{"type": "integer"},
		},
		"required": []string{"action"},
	}
}

func (t *Tool) ensureTab() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.taskCtx != nil {
		return nil
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	taskCtx, _ := chromedp.NewContext(allocCtx)
	t.allocCtx = allocCtx
	t.cancel = cancel
	t.taskCtx = taskCtx
	return nil
}

func (t *Tool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	if err := t.avail.Check(); err != nil {
		return errResult(err.Error(), started), nil
	}
	if err := t.ensureTab(); err != nil {
		return errResult(err.Error(), started), nil
	}

	action, _ := args["action"].(string)
	selector, _ := args["selector"].(string)
	text, _ := args["text"].(string)
	url, _ := args["url"].(string)
	script, _ := args["script"].(string)

	var actions []chromedp.Action
	switch action {
	case "open":
		actions = []chromedp.Action{chromedp.Navigate(url)}
	case "click":
		actions = []chromedp.Action{chromedp.WaitVisible(selector, chromedp.ByQuery), chromedp.Click(selector, chromedp.ByQuery)}
	case "dblclick":
		actions = []chromedp.Action{chromedp.WaitVisible(selector, chromedp.ByQuery), chromedp.DoubleClick(selector, chromedp.ByQuery)}
	case "fill", "type":
		actions = []chromedp.Action{chromedp.WaitVisible(selector, chromedp.ByQuery), chromedp.SendKeys(selector, text, chromedp.ByQuery)}
	case "select":
		value, _ := args["value"].(string)
		actions = []chromedp.Action{chromedp.WaitVisible(selector, chromedp.ByQuery), chromedp.SetValue(selector, value, chromedp.ByQuery)}
	case "press":
		key, _ := args["key"].(string)
		actions = []chromedp.Action{chromedp.KeyEvent(key)}
	case "hover":
		actions = []chromedp.Action{chromedp.ScrollIntoView(selector, chromedp.ByQuery)}
	case "scroll":
		actions = []chromedp.Action{chromedp.Evaluate(fmt.Sprintf("window.scrollBy(%v,%v)", args["dx"], args["dy"]), nil)}
	case "check":
		actions = []chromedp.Action{chromedp.SetAttributeValue(selector, "checked", "true", chromedp.ByQuery)}
	case "uncheck":
		actions = []chromedp.Action{chromedp.RemoveAttribute(selector, "checked", chromedp.ByQuery)}
	case "wait":
		actions = []chromedp.Action{chromedp.WaitVisible(selector, chromedp.ByQuery)}
	case "eval":
		var out any
		actions = []chromedp.Action{chromedp.Evaluate(script, &out)}
		if err := chromedp.Run(t.taskCtx, actions...); err != nil {
			return errResult(err.Error(), started), nil
		}
		return tool.Result{State: tool.StateOutputAvailable, Output: fmt.Sprintf("%v", out), StartedAt: started, FinishedAt: time.Now()}, nil
	case "getText":
		var out string
		if err := chromedp.Run(t.taskCtx, chromedp.Text(selector, &out, chromedp.ByQuery)); err != nil {
			return errResult(err.Error(), started), nil
		}
		return tool.Result{State: tool.StateOutputAvailable, Output: out, StartedAt: started, FinishedAt: time.Now()}, nil
	case "getUrl":
		var out string
		if err := chromedp.Run(t.taskCtx, chromedp.Location(&out)); err != nil {
			return errResult(err.Error(), started), nil
		}
		return tool.Result{State: tool.StateOutputAvailable, Output: out, StartedAt: started, FinishedAt: time.Now()}, nil
	case "getTitle":
		var out string
		if err := chromedp.Run(t.taskCtx, chromedp.Title(&out)); err != nil {
			return errResult(err.Error(), started), nil
		}
		return tool.Result{State: tool.StateOutputAvailable, Output: out, StartedAt: started, FinishedAt: time.Now()}, nil
	case "screenshot", "snapshot":
		var buf []byte
		if err := chromedp.Run(t.taskCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
			return errResult(err.Error(), started), nil
		}
		return tool.Result{
			State: tool.StateOutputAvailable, Output: fmt.Sprintf("captured %d bytes", len(buf)),
			StartedAt: started, FinishedAt: time.Now(),
			DataParts: []tool.DataPart{{Type: "sub-agent-stream", Payload: map[string]any{"png": buf}}},
		}, nil
	case "close":
		t.mu.Lock()
		if t.cancel != nil {
			t.cancel()
			t.taskCtx, t.allocCtx, t.cancel = nil, nil, nil
		}
		t.mu.Unlock()
		return tool.Result{State: tool.StateOutputAvailable, Output: "closed", StartedAt: started, FinishedAt: time.Now()}, nil
	default:
		return errResult("unsupported action "+action, started), nil
	}

	if err := chromedp.Run(t.taskCtx, actions...); err != nil {
		return errResult(err.Error(), started), nil
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: action + " ok", StartedAt: started, FinishedAt: time.Now()}, nil
}

// FrameStreamer periodically captures a screenshot and emits it onto the
// bus as a sub-agent-stream data part. It is re-entrant-safe: a tick is
// skipped entirely if the previous capture has not yet completed.
type FrameStreamer struct {
	tool    *Tool
	bus     *stream.Bus
	fps     float64
	quality int
	inFlight sync.Mutex
}

func NewFrameStreamer(t *Tool, bus *stream.Bus, fps float64, quality int) *FrameStreamer {
	if fps < 0.5 {
		fps = 0.5
	}
	if fps > 10 {
		fps = 10
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &FrameStreamer{tool: t, bus: bus, fps: fps, quality: quality}
}

func (f *FrameStreamer) Run(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / f.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !f.inFlight.TryLock() {
				continue // previous capture still running; skip this tick
			}
			go func() {
				defer f.inFlight.Unlock()
				var buf []byte
				if err := chromedp.Run(f.tool.taskCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
					f.bus.Emit(stream.Event{Kind: stream.KindError, Err: fmt.Errorf("%s: %w", stream.ErrProtocolViolation, err)})
					return
				}
				f.bus.Emit(stream.Event{
					Kind:     stream.KindDataPart,
					DataType: "sub-agent-stream",
					DataPart: map[string]any{"png": buf, "quality": f.quality},
				})
			}()
		}
	}
}

func errResult(msg string, started time.Time) tool.Result {
	return tool.Result{State: tool.StateOutputError, Error: msg, StartedAt: started, FinishedAt: time.Now()}
}
