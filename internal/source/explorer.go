package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Explorer scrapes the block explorer's token page via headless Chrome for
// figures the explorer exposes only in its rendered UI: holder count and the
// trailing 24h transfer count.
type Explorer struct {
	logger *slog.Logger
	url    string
}

func NewExplorer(url string, logger *slog.Logger) *Explorer {
	return &Explorer{logger: logger, url: url}
}

func (e *Explorer) Name() string { return "explorer" }

type explorerFigures struct {
	Holders     string `json:"holders"`
	Transfers24 string `json:"transfers24"`
}

func (e *Explorer) Read(ctx context.Context) (map[string]float64, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crash-reporter", true),
		chromedp.Flag("crash-dumps-dir", "/tmp"),
		chromedp.UserDataDir("/tmp/chromedp-profile"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	cctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	cctx, cancel = context.WithTimeout(cctx, 45*time.Second)
	defer cancel()

	var resultJSON string
	if err := chromedp.Run(cctx,
		chromedp.Navigate(e.url),
		chromedp.WaitVisible(`[data-test="token-holders"], .token-holders`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(extractFiguresJS, &resultJSON),
	); err != nil {
		return nil, transient(e.Name(), fmt.Errorf("chromedp: %w", err))
	}

	var figs explorerFigures
	if err := json.Unmarshal([]byte(resultJSON), &figs); err != nil {
		return nil, transient(e.Name(), fmt.Errorf("parse explorer figures: %w", err))
	}

	holders, err := parseCompactNumber(figs.Holders)
	if err != nil {
		return nil, transient(e.Name(), fmt.Errorf("parse holders %q: %w", figs.Holders, err))
	}
	transfers, err := parseCompactNumber(figs.Transfers24)
	if err != nil {
		return nil, transient(e.Name(), fmt.Errorf("parse transfers %q: %w", figs.Transfers24, err))
	}

	e.logger.Debug("scraped explorer figures", "holders", holders, "transfers_24h", transfers)

	return map[string]float64{
		QtyHolders:    holders,
		QtyTxCount24h: transfers,
	}, nil
}

// extractFiguresJS is evaluated in the browser to pull the holder and
// transfer counts from the rendered token page.
const extractFiguresJS = `
(() => {
	const text = sel => {
		const el = document.querySelector(sel);
		return el ? el.textContent.trim() : '';
	};
	return JSON.stringify({
		holders: text('[data-test="token-holders"], .token-holders'),
		transfers24: text('[data-test="token-transfers-24h"], .token-transfers-24h'),
	});
})()
`

// parseCompactNumber parses explorer-style figures like "1,234", "12.5K" or
// "3.4M" into a plain number.
func parseCompactNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1_000
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1_000_000
		s = s[:len(s)-1]
	case 'B', 'b':
		mult = 1_000_000_000
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v * mult, nil
}
