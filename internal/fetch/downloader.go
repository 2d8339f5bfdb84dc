// Package fetch downloads the pages listed in a subject index document.
//
// The index is a JSON object whose array-valued members are groups of
// {"code": ..., "code_link": ...} items. Each item is fetched once, in
// document order, and its body is written verbatim to <output>/<code>.html.
// A failed item is logged and skipped; a fixed delay follows every attempt.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"tsvload/internal/datasource/httpds"
)

// Getter fetches the body of a 2xx response. *httpds.Client implements it.
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Item is one page to download.
type Item struct {
	Group string
	Code  string
	Link  string
}

// ParseItems extracts the items of every array-valued member of doc.
// Non-array members and items missing code or code_link are skipped.
func ParseItems(doc []byte) ([]Item, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("fetch: index is not valid JSON")
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, fmt.Errorf("fetch: index must be a JSON object")
	}

	var items []Item
	root.ForEach(func(group, members gjson.Result) bool {
		if !members.IsArray() {
			return true
		}
		members.ForEach(func(_, m gjson.Result) bool {
			code, link := m.Get("code"), m.Get("code_link")
			if !m.IsObject() || !code.Exists() || !link.Exists() {
				return true
			}
			items = append(items, Item{Group: group.String(), Code: code.String(), Link: link.String()})
			return true
		})
		return true
	})
	return items, nil
}

// Options configures a Downloader.
type Options struct {
	OutputDir string
	Delay     time.Duration
}

// Result counts the outcome of a run.
type Result struct {
	Saved  int
	Failed int
}

// Downloader fetches items sequentially.
type Downloader struct {
	get   Getter
	opts  Options
	log   zerolog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Downloader using get.
func New(get Getter, opts Options, logger zerolog.Logger) *Downloader {
	return &Downloader{get: get, opts: opts, log: logger, sleep: sleepCtx}
}

// RunFile reads the index at path and downloads its items.
func (d *Downloader) RunFile(ctx context.Context, path string) (Result, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: read index: %w", err)
	}
	return d.Run(ctx, doc)
}

// Run downloads every item of doc. Only a bad index, an unusable output
// directory or cancellation end the run early.
func (d *Downloader) Run(ctx context.Context, doc []byte) (Result, error) {
	items, err := ParseItems(doc)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(d.opts.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("fetch: create output dir: %w", err)
	}

	var res Result
	group := ""
	for _, it := range items {
		if it.Group != group {
			group = it.Group
			d.log.Info().Str("group", group).Msg("Processing group")
		}
		d.log.Info().Str("code", it.Code).Str("url", it.Link).Msg("Fetching page")

		if out, err := d.save(ctx, it); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			d.log.Warn().Err(err).Str("code", it.Code).Msg("Failed to fetch page")
		} else {
			res.Saved++
			d.log.Info().Str("code", it.Code).Str("file", out).Msg("Saved page")
		}

		if err := d.sleep(ctx, d.opts.Delay); err != nil {
			return res, err
		}
	}
	d.log.Info().Int("saved", res.Saved).Int("failed", res.Failed).Msg("All pages processed")
	return res, nil
}

func (d *Downloader) save(ctx context.Context, it Item) (string, error) {
	body, err := d.get.Fetch(ctx, it.Link)
	if err != nil {
		return "", err
	}
	out := filepath.Join(d.opts.OutputDir, httpds.SafeFilename(it.Code)+".html")
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
