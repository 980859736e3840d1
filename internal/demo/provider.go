package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

// Provider serves the sample result. When a file is configured its content
// replaces the built-in payload and is reloaded on change.
type Provider struct {
	path string

	mu      sync.RWMutex
	payload []byte
}

func NewProvider(path string) (*Provider, error) {
	p := &Provider{path: path, payload: []byte(samplePayload)}
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload reads the sample file again. A payload that does not decode keeps
// the previous one.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	b, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read sample %s: %w", p.path, err)
	}
	var parsed analysis.Result
	if err := json.Unmarshal(b, &parsed); err != nil {
		return fmt.Errorf("decode sample %s: %w", p.path, err)
	}
	p.mu.Lock()
	p.payload = b
	p.mu.Unlock()
	return nil
}

// Sample decodes a fresh copy of the payload on every call.
func (p *Provider) Sample() *analysis.Result {
	p.mu.RLock()
	b := p.payload
	p.mu.RUnlock()

	var res analysis.Result
	if err := json.Unmarshal(b, &res); err != nil {
		log.WithError(err).Warn("sample payload does not decode")
		return &analysis.Result{}
	}
	return &res
}

// Payload returns the raw JSON of the sample.
func (p *Provider) Payload() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]byte(nil), p.payload...)
}

// Watch reloads the sample file on writes until ctx ends. The parent
// directory is watched so editors that replace the file are seen too.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("watch %s: %w", p.path, err)
	}
	target := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := p.Reload(); err != nil {
					log.WithError(err).Warn("sample reload failed")
					continue
				}
				log.WithField("path", p.path).Info("sample payload reloaded")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("sample watcher error")
		}
	}
}
