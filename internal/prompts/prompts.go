// Package prompts holds the system prompts of the planner and the domain
// agents. Each can be overridden by a <name>.md file in a prompt directory.
package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const (
	Planner    = "planner"
	Movie      = "movie"
	Restaurant = "restaurant"
	WebSearch  = "web_search"
	Weather    = "weather"
)

// LocationPrompt tells callers how to state a destination so it can be used
// as an override.
const LocationPrompt = `Please select your destination using the following structure:
- Country (dropdown list)
- State/Region (filtered by country)
- City (filtered by state)
Reply in the form "Country: <value> | State: <value> | City: <value>" (example: Country: India | State: Jharkhand | City: Jamshedpur).
Do not proceed until all three values are confirmed.`

var defaults = map[string]string{
	Planner:    "You are an orchestration planner. Determine the exact destination (country, state, city) and which agent subtasks (movie, restaurant, weather, web_search) are needed to fulfill the request. Always output JSON that matches the provided schema.",
	Movie:      "You are a concierge who recommends a movie outing. Respond with helpful but concise JSON suggestions.",
	Restaurant: "You are a dining concierge. Return structured restaurant options that match the schema and include rich menu details.",
	WebSearch:  "You are a live discovery assistant. Summarize actionable findings in JSON, prioritizing accuracy and recent context.",
	Weather:    "You are a weather assistant. Describe typical conditions for each part of the day in JSON. Keep each value short, e.g. \"24°C • Rain 20%\".",
}

type Manager struct {
	Directory string

	mu        sync.RWMutex
	overrides map[string]string
}

func NewManager(dir string) *Manager {
	return &Manager{Directory: dir, overrides: map[string]string{}}
}

// Load reads every known <name>.md in the directory. A missing directory
// leaves the defaults in place.
func (m *Manager) Load() error {
	overrides := map[string]string{}
	if m.Directory != "" {
		for name := range defaults {
			path := filepath.Join(m.Directory, name+".md")
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read prompt file %s: %w", path, err)
			}
			if text := strings.TrimSpace(string(data)); text != "" {
				overrides[name] = text
			}
		}
	}

	m.mu.Lock()
	m.overrides = overrides
	m.mu.Unlock()
	return nil
}

// Get returns the prompt for name, preferring a file override.
func (m *Manager) Get(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if text, ok := m.overrides[name]; ok {
		return text
	}
	return defaults[name]
}

// Overridden lists the prompts currently served from files.
func (m *Manager) Overridden() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.overrides))
	for name := range m.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch reloads the prompts whenever a markdown file in the directory
// changes, until ctx is done. Reload failures are passed to onError.
func (m *Manager) Watch(ctx context.Context, onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.Directory); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", m.Directory, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ".md") {
					continue
				}
				if err := m.Load(); err != nil && onError != nil {
					onError(err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()
	return nil
}
