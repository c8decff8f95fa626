package notification

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultLang is the fallback language when a message has no translation
const DefaultLang = "en"

type messageTemplate struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type compiledMessage struct {
	title *template.Template
	body  *template.Template
}

// Catalog holds localized notification message templates, keyed by language
// and event name. Catalogs load from a directory of YAML files, one file per
// language ("en.yaml", "zh-TW.yaml"). Templates are presentation data, not
// auth configuration, so they may be reloaded at runtime via Watch.
type Catalog struct {
	dir    string
	logger *logrus.Entry

	mu       sync.RWMutex
	messages map[string]map[string]*compiledMessage
	watcher  *fsnotify.Watcher
}

// LoadCatalog reads all language files from dir
func LoadCatalog(dir string) (*Catalog, error) {
	c := &Catalog{
		dir:    dir,
		logger: logrus.WithField("component", "notification-catalog"),
	}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reload() error {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list catalog files: %w", err)
	}

	messages := make(map[string]map[string]*compiledMessage)
	for _, file := range files {
		lang := strings.TrimSuffix(filepath.Base(file), ".yaml")

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read catalog file %s: %w", file, err)
		}

		var raw map[string]messageTemplate
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse catalog file %s: %w", file, err)
		}

		compiled := make(map[string]*compiledMessage, len(raw))
		for event, tmpl := range raw {
			title, err := template.New(event + ".title").Parse(tmpl.Title)
			if err != nil {
				return fmt.Errorf("bad title template %s/%s: %w", lang, event, err)
			}
			body, err := template.New(event + ".body").Parse(tmpl.Body)
			if err != nil {
				return fmt.Errorf("bad body template %s/%s: %w", lang, event, err)
			}
			compiled[event] = &compiledMessage{title: title, body: body}
		}
		messages[lang] = compiled
	}

	c.mu.Lock()
	c.messages = messages
	c.mu.Unlock()
	return nil
}

// Render resolves the (lang, event) templates and executes them with data,
// falling back to DefaultLang when the language has no translation
func (c *Catalog) Render(lang, event string, data interface{}) (title, body string, err error) {
	c.mu.RLock()
	msg := c.lookup(lang, event)
	c.mu.RUnlock()

	if msg == nil {
		return "", "", fmt.Errorf("no template for event %q in %q or %q", event, lang, DefaultLang)
	}

	var titleBuf, bodyBuf bytes.Buffer
	if err := msg.title.Execute(&titleBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render title for %q: %w", event, err)
	}
	if err := msg.body.Execute(&bodyBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render body for %q: %w", event, err)
	}
	return titleBuf.String(), bodyBuf.String(), nil
}

// lookup must be called with the read lock held
func (c *Catalog) lookup(lang, event string) *compiledMessage {
	if byEvent, ok := c.messages[lang]; ok {
		if msg, ok := byEvent[event]; ok {
			return msg
		}
	}
	if byEvent, ok := c.messages[DefaultLang]; ok {
		return byEvent[event]
	}
	return nil
}

// Languages returns the loaded languages
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		out = append(out, lang)
	}
	return out
}

// Watch reloads the catalog whenever a file in its directory changes.
// Call Close to stop watching.
func (c *Catalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch catalog dir: %w", err)
	}
	c.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
					if err := c.reload(); err != nil {
						// A half-written file must not take the old catalog down.
						c.logger.WithError(err).Warn("catalog reload failed, keeping previous templates")
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops the watcher, if any
func (c *Catalog) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
