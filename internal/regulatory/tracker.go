package regulatory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
)

// changeFile is the on-disk layout of a regulatory change feed
type changeFile struct {
	Changes []regulatory.Change `yaml:"changes"`
}

// FileTracker serves upcoming regulatory changes from a YAML feed. The
// feed is re-read by Refresh; GetUpcomingChanges only reads the snapshot.
type FileTracker struct {
	path      string
	lookAhead time.Duration
	bus       *events.Bus
	logger    *logger.Logger
	now       func() time.Time

	mu      sync.RWMutex
	changes []regulatory.Change
	digest  [sha256.Size]byte
}

// NewFileTracker creates a tracker over path. When bus is not nil a
// regulations.updated event is emitted every time Refresh sees new content.
func NewFileTracker(path string, lookAhead time.Duration, bus *events.Bus, log *logger.Logger) *FileTracker {
	if log == nil {
		log = logger.Nop()
	}
	return &FileTracker{
		path:      path,
		lookAhead: lookAhead,
		bus:       bus,
		logger:    log.Component("regulatory_tracker"),
		now:       time.Now,
	}
}

// Refresh re-reads the feed and reports whether its content changed
func (t *FileTracker) Refresh(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return false, fmt.Errorf("failed to read regulatory feed: %w", err)
	}

	digest := sha256.Sum256(data)
	t.mu.RLock()
	same := digest == t.digest
	t.mu.RUnlock()
	if same {
		return false, nil
	}

	var feed changeFile
	if err := yaml.Unmarshal(data, &feed); err != nil {
		return false, fmt.Errorf("failed to parse regulatory feed %s: %w", t.path, err)
	}
	for i, c := range feed.Changes {
		if c.ID == "" || c.Framework == "" {
			return false, fmt.Errorf("regulatory feed %s: change %d needs an id and a framework", t.path, i)
		}
	}
	sort.SliceStable(feed.Changes, func(i, j int) bool {
		return feed.Changes[i].EffectiveDate.Before(feed.Changes[j].EffectiveDate)
	})

	t.mu.Lock()
	t.changes = feed.Changes
	t.digest = digest
	t.mu.Unlock()

	t.logger.With("changes", len(feed.Changes)).Info("Regulatory feed loaded")

	if t.bus != nil {
		t.bus.Emit(events.RegulationsUpdated, events.RegulationsPayload{
			Jurisdictions: jurisdictionsOf(feed.Changes),
			Changes:       feed.Changes,
		})
	}
	return true, nil
}

// GetUpcomingChanges returns changes for the given jurisdictions that take
// effect between now and the look-ahead horizon, earliest first. An empty
// jurisdiction list matches every change.
func (t *FileTracker) GetUpcomingChanges(ctx context.Context, jurisdictions []string) ([]regulatory.Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := t.now()
	horizon := now.Add(t.lookAhead)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []regulatory.Change
	for _, c := range t.changes {
		if c.EffectiveDate.Before(now) || c.EffectiveDate.After(horizon) {
			continue
		}
		if len(jurisdictions) > 0 && !containsFold(jurisdictions, c.Jurisdiction) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func jurisdictionsOf(changes []regulatory.Change) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range changes {
		if _, ok := seen[c.Jurisdiction]; ok || c.Jurisdiction == "" {
			continue
		}
		seen[c.Jurisdiction] = struct{}{}
		out = append(out, c.Jurisdiction)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
