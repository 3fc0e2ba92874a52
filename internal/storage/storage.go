package storage

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/natsort"
)

// EventKind identifies what changed in the store.
type EventKind int

const (
	EventImagesChanged EventKind = iota
	EventImageRemoved
	EventActiveChanged
	EventZoneCreated
	EventZoneUpdated
	EventZoneRemoved
	EventZonesCleared
)

func (k EventKind) String() string {
	switch k {
	case EventImagesChanged:
		return "images_changed"
	case EventImageRemoved:
		return "image_removed"
	case EventActiveChanged:
		return "active_changed"
	case EventZoneCreated:
		return "zone_created"
	case EventZoneUpdated:
		return "zone_updated"
	case EventZoneRemoved:
		return "zone_removed"
	case EventZonesCleared:
		return "zones_cleared"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after a mutation has been applied.
// ImageID is empty for workspace-wide events.
type Event struct {
	Kind    EventKind
	ImageID string
	Order   int
}

// Listener is called synchronously, outside the store lock.
type Listener func(Event)

// Workspace is a point-in-time copy of the store contents.
type Workspace struct {
	Images []models.Image
	Zones  map[string][]models.Zone
	Active string
}

// TranslationStore holds the uploaded images and, per image, the ordered list
// of translated zones.
//
// Zone operations on an unknown image are silent no-ops reported through the
// boolean results, so stale references from a client (an image removed while
// a translation was in flight) never fault.
type TranslationStore struct {
	images       map[string]*models.Image
	translations map[string][]models.Zone
	displayOrder []string
	active       string

	listeners    map[int]Listener
	nextListener int

	mu sync.RWMutex
}

func New() *TranslationStore {
	return &TranslationStore{
		images:       make(map[string]*models.Image),
		translations: make(map[string][]models.Zone),
		listeners:    make(map[int]Listener),
	}
}

// Subscribe registers fn for every future event and returns a function that
// removes it.
func (s *TranslationStore) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *TranslationStore) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

// AddImages stores the uploads keyed by filename. Re-uploading an existing
// name replaces the image and drops its zones. It returns the ids that were
// stored.
func (s *TranslationStore) AddImages(files ...models.Upload) []string {
	var added []string
	var events []Event

	s.mu.Lock()
	now := time.Now()
	for _, f := range files {
		if f.Name == "" {
			slog.Warn("Skipping upload without a filename")
			continue
		}
		if _, exists := s.images[f.Name]; exists {
			slog.Info("Replacing image", "id", f.Name)
		}
		delete(s.translations, f.Name)
		s.images[f.Name] = &models.Image{
			ID:          f.Name,
			Data:        f.Data,
			ContentType: f.ContentType,
			Width:       f.Width,
			Height:      f.Height,
			UploadedAt:  now,
		}
		added = append(added, f.Name)
	}
	if len(added) > 0 {
		s.reorder()
		events = append(events, Event{Kind: EventImagesChanged})
		if s.active == "" {
			s.active = s.displayOrder[0]
			events = append(events, Event{Kind: EventActiveChanged, ImageID: s.active})
		}
	}
	s.mu.Unlock()

	s.emit(events...)
	return added
}

// reorder recomputes the natural-sort display order. Callers hold the lock.
func (s *TranslationStore) reorder() {
	ids := make([]string, 0, len(s.images))
	for id := range s.images {
		ids = append(ids, id)
	}
	natsort.Sort(ids)
	for i, id := range ids {
		s.images[id].DisplayOrder = i
	}
	s.displayOrder = ids
}

// SetAlias sets the alias used by the {aliasName} export placeholder.
func (s *TranslationStore) SetAlias(imageID, alias string) bool {
	s.mu.Lock()
	img, ok := s.images[imageID]
	if ok {
		img.Alias = alias
	}
	s.mu.Unlock()

	if ok {
		s.emit(Event{Kind: EventImagesChanged, ImageID: imageID})
	}
	return ok
}

// RemoveImage deletes the image and its zones. When the removed image was
// active, the first remaining image in display order becomes active.
func (s *TranslationStore) RemoveImage(imageID string) bool {
	s.mu.Lock()
	if _, ok := s.images[imageID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.images, imageID)
	delete(s.translations, imageID)
	s.reorder()

	events := []Event{{Kind: EventImageRemoved, ImageID: imageID}}
	if s.active == imageID {
		s.active = ""
		if len(s.displayOrder) > 0 {
			s.active = s.displayOrder[0]
		}
		events = append(events, Event{Kind: EventActiveChanged, ImageID: s.active})
	}
	s.mu.Unlock()

	s.emit(events...)
	return true
}

// Select makes imageID the active image.
func (s *TranslationStore) Select(imageID string) bool {
	s.mu.Lock()
	_, ok := s.images[imageID]
	changed := ok && s.active != imageID
	if changed {
		s.active = imageID
	}
	s.mu.Unlock()

	if changed {
		s.emit(Event{Kind: EventActiveChanged, ImageID: imageID})
	}
	return ok
}

// Active returns the active image id, if any.
func (s *TranslationStore) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}

// Image returns a copy of the image metadata and data.
func (s *TranslationStore) Image(imageID string) (models.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[imageID]
	if !ok {
		return models.Image{}, false
	}
	return *img, true
}

// Images returns all images in display order.
func (s *TranslationStore) Images() []models.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Image, 0, len(s.displayOrder))
	for _, id := range s.displayOrder {
		result = append(result, *s.images[id])
	}
	return result
}

// CreateZone appends zone to the image's list with order = current count + 1
// and returns that order. Unknown images are ignored.
func (s *TranslationStore) CreateZone(imageID string, zone models.Zone) (int, bool) {
	s.mu.Lock()
	if _, ok := s.images[imageID]; !ok {
		s.mu.Unlock()
		slog.Debug("Ignoring zone for unknown image", "id", imageID)
		return 0, false
	}
	zone.Order = len(s.translations[imageID]) + 1
	s.translations[imageID] = append(s.translations[imageID], zone)
	s.mu.Unlock()

	s.emit(Event{Kind: EventZoneCreated, ImageID: imageID, Order: zone.Order})
	return zone.Order, true
}

// UpdateZone merges patch into the zones whose order matches. Orders are
// identities that can repeat after removals, so every match is patched.
func (s *TranslationStore) UpdateZone(imageID string, order int, patch models.ZonePatch) bool {
	s.mu.Lock()
	zones := s.translations[imageID]
	matched := false
	for i := range zones {
		if zones[i].Order == order {
			patch.Apply(&zones[i])
			matched = true
		}
	}
	s.mu.Unlock()

	if matched {
		s.emit(Event{Kind: EventZoneUpdated, ImageID: imageID, Order: order})
	}
	return matched
}

// RemoveZone removes the zone at the positional index. The remaining zones
// keep their order values.
func (s *TranslationStore) RemoveZone(imageID string, index int) bool {
	s.mu.Lock()
	zones, ok := s.translations[imageID]
	if !ok || index < 0 || index >= len(zones) {
		s.mu.Unlock()
		return false
	}
	removed := zones[index].Order
	s.translations[imageID] = slices.Delete(slices.Clone(zones), index, index+1)
	s.mu.Unlock()

	s.emit(Event{Kind: EventZoneRemoved, ImageID: imageID, Order: removed})
	return true
}

// ClearZones empties the zone list of a single image.
func (s *TranslationStore) ClearZones(imageID string) bool {
	s.mu.Lock()
	_, ok := s.images[imageID]
	if ok {
		s.translations[imageID] = []models.Zone{}
	}
	s.mu.Unlock()

	if ok {
		s.emit(Event{Kind: EventZonesCleared, ImageID: imageID})
	}
	return ok
}

// ClearAllZones empties the translations of every image.
func (s *TranslationStore) ClearAllZones() {
	s.mu.Lock()
	s.translations = make(map[string][]models.Zone)
	s.mu.Unlock()

	s.emit(Event{Kind: EventZonesCleared})
}

// Zones returns a copy of the image's zones in list order.
func (s *TranslationStore) Zones(imageID string) []models.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.translations[imageID])
}

// Zone returns the zone at the positional index.
func (s *TranslationStore) Zone(imageID string, index int) (models.Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zones := s.translations[imageID]
	if index < 0 || index >= len(zones) {
		return models.Zone{}, false
	}
	return zones[index], true
}

// Snapshot copies the whole workspace. Zones only has entries for images that
// have had a zone list since the last clear.
func (s *TranslationStore) Snapshot() Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws := Workspace{
		Images: make([]models.Image, 0, len(s.displayOrder)),
		Zones:  make(map[string][]models.Zone, len(s.translations)),
		Active: s.active,
	}
	for _, id := range s.displayOrder {
		ws.Images = append(ws.Images, *s.images[id])
	}
	for id, zones := range s.translations {
		ws.Zones[id] = slices.Clone(zones)
	}
	return ws
}
