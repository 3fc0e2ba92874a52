package translation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/canvas"
	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/storage"
)

// Orchestrator turns finished selections into zones: one translation request
// per selection, one zone per non-empty pair in the response.
type Orchestrator struct {
	store      *storage.TranslationStore
	translator Translator

	settingsMu sync.RWMutex
	settings   models.Settings

	wg      sync.WaitGroup
	pending atomic.Int64

	noticesMu sync.Mutex
	notices   []Notice
}

const (
	NoticeNoText = "no_text"
	NoticeError  = "error"
)

// MaxNotices bounds the notices kept for clients; older ones are dropped.
const MaxNotices = 20

// Notice reports a dispatched selection that created no zones.
type Notice struct {
	ImageID string    `json:"image"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func NewOrchestrator(store *storage.TranslationStore, translator Translator) *Orchestrator {
	return &Orchestrator{
		store:      store,
		translator: translator,
		settings:   models.DefaultSettings(),
	}
}

func (o *Orchestrator) Settings() models.Settings {
	o.settingsMu.RLock()
	defer o.settingsMu.RUnlock()
	return o.settings
}

// SetSettings replaces the settings sent with subsequent requests.
func (o *Orchestrator) SetSettings(s models.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	o.settingsMu.Lock()
	o.settings = s
	o.settingsMu.Unlock()
	return nil
}

// HandleSelection translates crop and appends a zone to imageID for every
// pair with both texts set. It returns the number of zones created.
func (o *Orchestrator) HandleSelection(ctx context.Context, imageID string, crop canvas.Crop) (int, error) {
	req := Request{
		ImageData: crop.DataURL(),
		Settings:  o.Settings(),
	}

	slog.Info("Translating selection", "image", imageID, "bounds", crop.Bounds, "source", crop.Source)
	resp, err := o.translator.Translate(ctx, req)
	if err != nil {
		slog.Error("Translation failed", "image", imageID, "err", err)
		return 0, fmt.Errorf("failed to translate selection: %w", err)
	}

	if len(resp.Data) == 0 {
		slog.Warn("No text found in the selected area", "image", imageID)
		return 0, ErrNoTextFound
	}

	created := 0
	for _, pair := range resp.Data {
		if pair.OriginalText == "" || pair.TranslatedText == "" {
			continue
		}
		order, ok := o.store.CreateZone(imageID, models.Zone{
			CropImage:       crop.Data,
			CropContentType: crop.ContentType,
			OriginalText:    pair.OriginalText,
			TranslatedText:  pair.TranslatedText,
			Translating:     false,
			Translated:      true,
		})
		if !ok {
			// image removed while the request was in flight
			break
		}
		slog.Debug("Zone created", "image", imageID, "order", order)
		created++
	}
	return created, nil
}

// Dispatch runs HandleSelection on its own goroutine. Selections that end
// without zones are recorded as notices.
func (o *Orchestrator) Dispatch(imageID string, crop canvas.Crop) {
	o.wg.Add(1)
	o.pending.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.pending.Add(-1)

		created, err := o.HandleSelection(context.Background(), imageID, crop)
		switch {
		case errors.Is(err, ErrNoTextFound):
			o.notify(imageID, NoticeNoText, "No text found in the selected area")
		case err != nil:
			o.notify(imageID, NoticeError, "Translation failed: "+err.Error())
		default:
			slog.Info("Selection translated", "image", imageID, "zones", created)
		}
	}()
}

func (o *Orchestrator) notify(imageID, kind, message string) {
	o.noticesMu.Lock()
	defer o.noticesMu.Unlock()
	o.notices = append(o.notices, Notice{ImageID: imageID, Kind: kind, Message: message, Time: time.Now()})
	if len(o.notices) > MaxNotices {
		o.notices = slices.Delete(o.notices, 0, len(o.notices)-MaxNotices)
	}
}

// Notices returns the recorded notices, oldest first.
func (o *Orchestrator) Notices() []Notice {
	o.noticesMu.Lock()
	defer o.noticesMu.Unlock()
	return slices.Clone(o.notices)
}

// ClearNotices drops every recorded notice.
func (o *Orchestrator) ClearNotices() {
	o.noticesMu.Lock()
	defer o.noticesMu.Unlock()
	o.notices = nil
}

// TranslateImage sends the whole uploaded image through HandleSelection.
func (o *Orchestrator) TranslateImage(ctx context.Context, imageID string) (int, error) {
	img, ok := o.store.Image(imageID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	}
	return o.HandleSelection(ctx, imageID, canvas.Crop{
		Data:        img.Data,
		ContentType: img.ContentType,
		Source:      image.Rect(0, 0, img.Width, img.Height),
	})
}

// Pending returns the number of dispatched requests still in flight.
func (o *Orchestrator) Pending() int {
	return int(o.pending.Load())
}

// Wait blocks until every dispatched request has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
