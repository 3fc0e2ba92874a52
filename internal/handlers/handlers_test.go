package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/storage"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
)

type stubTranslator struct {
	resp *translation.Response
	err  error
}

func (s *stubTranslator) Translate(ctx context.Context, req translation.Request) (*translation.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func hola() *translation.Response {
	return &translation.Response{Data: []models.TextPair{{OriginalText: "こんにちは", TranslatedText: "hola"}}}
}

func newTestHandler(t *testing.T, translator translation.Translator) (*Handler, *http.ServeMux) {
	t.Helper()
	store := storage.New()
	h := New(store, translation.NewOrchestrator(store, translator))
	h.SetStaticDir(t.TempDir())
	mux := http.NewServeMux()
	h.Routes(mux)
	return h, mux
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Unable to encode png: %v", err)
	}
	return buf.Bytes()
}

type testFile struct {
	name        string
	contentType string
	data        []byte
}

func uploadRequest(t *testing.T, files ...testFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, f.name))
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("Unable to create part: %v", err)
		}
		part.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func seedImage(t *testing.T, h *Handler, name string) {
	t.Helper()
	h.store.AddImages(models.Upload{Name: name, ContentType: "image/png", Data: pngData(t, 1600, 800), Width: 1600, Height: 800})
}

func TestUploadAndList(t *testing.T) {
	_, mux := newTestHandler(t, &stubTranslator{resp: hola()})
	data := pngData(t, 16, 8)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t,
		testFile{"page10.png", "image/png", data},
		testFile{"page2.png", "application/octet-stream", data},
		testFile{"anim.gif", "image/gif", data},
	))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Images) != 2 || len(resp.Rejected) != 1 || resp.Rejected[0].Name != "anim.gif" {
		t.Errorf("Unexpected upload response %+v", resp)
	}

	rec = serve(mux, "GET", "/api/images", nil)
	var list []imageView
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("Unable to decode list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "page2.png" || list[1].ID != "page10.png" {
		t.Fatalf("Expected natural order [page2.png page10.png], got %+v", list)
	}
	if !list[0].Active || list[1].Active {
		t.Error("Expected the first image in display order to be active")
	}
	if list[0].Width != 16 || list[0].Height != 8 {
		t.Errorf("Expected 16x8, got %dx%d", list[0].Width, list[0].Height)
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name  string
		files []testFile
	}{
		{"unsupported type only", []testFile{{"a.gif", "image/gif", []byte("GIF89a")}}},
		{"too large", []testFile{{"big.png", "image/png", make([]byte, 8<<20+1)}}},
		{"undecodable", []testFile{{"fake.png", "image/png", []byte("not an image")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mux := newTestHandler(t, &stubTranslator{})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, uploadRequest(t, tt.files...))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
			if len(h.store.Images()) != 0 {
				t.Error("Expected rejected files to stay out of the store")
			}
		})
	}
}

func TestUploadTooManyFiles(t *testing.T) {
	_, mux := newTestHandler(t, &stubTranslator{})
	files := make([]testFile, 101)
	for i := range files {
		files[i] = testFile{fmt.Sprintf("p%d.png", i), "image/png", []byte("x")}
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, files...))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Too many files") {
		t.Errorf("Expected too many files error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestUploadFromURL(t *testing.T) {
	data := pngData(t, 4, 4)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer remote.Close()

	h, mux := newTestHandler(t, &stubTranslator{})
	rec := serve(mux, "POST", "/api/upload", map[string]string{"image_url": remote.URL + "/scans/page7.png"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := h.store.Image("page7.png"); !ok {
		t.Error("Expected page7.png in the store")
	}

	rec = serve(mux, "POST", "/api/upload", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without image_url, got %d", rec.Code)
	}
}

func TestGestureCreatesZone(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{resp: hola()})
	seedImage(t, h, "page1.png")

	for _, ev := range []map[string]any{
		{"type": "down", "x": 100, "y": 150, "button": 0},
		{"type": "move", "x": 300, "y": 250},
		{"type": "up"},
	} {
		if rec := serve(mux, "POST", "/api/canvas/pointer", ev); rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 for %v, got %d", ev["type"], rec.Code)
		}
	}
	h.orchestrator.Wait()

	rec := serve(mux, "GET", "/api/images/page1.png/zones", nil)
	var zones []zoneView
	if err := json.Unmarshal(rec.Body.Bytes(), &zones); err != nil {
		t.Fatalf("Unable to decode zones: %v", err)
	}
	if len(zones) != 1 || zones[0].Order != 1 || zones[0].TranslatedText != "hola" {
		t.Fatalf("Unexpected zones %+v", zones)
	}
	if zones[0].CropURL != "/api/images/page1.png/zones/0/crop" {
		t.Errorf("Unexpected crop url %s", zones[0].CropURL)
	}

	rec = serve(mux, "GET", zones[0].CropURL, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("Expected png crop, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	crop, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Unable to decode crop: %v", err)
	}
	if b := crop.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("Expected 200x100 crop, got %v", b)
	}
}

func TestPointerInvalidType(t *testing.T) {
	_, mux := newTestHandler(t, &stubTranslator{})
	if rec := serve(mux, "POST", "/api/canvas/pointer", map[string]any{"type": "hover"}); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestZoneEditAndRemove(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "p.png")
	for _, s := range []string{"a", "b", "c"} {
		h.store.CreateZone("p.png", models.Zone{OriginalText: s, TranslatedText: s, Translated: true})
	}

	rec := serve(mux, "PATCH", "/api/images/p.png/zones/2", map[string]string{"translated_text": "edited"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if z, _ := h.store.Zone("p.png", 1); z.TranslatedText != "edited" || z.OriginalText != "b" {
		t.Errorf("Expected only the translated text to change, got %+v", z)
	}

	tests := []struct {
		method, target string
		expected       int
	}{
		{"DELETE", "/api/images/p.png/zones/0", http.StatusNoContent},
		{"DELETE", "/api/images/p.png/zones/5", http.StatusNotFound},
		{"PATCH", "/api/images/p.png/zones/9", http.StatusNotFound},
		{"PATCH", "/api/images/missing.png/zones/1", http.StatusNotFound},
		{"DELETE", "/api/images/p.png/zones/abc", http.StatusBadRequest},
		{"GET", "/api/images/missing.png/zones", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := serve(mux, tt.method, tt.target, map[string]string{"translated_text": "x"})
		if rec.Code != tt.expected {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.target, tt.expected, rec.Code)
		}
	}

	zones := h.store.Zones("p.png")
	if len(zones) != 2 || zones[0].Order != 2 || zones[1].Order != 3 {
		t.Errorf("Expected orders [2 3] after removal, got %+v", zones)
	}

	if rec := serve(mux, "DELETE", "/api/images/p.png/zones", nil); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if len(h.store.Zones("p.png")) != 0 {
		t.Error("Expected zones to be cleared")
	}
}

func TestClearAllZones(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "a.png")
	seedImage(t, h, "b.png")
	h.store.CreateZone("a.png", models.Zone{OriginalText: "x", TranslatedText: "y"})
	h.store.CreateZone("b.png", models.Zone{OriginalText: "x", TranslatedText: "y"})

	if rec := serve(mux, "DELETE", "/api/zones", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if ws := h.store.Snapshot(); len(ws.Zones) != 0 {
		t.Errorf("Expected no zones, got %+v", ws.Zones)
	}
}

func TestTranslateImage(t *testing.T) {
	tests := []struct {
		name       string
		translator *stubTranslator
		target     string
		expected   int
		contains   string
	}{
		{"creates zones", &stubTranslator{resp: hola()}, "/api/images/page1.png/translate", http.StatusOK, `"created":1`},
		{"no text", &stubTranslator{resp: &translation.Response{}}, "/api/images/page1.png/translate", http.StatusOK, "No text found"},
		{"backend down", &stubTranslator{err: errors.New("connection refused")}, "/api/images/page1.png/translate", http.StatusBadGateway, "connection refused"},
		{"unknown image", &stubTranslator{resp: hola()}, "/api/images/nope.png/translate", http.StatusNotFound, "Image not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mux := newTestHandler(t, tt.translator)
			seedImage(t, h, "page1.png")

			rec := serve(mux, "POST", tt.target, nil)
			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("Expected body to contain %q, got %s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestImageSelectAliasAndRemove(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "a.png")
	seedImage(t, h, "b.png")

	if rec := serve(mux, "POST", "/api/images/b.png/select", nil); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if active, _ := h.store.Active(); active != "b.png" {
		t.Errorf("Expected b.png to be active, got %s", active)
	}
	if rec := serve(mux, "POST", "/api/images/zzz.png/select", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec := serve(mux, "PATCH", "/api/images/b.png", map[string]string{"alias": "Cover"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"alias":"Cover"`) {
		t.Errorf("Expected alias in response, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, "GET", "/api/images/b.png/data", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Expected image data, got %d", rec.Code)
	}

	if rec := serve(mux, "DELETE", "/api/images/b.png", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if rec := serve(mux, "GET", "/api/images/b.png", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after removal, got %d", rec.Code)
	}
	if active, _ := h.store.Active(); active != "a.png" {
		t.Errorf("Expected a.png to become active, got %s", active)
	}
}

func TestSettings(t *testing.T) {
	_, mux := newTestHandler(t, &stubTranslator{})

	var settings models.Settings
	json.Unmarshal(serve(mux, "GET", "/api/settings", nil).Body.Bytes(), &settings)
	if settings != models.DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	rec := serve(mux, "PUT", "/api/settings", map[string]any{"horizontalReadingDirection": "UP"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid direction, got %d", rec.Code)
	}

	rec = serve(mux, "PUT", "/api/settings", map[string]any{"toLanguage": "en", "keepContext": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &settings)
	expected := models.DefaultSettings()
	expected.ToLanguage = "en"
	expected.KeepContext = false
	if settings != expected {
		t.Errorf("Expected %+v, got %+v", expected, settings)
	}
}

func TestParseZoom(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
		wantErr  bool
	}{
		{`0.5`, 0.5, false},
		{`"50%"`, 0.5, false},
		{`" 75 % "`, 0.75, false},
		{`"1.25"`, 1.25, false},
		{`"abc"`, 0, true},
		{`"x%"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseZoom(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestZoomAndWheel(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	h.store.AddImages(models.Upload{Name: "tall.png", ContentType: "image/png", Data: pngData(t, 800, 2000), Width: 800, Height: 2000})

	rec := serve(mux, "POST", "/api/canvas/wheel", map[string]float64{"deltaY": 100})
	var state canvasState
	json.Unmarshal(rec.Body.Bytes(), &state)
	if state.Layout.Transform.VerticalOffset != -100 {
		t.Errorf("Expected offset -100, got %v", state.Layout.Transform.VerticalOffset)
	}

	rec = serve(mux, "PUT", "/api/canvas/zoom", map[string]string{"zoom": "50%"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &state)
	if state.Zoom != 0.5 || state.Layout.Transform.VerticalOffset != 0 {
		t.Errorf("Expected zoom 0.5 with reset offset, got %v %v", state.Zoom, state.Layout.Transform.VerticalOffset)
	}

	for _, body := range []string{`{"zoom":0}`, `{"zoom":"big"}`, `{`} {
		if rec := serve(mux, "PUT", "/api/canvas/zoom", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestViewportAndFrame(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "page1.png")

	if rec := serve(mux, "PUT", "/api/canvas/viewport", map[string]int{"width": 400, "height": 300}); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec := serve(mux, "PUT", "/api/canvas/viewport", map[string]int{"width": 0, "height": 300}); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty viewport, got %d", rec.Code)
	}

	rec := serve(mux, "GET", "/api/canvas/frame", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	frame, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Unable to decode frame: %v", err)
	}
	if b := frame.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("Expected 400x300 frame, got %v", b)
	}

	if rec := serve(mux, "GET", "/api/canvas/frame?format=bmp", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unsupported format, got %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "page1.png")
	seedImage(t, h, "page2.png")
	h.store.CreateZone("page2.png", models.Zone{OriginalText: "こんにちは", TranslatedText: "hola"})

	rec := serve(mux, "GET", "/api/export?scope=full", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Imagen 1: page2.png\n\n- hola\n\n\n" {
		t.Errorf("Unexpected export %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "translation - ") || !strings.HasSuffix(cd, `.scanlate.txt"`) || strings.Contains(cd, "/") {
		t.Errorf("Unexpected Content-Disposition %s", cd)
	}

	rec = serve(mux, "GET", "/api/export?scope=page&image=page2.png&line=%7BoriginalText%7D", nil)
	if got := rec.Body.String(); got != "Imagen 1: page2.png\n\nこんにちは\n\n\n" {
		t.Errorf("Unexpected page export %q", got)
	}

	rec = serve(mux, "GET", "/api/export?scope=page&format=json", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected json export of the active image, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	tests := []struct {
		target   string
		expected int
	}{
		{"/api/export?scope=chapter", http.StatusBadRequest},
		{"/api/export?format=docx", http.StatusBadRequest},
		{"/api/export?scope=page&image=nope.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := serve(mux, "GET", tt.target, nil); rec.Code != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.expected, rec.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, mux := newTestHandler(t, &stubTranslator{})
	tests := []struct{ method, target string }{
		{"POST", "/api/images"},
		{"GET", "/api/upload"},
		{"GET", "/api/zones"},
		{"POST", "/api/canvas/state"},
	}
	for _, tt := range tests {
		if rec := serve(mux, tt.method, tt.target, nil); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tt.method, tt.target, rec.Code)
		}
	}
}

func TestStaticImageParameter(t *testing.T) {
	data := pngData(t, 4, 4)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer remote.Close()

	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "a.png")

	rec := serve(mux, "GET", "/?image="+remote.URL+"/z.png", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("Expected redirect to /, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if active, _ := h.store.Active(); active != "z.png" {
		t.Errorf("Expected z.png to be selected, got %s", active)
	}

	if rec := serve(mux, "GET", "/../secret", nil); rec.Code == http.StatusOK {
		t.Error("Expected directory traversal to be refused")
	}
}

func dragSelection(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	for _, ev := range []map[string]any{
		{"type": "down", "x": 100, "y": 150, "button": 0},
		{"type": "move", "x": 300, "y": 250},
		{"type": "up"},
	} {
		if rec := serve(mux, "POST", "/api/canvas/pointer", ev); rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 for %v, got %d", ev["type"], rec.Code)
		}
	}
}

func TestSelectionWithoutResultReportsNotice(t *testing.T) {
	tests := []struct {
		name       string
		translator *stubTranslator
		kind       string
		contains   string
	}{
		{"no text", &stubTranslator{resp: &translation.Response{Data: []models.TextPair{}}}, translation.NoticeNoText, "No text found"},
		{"backend failure", &stubTranslator{err: errors.New("boom")}, translation.NoticeError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mux := newTestHandler(t, tt.translator)
			seedImage(t, h, "page1.png")

			dragSelection(t, mux)
			h.orchestrator.Wait()

			var state canvasState
			if err := json.Unmarshal(serve(mux, "GET", "/api/canvas/state", nil).Body.Bytes(), &state); err != nil {
				t.Fatalf("Unable to decode state: %v", err)
			}
			if len(state.Notices) != 1 {
				t.Fatalf("Expected 1 notice, got %+v", state.Notices)
			}
			n := state.Notices[0]
			if n.Kind != tt.kind || n.ImageID != "page1.png" || !strings.Contains(n.Message, tt.contains) {
				t.Errorf("Unexpected notice %+v", n)
			}
			if len(h.store.Zones("page1.png")) != 0 {
				t.Error("Expected no zones")
			}

			if rec := serve(mux, "DELETE", "/api/canvas/notices", nil); rec.Code != http.StatusNoContent {
				t.Fatalf("Expected 204, got %d", rec.Code)
			}
			rec := serve(mux, "GET", "/api/canvas/notices", nil)
			if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
				t.Errorf("Expected no notices after dismissal, got %s", got)
			}
		})
	}
}

func TestSelectReturnsCanvasState(t *testing.T) {
	h, mux := newTestHandler(t, &stubTranslator{})
	seedImage(t, h, "a.png")
	seedImage(t, h, "b.png")

	rec := serve(mux, "POST", "/api/images/b.png/select", nil)
	var state canvasState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("Unable to decode state: %v", err)
	}
	if state.ActiveImage != "b.png" || state.Zoom != 1 || !state.HasImage {
		t.Errorf("Expected full canvas state for b.png, got %+v", state)
	}
	if !strings.Contains(rec.Body.String(), `"pending_translations":0`) {
		t.Errorf("Expected pending_translations in response, got %s", rec.Body.String())
	}
}
