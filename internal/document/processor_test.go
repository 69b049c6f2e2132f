package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

type fakeEngine struct {
	text  string
	err   error
	calls int
	seen  string
	langs []string
	// saw records whether the processed file existed during recognition
	saw bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, path string, languages ...string) (string, error) {
	f.calls++
	f.seen = path
	f.langs = languages
	_, err := os.Stat(path)
	f.saw = err == nil
	return f.text, f.err
}

type memoryCache struct {
	entries map[string]string
	getErr  error
	sets    int
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, text string) error {
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[key] = text
	m.sets++
	return nil
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, "upload.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func newTestProcessor(t *testing.T, engine *fakeEngine) (*Processor, string) {
	t.Helper()

	processedDir := t.TempDir()
	return &Processor{Engine: engine, ProcessedDir: processedDir, Languages: []string{"eng"}}, processedDir
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}

func TestProcessSuccess(t *testing.T) {
	engine := &fakeEngine{text: "Name: Jane Doe"}
	p, processedDir := newTestProcessor(t, engine)
	src := writePNG(t, t.TempDir())

	text, err := p.Process(context.Background(), src)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if text != "Name: Jane Doe" {
		t.Fatalf("unexpected text %q", text)
	}
	if !engine.saw {
		t.Fatalf("engine should see the processed file")
	}
	if filepath.Dir(engine.seen) != processedDir {
		t.Fatalf("processed file should live in %s, got %s", processedDir, engine.seen)
	}
	if len(engine.langs) != 1 || engine.langs[0] != "eng" {
		t.Fatalf("unexpected languages %v", engine.langs)
	}
	assertEmptyDir(t, processedDir)
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("original upload must be kept: %v", err)
	}
}

func TestProcessCorruptImage(t *testing.T) {
	engine := &fakeEngine{text: "unused"}
	p, processedDir := newTestProcessor(t, engine)
	src := filepath.Join(t.TempDir(), "upload.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := p.Process(context.Background(), src)

	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
	if text != "" {
		t.Fatalf("no partial text expected, got %q", text)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not run on a corrupt image")
	}
	assertEmptyDir(t, processedDir)
}

func TestProcessEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("tesseract crashed")}
	p, processedDir := newTestProcessor(t, engine)

	_, err := p.Process(context.Background(), writePNG(t, t.TempDir()))

	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
	if !engine.saw {
		t.Fatalf("engine should have been called with the processed file")
	}
	assertEmptyDir(t, processedDir)
}

func TestProcessMissingProcessedDir(t *testing.T) {
	engine := &fakeEngine{}
	p := &Processor{Engine: engine, ProcessedDir: filepath.Join(t.TempDir(), "missing")}

	if _, err := p.Process(context.Background(), writePNG(t, t.TempDir())); !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
}

func TestProcessUsesCache(t *testing.T) {
	engine := &fakeEngine{text: "Income: 45,000"}
	p, processedDir := newTestProcessor(t, engine)
	c := &memoryCache{}
	p.Cache = c
	src := writePNG(t, t.TempDir())

	for i := 0; i < 2; i++ {
		text, err := p.Process(context.Background(), src)
		if err != nil {
			t.Fatalf("Process #%d: %v", i, err)
		}
		if text != "Income: 45,000" {
			t.Fatalf("Process #%d: unexpected text %q", i, text)
		}
	}

	if engine.calls != 1 {
		t.Fatalf("expected a single OCR run, got %d", engine.calls)
	}
	if c.sets != 1 {
		t.Fatalf("expected one cache write, got %d", c.sets)
	}
	assertEmptyDir(t, processedDir)
}

func TestProcessCacheErrorFallsBack(t *testing.T) {
	engine := &fakeEngine{text: "Name: Jane Doe"}
	p, _ := newTestProcessor(t, engine)
	p.Cache = &memoryCache{getErr: errors.New("connection refused")}

	text, err := p.Process(context.Background(), writePNG(t, t.TempDir()))
	if err != nil {
		t.Fatalf("cache errors must not fail processing: %v", err)
	}
	if text != "Name: Jane Doe" || engine.calls != 1 {
		t.Fatalf("expected OCR result, got %q after %d calls", text, engine.calls)
	}
}

func TestProcessDoesNotCacheFailures(t *testing.T) {
	engine := &fakeEngine{err: errors.New("boom")}
	p, _ := newTestProcessor(t, engine)
	c := &memoryCache{}
	p.Cache = c

	if _, err := p.Process(context.Background(), writePNG(t, t.TempDir())); err == nil {
		t.Fatalf("expected error")
	}
	if c.sets != 0 {
		t.Fatalf("failures must not be cached")
	}
}
