package resume

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleDocument = `{
  "data": {
    "basics": {"name": "Johnny", "headline": "Backend engineer", "website": {"url": "https://example.com"}},
    "summary": {"title": "About", "content": "<p>Builds <b>reliable</b> services.</p>"},
    "sections": {
      "experience": {"title": "Work", "items": [
        {"company": "Acme", "position": "Engineer", "period": "2020 - 2024", "description": "Go APIs"},
        {"company": "Secret Corp", "position": "Spy", "hidden": true}
      ]},
      "skills": {"items": [
        {"name": "Go", "proficiency": "Expert"},
        {"name": "Rust"},
        {"name": "COBOL", "hidden": "true"}
      ]},
      "projects": {"hidden": true, "items": [{"name": "Hidden project"}]},
      "education": {"columns": 2, "items": []}
    },
    "customSections": [
      {"title": "Volunteering", "content": "Mentor"},
      {"title": "Private", "hidden": true}
    ]
  }
}`

// identityText returns rich text unchanged.
type identityText struct{}

func (identityText) ToPlainText(s string) string { return s }

func TestParseOptionalFields(t *testing.T) {
	doc, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Data == nil || doc.Data.Basics == nil || doc.Data.Basics.Name != "Johnny" {
		t.Fatalf("basics not decoded: %+v", doc.Data)
	}

	sections := doc.Data.Sections
	if sections.Profiles != nil {
		t.Fatalf("absent section must stay nil")
	}
	if sections.Education == nil || sections.Education.Items == nil || len(sections.Education.Items) != 0 {
		t.Fatalf("present but empty item list must be non-nil and empty: %+v", sections.Education)
	}
	if sections.Education.Columns != 2 {
		t.Fatalf("expected columns 2, got %d", sections.Education.Columns)
	}

	skills := sections.Skills.Items
	if len(skills) != 3 || !skills[2].Hidden {
		t.Fatalf("expected string hidden flag to be coerced, got %+v", skills)
	}

	empty, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error for empty document: %v", err)
	}
	if empty.Data != nil {
		t.Fatalf("expected nil data for empty document")
	}

	if _, err := Parse([]byte(`{"data":`)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseKeepsRaw(t *testing.T) {
	in := []byte(`{"data":{"basics":{"name":"Johnny"}},"metadata":{"theme":"onyx"}}`)

	doc, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc.Raw) != string(in) {
		t.Fatalf("expected raw bytes to be kept, got %s", doc.Raw)
	}

	in[0] = ' '
	if doc.Raw[0] != '{' {
		t.Fatalf("raw bytes must not alias the input")
	}
}

func TestVisible(t *testing.T) {
	doc, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sections := doc.Data.Sections

	if got := Visible(sections.Experience); len(got) != 1 || got[0].Company != "Acme" {
		t.Fatalf("expected only the visible experience, got %+v", got)
	}
	if got := Visible(sections.Projects); len(got) != 0 {
		t.Fatalf("hidden section must yield no items, got %+v", got)
	}
	if got := Visible(sections.Profiles); got != nil {
		t.Fatalf("absent section must yield nil, got %+v", got)
	}
	if got := VisibleCustom(doc.Data.CustomSections); len(got) != 1 || got[0].Title != "Volunteering" {
		t.Fatalf("unexpected custom sections: %+v", got)
	}
}

func TestNewKnowledge(t *testing.T) {
	doc, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	k := NewKnowledge(doc, identityText{})

	if len(k.Summary) != 2 || k.Summary[1] != "Johnny · Backend engineer" {
		t.Fatalf("unexpected summary: %#v", k.Summary)
	}
	if len(k.Experience) != 1 || k.Experience[0] != "Engineer @ Acme (2020 - 2024): Go APIs" {
		t.Fatalf("unexpected experience: %#v", k.Experience)
	}
	if len(k.Projects) != 0 {
		t.Fatalf("hidden projects leaked: %#v", k.Projects)
	}
	if len(k.Skills) != 1 || k.Skills[0] != "Go (Expert), Rust" {
		t.Fatalf("unexpected skills: %#v", k.Skills)
	}

	if !NewKnowledge(nil, identityText{}).IsEmpty() {
		t.Fatalf("expected empty knowledge for nil document")
	}
}

func TestLoaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/app/resume.json":
			_, _ = w.Write([]byte(sampleDocument))
		case "/broken/resume.json":
			_, _ = w.Write([]byte(`{"data": [`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewLoader(nil)

	doc, err := loader.Load(context.Background(), srv.URL+"/app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Data.Basics.Name != "Johnny" {
		t.Fatalf("unexpected document: %+v", doc.Data.Basics)
	}

	_, err = loader.Load(context.Background(), srv.URL+"/missing/")
	var le *LoadError
	if !errors.As(err, &le) || le.StatusCode != http.StatusNotFound {
		t.Fatalf("expected load error with 404, got %v", err)
	}

	_, err = loader.Load(context.Background(), srv.URL+"/broken/")
	if !errors.As(err, &le) || le.StatusCode != 0 {
		t.Fatalf("expected parse load error, got %v", err)
	}
}

func TestLoaderCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewLoader(nil).Load(ctx, srv.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", err)
	}
	var le *LoadError
	if errors.As(err, &le) {
		t.Fatalf("cancellation must not be reported as a load error")
	}
}

func TestLoaderLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(sampleDocument), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLoader(nil)
	for _, source := range []string{dir, filepath.Join(dir, FileName)} {
		doc, err := loader.Load(context.Background(), source)
		if err != nil {
			t.Fatalf("load %s: %v", source, err)
		}
		if doc.Data.Basics.Headline != "Backend engineer" {
			t.Fatalf("unexpected document from %s", source)
		}
	}

	_, err := loader.Load(context.Background(), filepath.Join(dir, "nope.json"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected load error for missing file, got %v", err)
	}

	if _, err := loader.Load(context.Background(), " "); err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestDocumentURL(t *testing.T) {
	if got := DocumentURL("https://example.github.io/app"); got != "https://example.github.io/app/resume.json" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := DocumentURL("https://example.github.io/"); got != "https://example.github.io/resume.json" {
		t.Fatalf("unexpected url %q", got)
	}
}
