package mapview

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/handyhub/dispatch-api/internal/domain/geo"
)

func TestRender_IsDeterministic(t *testing.T) {
	p := geo.Point{Latitude: 14.5995, Longitude: 120.9842}

	first, err := Render(p, "Fix sink", "12 Market St")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := Render(p, "Fix sink", "12 Market St")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !bytes.Equal(first.HTML, second.HTML) {
		t.Fatal("same input produced different bytes")
	}
	if first.ETag != second.ETag || len(first.ETag) != 64 {
		t.Fatalf("unexpected etags %q %q", first.ETag, second.ETag)
	}
	if first.ContentType != ContentType {
		t.Fatalf("unexpected content type %q", first.ContentType)
	}
}

func TestRender_ContainsMarkerAndZoom(t *testing.T) {
	doc, err := Render(geo.Point{Latitude: -33.8688, Longitude: 151.2093}, "Paint fence", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(doc.HTML)

	for _, want := range []string{
		`data-lat="-33.8688"`,
		`data-lng="151.2093"`,
		`data-zoom="16"`,
		"L.marker(pos)",
		"leaflet@1.9.4",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRender_EscapesTitleAndAddress(t *testing.T) {
	doc, err := Render(geo.Point{Latitude: 1, Longitude: 2}, `<script>alert(1)</script>`, `"Main" & <Oak>`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(doc.HTML)

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatal("title was not escaped")
	}
	if strings.Contains(html, "<Oak>") {
		t.Fatal("address was not escaped")
	}
}

func TestRender_DifferentInputChangesETag(t *testing.T) {
	a, _ := Render(geo.Point{Latitude: 1, Longitude: 2}, "A", "")
	b, _ := Render(geo.Point{Latitude: 1, Longitude: 2.0001}, "A", "")
	if a.ETag == b.ETag {
		t.Fatal("different points must not share an etag")
	}
}

func TestRender_RejectsInvalidPoint(t *testing.T) {
	for _, p := range []geo.Point{
		{Latitude: 91, Longitude: 0},
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.Inf(1)},
	} {
		doc, err := Render(p, "x", "")
		if !errors.Is(err, geo.ErrInvalidLocation) {
			t.Fatalf("point %+v: expected ErrInvalidLocation, got %v", p, err)
		}
		if doc != nil {
			t.Fatalf("point %+v: expected no document", p)
		}
	}
}
