package mapview

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"strconv"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/geo"
)

const (
	ContentType = "text/html; charset=utf-8"

	// Zoom is the fixed street-level zoom of every rendered map.
	Zoom = 16

	leafletCSS          = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	leafletCSSIntegrity = "sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY="
	leafletJS           = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
	leafletJSIntegrity  = "sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV1lvTlZBo="
	tileURL             = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	tileAttribution     = "&copy; OpenStreetMap contributors"
)

// Document is a rendered, self-contained map page.
type Document struct {
	HTML        []byte
	ContentType string
	// ETag is the hex SHA-256 of HTML.
	ETag string
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.CSS}}" integrity="{{.CSSIntegrity}}" crossorigin="">
<style>html,body,#map{height:100%;margin:0;padding:0}</style>
</head>
<body>
<div id="map" data-lat="{{.Lat}}" data-lng="{{.Lng}}" data-zoom="{{.Zoom}}"></div>
<template id="popup"><strong>{{.Title}}</strong>{{if .Address}}<br>{{.Address}}{{end}}</template>
<script src="{{.JS}}" integrity="{{.JSIntegrity}}" crossorigin=""></script>
<script>
(function () {
  var el = document.getElementById("map");
  var pos = [parseFloat(el.dataset.lat), parseFloat(el.dataset.lng)];
  var map = L.map(el).setView(pos, parseInt(el.dataset.zoom, 10));
  L.tileLayer({{.Tiles}}, {maxZoom: 19, attribution: {{.Attribution}}}).addTo(map);
  L.marker(pos).addTo(map).bindPopup(document.getElementById("popup").innerHTML).openPopup();
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title        string
	Address      string
	Lat          string
	Lng          string
	Zoom         int
	CSS          string
	CSSIntegrity string
	JS           string
	JSIntegrity  string
	Tiles        string
	Attribution  string
}

// Render builds a map page with one marker at point. Title and address are
// escaped. The same input always yields the same bytes. An invalid point is
// rejected rather than drawn at (0,0).
func Render(point geo.Point, title, address string) (*Document, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	data := pageData{
		Title:        title,
		Address:      address,
		Lat:          formatCoord(point.Latitude),
		Lng:          formatCoord(point.Longitude),
		Zoom:         Zoom,
		CSS:          leafletCSS,
		CSSIntegrity: leafletCSSIntegrity,
		JS:           leafletJS,
		JSIntegrity:  leafletJSIntegrity,
		Tiles:        tileURL,
		Attribution:  tileAttribution,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(buf.Bytes())
	return &Document{
		HTML:        buf.Bytes(),
		ContentType: ContentType,
		ETag:        hex.EncodeToString(sum[:]),
	}, nil
}

// formatCoord prints the shortest exact representation.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderBooking renders the map page of b; geo.ErrInvalidLocation when b has
// no usable location.
func RenderBooking(b *booking.Booking) (*Document, error) {
	if !b.HasLocation() {
		return nil, geo.ErrInvalidLocation
	}
	return Render(*b.Location, b.JobTitle, b.Address)
}
