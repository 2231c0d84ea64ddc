package mapview

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/handyhub/dispatch-api/internal/domain/geo"
	"github.com/handyhub/dispatch-api/internal/pkg/storage"
)

type fakeStorage struct {
	objects map[string]string
	puts    int
	err     error
}

func (s *fakeStorage) Put(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if s.err != nil {
		return s.err
	}
	body, _ := io.ReadAll(reader)
	if s.objects == nil {
		s.objects = map[string]string{}
	}
	s.objects[key] = string(body)
	s.puts++
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) GetURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestPublisher_UploadsOnce(t *testing.T) {
	st := &fakeStorage{}
	pub := NewPublisher(st)
	doc, err := Render(geo.Point{Latitude: 1, Longitude: 2}, "Job", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	url, err := pub.Publish(context.Background(), "b1", doc)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if want := "https://cdn.example.com/maps/b1/" + doc.ETag + ".html"; url != want {
		t.Fatalf("expected %q, got %q", want, url)
	}

	if _, err := pub.Publish(context.Background(), "b1", doc); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if st.puts != 1 {
		t.Fatalf("expected one upload, got %d", st.puts)
	}
	if st.objects[Key("b1", doc)] != string(doc.HTML) {
		t.Fatal("stored bytes differ from rendered page")
	}
}

func TestPublisher_StorageError(t *testing.T) {
	pub := NewPublisher(&fakeStorage{err: errors.New("bucket unreachable")})
	doc, _ := Render(geo.Point{Latitude: 1, Longitude: 2}, "Job", "")

	if _, err := pub.Publish(context.Background(), "b1", doc); err == nil {
		t.Fatal("expected error")
	}
}
