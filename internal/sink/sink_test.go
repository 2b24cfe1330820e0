package sink

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "s3://glue-demo-bucket-indeed/write", want: Location{Scheme: "s3", Bucket: "glue-demo-bucket-indeed", Prefix: "write"}},
		{raw: "s3a://bucket/a/b/", want: Location{Scheme: "s3", Bucket: "bucket", Prefix: "a/b"}},
		{raw: "s3://bucket", want: Location{Scheme: "s3", Bucket: "bucket"}},
		{raw: "file:///tmp/out", want: Location{Scheme: "file", Prefix: "/tmp/out"}},
		{raw: "./out", want: Location{Scheme: "file", Prefix: "./out"}},
		{raw: "", wantErr: true},
		{raw: "s3:///nobucket", wantErr: true},
		{raw: "gs://bucket/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePath(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Fatalf("ParsePath(%q) error = %v, want ErrInvalidPath", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParsePath(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLocationKey(t *testing.T) {
	if got := (Location{Prefix: "write"}).Key("part.csv"); got != "write/part.csv" {
		t.Fatalf("Key = %s", got)
	}
	if got := (Location{}).Key("part.csv"); got != "part.csv" {
		t.Fatalf("Key without prefix = %s", got)
	}
}

func TestLocalPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "write")
	s := NewLocal(dir, log.New(io.Discard, "", 0))

	loc, err := s.Put(context.Background(), "part-00000-x.csv", strings.NewReader("a,b\n"), PutOptions{})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	payload, err := os.ReadFile(loc)
	if err != nil {
		t.Fatalf("read %s: %v", loc, err)
	}
	if string(payload) != "a,b\n" {
		t.Fatalf("payload = %q", payload)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir holds %d entries, want exactly 1", len(entries))
	}
}

func TestLocalPutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLocal(t.TempDir(), log.New(io.Discard, "", 0))
	if _, err := s.Put(ctx, "x.csv", strings.NewReader(""), PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Put on canceled ctx error = %v", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(t.TempDir(), Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New local: %v", err)
	}
	if _, ok := s.(*Local); !ok {
		t.Fatalf("New(dir) = %T, want *Local", s)
	}

	s, err = New("s3://bucket/prefix", Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New s3: %v", err)
	}
	if _, ok := s.(*S3); !ok {
		t.Fatalf("New(s3://) = %T, want *S3", s)
	}
}

// TestS3Smoke uploads a tiny object to a real bucket when S3_TEST_BUCKET is set.
func TestS3Smoke(t *testing.T) {
	bucket := os.Getenv("S3_TEST_BUCKET")
	if bucket == "" {
		t.Skip("S3_TEST_BUCKET not provided")
	}
	s, err := NewS3(Location{Scheme: "s3", Bucket: bucket, Prefix: "decades-smoke"}, S3Options{
		Region:         os.Getenv("AWS_REGION"),
		Endpoint:       os.Getenv("S3_ENDPOINT"),
		ForcePathStyle: os.Getenv("S3_ENDPOINT") != "",
		Logger:         log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loc, err := s.Put(ctx, "smoke.csv", strings.NewReader("decade,movie_count,avg_rating\n"), PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(loc, "s3://"+bucket+"/decades-smoke/") {
		t.Fatalf("location = %s", loc)
	}
}
