package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidPath is returned when an output path cannot be parsed.
var ErrInvalidPath = errors.New("sink: invalid output path")

// PutOptions carries per-object attributes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Sink stores a finished output object and reports where it landed.
type Sink interface {
	Put(ctx context.Context, name string, body io.Reader, opts PutOptions) (string, error)
}

// Location is a parsed output path.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParsePath splits an output path into scheme, bucket and key prefix. Paths
// without a scheme, or with file://, refer to the local filesystem and carry
// the directory in Prefix.
func ParsePath(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: "file", Prefix: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	switch u.Scheme {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, fmt.Errorf("%w: missing bucket in %q", ErrInvalidPath, raw)
		}
		return Location{Scheme: "s3", Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	case "file":
		if u.Path == "" {
			return Location{}, fmt.Errorf("%w: missing directory in %q", ErrInvalidPath, raw)
		}
		return Location{Scheme: "file", Prefix: u.Path}, nil
	default:
		return Location{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidPath, u.Scheme)
	}
}

// Key joins the location prefix with an object name.
func (l Location) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return path.Join(l.Prefix, name)
}

// Options controls sink construction.
type Options struct {
	S3     S3Options
	Logger *log.Logger
}

// New builds the sink that serves the given output path.
func New(raw string, opts Options) (Sink, error) {
	loc, err := ParsePath(raw)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case "s3":
		s3opts := opts.S3
		if s3opts.Logger == nil {
			s3opts.Logger = opts.Logger
		}
		return NewS3(loc, s3opts)
	default:
		return NewLocal(loc.Prefix, opts.Logger), nil
	}
}
