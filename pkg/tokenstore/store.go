// Package tokenstore persists OAuth tokens, migration reports, and playlist
// cover images in an S3 bucket. Lambda invocations have no durable local
// disk, so everything the original flow kept next to the process lives here
// instead.
package tokenstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the slice of the S3 client used by the store.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// NotFoundError indicates that no object exists for the requested key.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("object (%s) not found", e.Key)
}

// Store reads and writes the bucket layout:
//
//	tokens/<provider>/<provider>_token_<user>.json
//	reports/<name>
//	covers/<playlist>.<ext>
type Store struct {
	API    S3API
	Bucket string
	// Prefix is prepended to every key. Empty by default.
	Prefix string
}

// New returns a Store over the given S3 client and bucket.
func New(api S3API, bucket string) *Store {
	return &Store{API: api, Bucket: bucket}
}

func (s *Store) key(parts ...string) string {
	k := strings.Join(parts, "/")
	if s.Prefix != "" {
		k = strings.TrimRight(s.Prefix, "/") + "/" + k
	}
	return k
}

// GetRaw loads an arbitrary object by key relative to the store
// prefix. A missing object is reported as a NotFoundError.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, error) {
	full := s.key(key)
	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, NotFoundError{Key: full}
		}
		return nil, fmt.Errorf("get %s: %w", full, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// PutRaw stores an arbitrary object by key relative to the store
// prefix.
func (s *Store) PutRaw(ctx context.Context, key, contentType string, data []byte) error {
	full := s.key(key)
	_, err := s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(full),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", full, err)
	}
	return nil
}

// TokenKey reports the object key used for a provider and user pair.
func (s *Store) TokenKey(provider, user string) string {
	return s.key("tokens", provider, fmt.Sprintf("%s_token_%s.json", provider, user))
}

// GetToken loads the raw token payload for the provider and user. A
// missing object is reported as a NotFoundError.
func (s *Store) GetToken(ctx context.Context, provider, user string) ([]byte, error) {
	key := s.TokenKey(provider, user)
	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("get token %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// PutToken stores the raw token payload for the provider and user.
func (s *Store) PutToken(ctx context.Context, provider, user string, payload []byte) error {
	key := s.TokenKey(provider, user)
	_, err := s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put token %s: %w", key, err)
	}
	return nil
}

// PutReport writes a run report as newline separated records under
// reports/ and returns the full object key, prefix included. The name
// should already be unique per run, for example by including a
// timestamp.
func (s *Store) PutReport(ctx context.Context, name string, lines []string) (string, error) {
	key := s.key("reports", name)
	body := strings.Join(lines, "\n")
	if body != "" {
		body += "\n"
	}
	_, err := s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}
	return key, nil
}

// ReportName builds a run scoped report object name.
func ReportName(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s.txt", kind, now.UTC().Format("20060102T150405Z"))
}

var coverExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// PutCover stores a playlist cover image under covers/ and returns the
// object key. The extension is derived by sniffing the image bytes and
// existing objects are never overwritten: collisions receive an
// incrementing suffix.
func (s *Store) PutCover(ctx context.Context, playlist string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	ext, ok := coverExtensions[contentType]
	if !ok {
		ext = "jpg"
		contentType = "image/jpeg"
	}
	base := strings.ReplaceAll(playlist, "/", "-")
	key := s.key("covers", fmt.Sprintf("%s.%s", base, ext))
	for n := 2; s.exists(ctx, key); n++ {
		key = s.key("covers", fmt.Sprintf("%s_%d.%s", base, n, ext))
	}
	_, err := s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put cover %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) exists(ctx context.Context, key string) bool {
	_, err := s.API.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err == nil
}
