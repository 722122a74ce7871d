// Package photo keeps member photos in the object store.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/frontdesk/internal/objectstore"
)

// MaxSize is the largest accepted upload.
const MaxSize = 5 << 20

var (
	ErrTooLarge   = errors.New("photo exceeds 5MB")
	ErrNotAnImage = errors.New("photo must be an image")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Store struct {
	client objectstore.Client
	bucket string
}

func NewStore(client objectstore.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Key returns the object key for a member photo of the given content type.
func Key(memberID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".img"
	}
	return "members/" + memberID + "/photo" + ext
}

// Put validates and uploads a photo, returning its object key. The content
// type is sniffed from the data rather than trusted from the client.
func (s *Store) Put(ctx context.Context, memberID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotAnImage
	}

	key := Key(memberID, contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return key, nil
}

// Get opens the photo stored under key. The caller closes the body.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get photo: %w", err)
	}
	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return out.Body, contentType, nil
}

// Delete removes the photo stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
