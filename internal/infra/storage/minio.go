package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

const expiresMeta = "Expires-At"

// Store keeps session relay values as objects, one per session and key.
// The expiry is carried in the object user metadata.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	prefix     string
	now        func() time.Time
}

// New creates the MinIO connection and makes sure the bucket exists
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region, prefix: "sessions", now: time.Now}, nil
}

// objectKey escapes both parts so a session id cannot walk the bucket.
func (s *Store) objectKey(sid, key string) string {
	return fmt.Sprintf("%s/%s/%s.json", s.prefix, url.PathEscape(sid), url.PathEscape(key))
}

func (s *Store) Put(ctx context.Context, e domain.Entry) error {
	meta := map[string]string{}
	if !e.ExpiresAt.IsZero() {
		meta[expiresMeta] = e.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, s.objectKey(e.SessionID, e.Key),
		bytes.NewReader(e.Value), int64(len(e.Value)),
		minio.PutObjectOptions{ContentType: "application/json", UserMetadata: meta},
	)
	return err
}

func (s *Store) Get(ctx context.Context, sid, key string) (domain.Entry, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.objectKey(sid, key), minio.GetObjectOptions{})
	if err != nil {
		return domain.Entry{}, mapErr(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return domain.Entry{}, mapErr(err)
	}
	e := domain.Entry{SessionID: sid, Key: key, ExpiresAt: parseExpiry(info.UserMetadata)}
	if e.Expired(s.now()) {
		return domain.Entry{}, domain.ErrNotFound
	}
	if e.Value, err = io.ReadAll(obj); err != nil {
		return domain.Entry{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) Delete(ctx context.Context, sid, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, s.objectKey(sid, key), minio.RemoveObjectOptions{})
}

// Ping checks the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

// DeleteExpired walks the session prefix and removes expired objects.
func (s *Store) DeleteExpired(ctx context.Context) (int, error) {
	now := s.now()
	n := 0
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:       s.prefix + "/",
		Recursive:    true,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return n, obj.Err
		}
		exp := parseExpiry(obj.UserMetadata)
		if exp.IsZero() || now.Before(exp) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// parseExpiry reads the expiry from user metadata; header casing differs
// between PutObject, StatObject and listings.
func parseExpiry(meta map[string]string) time.Time {
	for k, v := range meta {
		k = strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
		if k != strings.ToLower(expiresMeta) {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

func mapErr(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return domain.ErrNotFound
	}
	return err
}
