package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"relocation/internal/keys"
	"relocation/internal/logger"
	"relocation/internal/models"
)

// S3Service is a client for S3-compatible storage. It serves both as a
// durable Store (entries as JSON objects under a prefix) and as the archive
// for lookup events.
type S3Service struct {
	client *minio.Client
	bucket string
	prefix string
	count  atomic.Int64
}

// NewS3Service initializes and returns a new S3 storage service for bucket.
// It connects to the MinIO server using credentials from environment variables.
func NewS3Service(bucket, prefix string) (*S3Service, error) {
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	if minioEndpoint == "" || minioAccessKey == "" || minioSecretKey == "" {
		return nil, fmt.Errorf("missing one or more required environment variables: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 store needs a bucket name")
	}

	minioClient, err := minio.New(minioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.GetLogger().WithField("endpoint", minioEndpoint).Info("Connected to MinIO endpoint")
	return &S3Service{client: minioClient, bucket: bucket, prefix: prefix}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *S3Service) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *S3Service) entryKey(name string) string {
	return path.Join(s.prefix, "entries", name+".json")
}

// Get reads a durable entry.
func (s *S3Service) Get(ctx context.Context, name string) ([]byte, bool, error) {
	object, err := s.client.GetObject(ctx, s.bucket, s.entryKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read object from S3: %w", err)
	}
	return data, true, nil
}

// Set writes a durable entry, replacing any previous version.
func (s *S3Service) Set(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.entryKey(name),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}
	return nil
}

func (s *S3Service) Close() error { return nil }

// StoreEventsFromChannel archives every event read from the channel and
// returns how many were stored. Events are written concurrently.
func (s *S3Service) StoreEventsFromChannel(ctx context.Context, events <-chan *models.LookupEvent) int64 {
	var wg sync.WaitGroup
	start := s.count.Load()

	for event := range events {
		wg.Add(1)
		go func(e *models.LookupEvent) {
			defer wg.Done()
			if err := s.StoreEvent(ctx, e); err != nil {
				logger.GetLogger().WithField("event_id", e.ID).Errorf("Error archiving lookup event: %v", err)
				return
			}
			s.count.Add(1)
		}(event)
	}

	wg.Wait()
	stored := s.count.Load() - start
	logger.GetLogger().Infof("Finished archiving lookup events from the channel. Count %d", stored)
	return stored
}

// StoreEvent archives a single event. An event that is already archived is
// left untouched, so redelivered messages are harmless.
func (s *S3Service) StoreEvent(ctx context.Context, event *models.LookupEvent) error {
	objectKey := path.Join(s.prefix, keys.Event(*event))

	_, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		logger.GetLogger().WithField("key", objectKey).Debug("Lookup event already archived, ignoring write")
		return nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing object: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup event to JSON: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}
	return nil
}

// GetEvent loads an archived event by object key.
func (s *S3Service) GetEvent(ctx context.Context, objectKey string) (*models.LookupEvent, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var event models.LookupEvent
	if err := json.NewDecoder(object).Decode(&event); err != nil {
		return nil, fmt.Errorf("failed to decode JSON from stream: %w", err)
	}
	return &event, nil
}
