package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mahirjain10/imagsharp/internal/utils"
	log "github.com/sirupsen/logrus"
)

// PutObjectAPI is the part of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Creating Dependency
type S3Service struct {
	client     PutObjectAPI
	bucketName string
	prefix     string
	destRoot   string
	attempts   int
	backoff    time.Duration
}

// Using Constructor Pattern to initalize our s3Service
func NewS3Service(client PutObjectAPI, bucketName string, prefix string, destRoot string) *S3Service {
	return &S3Service{
		client:     client,
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
		destRoot:   destRoot,
		attempts:   3,
		backoff:    2 * time.Second,
	}
}

// Key maps a file under the destination root onto its object key so that the
// bucket mirrors the local output tree.
func (service *S3Service) Key(localPath string) (string, error) {
	rel, err := filepath.Rel(service.destRoot, localPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the destination root %s", localPath, service.destRoot)
	}
	return path.Join(service.prefix, filepath.ToSlash(rel)), nil
}

// Upload puts localPath into the bucket, retrying transient failures.
func (service *S3Service) Upload(parentCtx context.Context, localPath string) (string, error) {
	key, err := service.Key(localPath)
	if err != nil {
		return "", err
	}

	var uploadErr error
	for i := 0; i < service.attempts; i++ {
		uploadErr = service.UploadtoS3Object(parentCtx, localPath, key)
		if uploadErr == nil {
			return key, nil
		}
		log.WithField("key", key).Warnf("%d try: error while uploading S3 object: %v", i+1, uploadErr)
		if i < service.attempts-1 {
			select {
			case <-parentCtx.Done():
				return "", parentCtx.Err()
			case <-time.After(service.backoff):
			}
		}
	}
	return "", fmt.Errorf("upload failed for key %s: %w", key, uploadErr)
}

func (service *S3Service) UploadtoS3Object(parentCtx context.Context, localPath string, key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(parentCtx, 1*time.Minute)
	defer cancel()

	imageBuffer, err := utils.ReadImageBuffer(localPath)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:            aws.String(service.bucketName),
		Key:               aws.String(key),
		Body:              bytes.NewReader(imageBuffer),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := service.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("couldn't upload object with key: %s, AWS error: %w", key, err)
	}
	log.WithField("key", key).Debug("upload success")
	return nil
}
