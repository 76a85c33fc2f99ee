package cloud

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// objectAPI is the subset of the S3 client the archive uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MapArchive mirrors map image sources into an S3 bucket.
type MapArchive struct {
	svc    objectAPI
	bucket string
}

// NewMapArchive creates an archive backed by the default AWS credential chain.
func NewMapArchive(ctx context.Context, region, bucket string) (*MapArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &MapArchive{svc: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// ObjectKey is where a map's source is stored: maps/<id>/<filename>.
func ObjectKey(m domain.Map) string {
	name := path.Base(strings.ReplaceAll(m.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "source"
	}
	return fmt.Sprintf("maps/%d/%s", m.ID, name)
}

// Store uploads the map source under ObjectKey.
func (a *MapArchive) Store(ctx context.Context, m domain.Map) error {
	contentType, body := splitDataURL(m.MapSource)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ObjectKey(m)),
		Body:        strings.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"map-name":      m.Name,
			"modified-date": m.ModifiedDate,
			"uploaded-at":   time.Now().Format(time.RFC3339),
		},
	}
	if _, err := a.svc.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload map %d to S3: %w", m.ID, err)
	}
	return nil
}

// Remove deletes the archived source of m.
func (a *MapArchive) Remove(ctx context.Context, m domain.Map) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ObjectKey(m)),
	}
	if _, err := a.svc.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("failed to delete map %d from S3: %w", m.ID, err)
	}
	return nil
}

// splitDataURL separates "data:<type>;base64,<payload>" sources. Anything
// else is stored verbatim as text.
func splitDataURL(src string) (contentType, body string) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return "text/plain", src
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "text/plain", src
	}
	contentType, _, _ = strings.Cut(meta, ";")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return contentType, payload
}
