package promo

import (
	"compress/gzip"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the part of the S3 client used to fetch code lists.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Loader struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a loader reading code lists from an S3 bucket using the
// default AWS credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().Str("bucket", bucket).Str("region", region).Msg("S3 promo loader initialised")

	return NewS3LoaderWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3LoaderWithClient creates a loader around an existing client.
func NewS3LoaderWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "promo-s3-loader").Logger(),
	}
}

func (l *s3Loader) Load(ctx context.Context, key string) (CodeSet, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	gz, err := gzip.NewReader(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for S3 object %s: %w", key, err)
	}
	defer gz.Close()

	set, err := readCodeSet(ctx, gz)
	if err != nil {
		return nil, fmt.Errorf("S3 object %s: %w", key, err)
	}

	l.logger.Info().Str("bucket", l.bucket).Str("key", key).Int("codes_loaded", set.Size()).Msg("code list loaded from S3")
	return set, nil
}

// fallbackLoader tries S3 first and falls back to the local copy.
type fallbackLoader struct {
	primary  Loader
	fallback Loader
	prefix   string
	logger   zerolog.Logger
}

// NewFallbackLoader creates a loader that reads prefix+path from primary and,
// on failure or when primary is nil, path from fallback.
func NewFallbackLoader(primary, fallback Loader, prefix string, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		primary:  primary,
		fallback: fallback,
		prefix:   prefix,
		logger:   logger.With().Str("component", "promo-fallback-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, path string) (CodeSet, error) {
	if l.primary != nil {
		key := l.prefix + path
		set, err := l.primary.Load(ctx, key)
		if err == nil {
			return set, nil
		}
		l.logger.Warn().Err(err).Str("key", key).Msg("failed to load from S3, falling back to local file system")
	}

	return l.fallback.Load(ctx, path)
}
