package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/logging"
	"github.com/tes-app/tes-backend/internal/media/domain"
	"github.com/tes-app/tes-backend/internal/media/store"
	"github.com/tes-app/tes-backend/internal/metrics"
)

const gatewayName = "media"

type Options struct {
	MaxDimension int
	JPEGQuality  int
}

// Gateway is the media gateway: images go in, public URLs come out.
type Gateway struct {
	store   store.Store
	opts    Options
	newKey  func() string
	log     *zap.Logger
	metrics metrics.Recorder
}

func NewGateway(s store.Store, opts Options, log *zap.Logger, rec metrics.Recorder) *Gateway {
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Gateway{
		store:   s,
		opts:    opts,
		newKey:  func() string { return uuid.NewString() + ".jpg" },
		log:     log,
		metrics: rec,
	}
}

// UploadImage stores data as a JPEG under a fresh random key. contentType
// is the caller's claim about data; an empty value means unknown.
func (g *Gateway) UploadImage(ctx context.Context, data []byte, contentType string) (url string, err error) {
	defer metrics.Since(g.metrics, gatewayName, "upload_image", time.Now(), &err)

	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return "", &domain.UploadError{Kind: domain.UploadEncode, Err: fmt.Errorf("unsupported content type %q", contentType)}
	}

	encoded, eerr := EncodeJPEG(data, g.opts.MaxDimension, g.opts.JPEGQuality)
	if eerr != nil {
		return "", &domain.UploadError{Kind: domain.UploadEncode, Err: eerr}
	}

	key := g.newKey()
	url, err = g.store.Put(ctx, key, encoded, "image/jpeg")
	if err != nil {
		logging.FromContext(ctx, g.log).Error("image upload failed", zap.String("key", key), zap.Error(err))
		return "", &domain.UploadError{Kind: domain.UploadTransport, Err: err}
	}

	logging.FromContext(ctx, g.log).Debug("image uploaded", zap.String("key", key), zap.Int("bytes", len(encoded)))
	return url, nil
}
