package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/errors"
	"plant-diagnosis-server/internal/platform/logging"
)

// Fetcher retrieves raw image bytes for a storage path. It tries a direct
// authenticated download first and falls back to a short-lived signed URL
// fetched over plain HTTP. Bytes from either route must decode as an image
// before they count as a successful fetch; an empty object is treated as a
// failed download, never as a valid image.
type Fetcher struct {
	store      ObjectStore
	validator  *Validator
	httpClient *http.Client
	ttl        time.Duration
	logger     *logging.Logger
}

func NewFetcher(store ObjectStore, cfg config.StorageConfig, validator *Validator, logger *logging.Logger) *Fetcher {
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		store:      store,
		validator:  validator,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        ttl,
		logger:     logger,
	}
}

// Fetch returns validated image bytes for storagePath, or a download error
// after both strategies are exhausted. It never panics past this boundary.
func (f *Fetcher) Fetch(ctx context.Context, storagePath string) ([]byte, error) {
	f.logger.InfoTag("FETCH", "attempting to download image from path: %s", storagePath)

	directErr := f.tryDirect(ctx, storagePath)
	if directErr.data != nil {
		return directErr.data, nil
	}

	signedErr := f.trySignedURL(ctx, storagePath)
	if signedErr.data != nil {
		return signedErr.data, nil
	}

	f.logger.ErrorTag("FETCH", "all download attempts failed for %s", storagePath)
	return nil, errors.New(errors.KindDownload, "fetch",
		fmt.Sprintf("all download attempts failed for %s (direct: %v; signed url: %v)",
			storagePath, directErr.reason, signedErr.reason))
}

type attempt struct {
	data   []byte
	reason error
}

func (f *Fetcher) tryDirect(ctx context.Context, storagePath string) attempt {
	f.logger.DebugTag("FETCH", "attempting direct download for: %s", storagePath)

	data, err := f.store.Download(ctx, storagePath)
	if err != nil {
		f.logger.WarnTag("FETCH", "direct download for %s failed: %v, trying signed URL", storagePath, err)
		return attempt{reason: err}
	}
	if len(data) == 0 {
		f.logger.WarnTag("FETCH", "direct download for %s returned no data, trying signed URL", storagePath)
		return attempt{reason: fmt.Errorf("no data returned")}
	}

	if validation := f.validator.ValidateBytes(data, ""); !validation.IsValid {
		f.logger.WarnTag("FETCH", "direct download for %s is not a usable image: %v, trying signed URL",
			storagePath, validation.Error)
		return attempt{reason: validation.Error}
	}

	f.logger.InfoTag("FETCH", "direct download succeeded for: %s", storagePath)
	return attempt{data: data}
}

func (f *Fetcher) trySignedURL(ctx context.Context, storagePath string) attempt {
	f.logger.DebugTag("FETCH", "attempting signed URL download for: %s", storagePath)

	signedURL, err := f.store.PresignGet(ctx, storagePath, f.ttl)
	if err != nil || signedURL == "" {
		if err == nil {
			err = fmt.Errorf("no usable signed URL returned")
		}
		f.logger.ErrorTag("FETCH", "failed to create signed URL for %s: %v", storagePath, err)
		return attempt{reason: err}
	}

	f.logger.DebugTag("FETCH", "generated signed URL for %s (truncated): %.70s...", storagePath, signedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		f.logger.ErrorTag("FETCH", "signed URL request for %s failed: %v", storagePath, err)
		return attempt{reason: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.ErrorTag("FETCH", "signed URL download for %s failed: %v", storagePath, err)
		return attempt{reason: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status: %s", resp.Status)
		f.logger.ErrorTag("FETCH", "signed URL download for %s failed with HTTP error: %v", storagePath, err)
		return attempt{reason: err}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.ErrorTag("FETCH", "reading signed URL body for %s failed: %v", storagePath, err)
		return attempt{reason: err}
	}
	if len(data) == 0 {
		return attempt{reason: fmt.Errorf("no data returned")}
	}

	if validation := f.validator.ValidateBytes(data, ""); !validation.IsValid {
		f.logger.ErrorTag("FETCH", "signed URL download for %s is not a usable image: %v",
			storagePath, validation.Error)
		return attempt{reason: validation.Error}
	}

	f.logger.InfoTag("FETCH", "signed URL download succeeded for: %s", storagePath)
	return attempt{data: data}
}

// TestConnection lists the bucket root to verify storage access.
func (f *Fetcher) TestConnection(ctx context.Context) bool {
	f.logger.InfoTag("FETCH", "testing storage bucket connection")

	keys, err := f.store.List(ctx, "", 5)
	if err != nil {
		f.logger.ErrorTag("FETCH", "storage connection test failed: %v", err)
		return false
	}

	f.logger.InfoTag("FETCH", "storage reachable, %d item(s) visible at bucket root", len(keys))
	return true
}
