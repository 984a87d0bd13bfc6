package pipeline

import (
	"context"
	"errors"
	"fmt"

	"library-converter/internal/catalog"
	"library-converter/internal/mediatypes"
	"library-converter/internal/metrics"
)

// replace swaps the original asset for the converted file. Each step runs
// only if the previous one succeeded. The returned id is the new asset id
// whenever the upload went through, even if it was later compensated.
func (p *Processor) replace(ctx context.Context, asset catalog.Asset, target, outputPath string, rep Reporter) (Status, string, error) {
	uploaded, err := p.client.Upload(ctx, catalog.UploadRequest{
		FilePath:       outputPath,
		DeviceAssetID:  asset.ID + "-" + target,
		DeviceID:       asset.DeviceID,
		FileCreatedAt:  asset.FileCreatedAt,
		FileModifiedAt: asset.FileModifiedAt,
		Filename:       mediatypes.ReplacementName(asset.OriginalFileName, target),
	})
	if err != nil {
		return StatusFailedUpload, "", fmt.Errorf("upload failed: %w", err)
	}
	newID := uploaded.ID
	rep.Debugf(asset, "uploaded as %s", newID)

	// A duplicate predates this run, possibly as an earlier replacement, so
	// it is never compensated.
	undo := func(step string) error {
		if uploaded.Duplicate {
			metrics.CompensationsTotal.WithLabelValues(step, "skipped").Inc()
			rep.Warnf(asset, "leaving pre-existing asset %s in place after failed %s", newID, step)
			return nil
		}
		return p.compensate(ctx, asset, step, newID, rep)
	}

	if err := p.client.CopyRelations(ctx, asset.ID, newID); err != nil {
		err = fmt.Errorf("copy relations failed: %w", err)
		rep.Errorf(asset, "%v", err)
		return StatusFailedCopy, newID, errors.Join(err, undo("copy"))
	}

	exists, err := p.client.Exists(ctx, newID)
	if err != nil || !exists {
		if err == nil {
			err = fmt.Errorf("new asset %s not found after upload", newID)
		} else {
			err = fmt.Errorf("verify new asset failed: %w", err)
		}
		rep.Errorf(asset, "%v", err)
		return StatusFailedVerification, newID, errors.Join(err, undo("verify"))
	}

	if err := p.client.Delete(ctx, asset.ID); err != nil {
		rep.Warnf(asset, "new asset %s is in place but the original could not be deleted: %v", newID, err)
		return StatusPartialSuccess, newID, fmt.Errorf("delete original failed: %w", err)
	}

	return StatusSuccess, newID, nil
}

// compensate deletes a new asset whose replace sequence failed. It runs even
// when ctx is already canceled so an interrupt cannot leave a duplicate behind.
func (p *Processor) compensate(ctx context.Context, asset catalog.Asset, step, newID string, rep Reporter) error {
	if err := p.client.Delete(context.WithoutCancel(ctx), newID); err != nil {
		metrics.CompensationsTotal.WithLabelValues(step, "error").Inc()
		rep.Errorf(asset, "compensating delete of %s failed: %v", newID, err)
		return fmt.Errorf("compensating delete of %s failed: %w", newID, err)
	}
	metrics.CompensationsTotal.WithLabelValues(step, "success").Inc()
	rep.Infof(asset, "removed new asset %s after failed %s", newID, step)
	return nil
}
