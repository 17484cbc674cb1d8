package driver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mahirjain10/imagsharp/internal/resolver"
	"github.com/mahirjain10/imagsharp/internal/transformation"
	"github.com/mahirjain10/imagsharp/internal/types"
	"github.com/mahirjain10/imagsharp/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Uploader mirrors a converted file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type TransformHandler struct {
	exts     []string
	uploader Uploader
}

func NewTransformHandler(exts []string, uploader Uploader) *TransformHandler {
	return &TransformHandler{exts: exts, uploader: uploader}
}

// TransformImage settles one job. It never returns an error: every failure
// is folded into the result so that sibling jobs carry on.
func (h *TransformHandler) TransformImage(ctx context.Context, job types.ImageJob) types.JobResult {
	result := types.JobResult{Job: job}
	logger := log.WithField("source", job.SourcePath)

	if !resolver.Accepted(job.SourcePath, h.exts) {
		result.Outcome = types.SkippedUnsupported
		result.Reason = "unsupported extension"
		logger.Debug("skipped: unsupported extension")
		return result
	}

	fail := func(err error) types.JobResult {
		result.Outcome = types.Failed
		result.Reason = err.Error()
		logger.Warnf("conversion failed: %v", err)
		return result
	}

	destDir, err := utils.PathUtil(job.DestDir, "")
	if err != nil {
		return fail(err)
	}

	meta, err := transformation.Probe(job.SourcePath)
	if err != nil {
		return fail(err)
	}

	params := transformation.Params{
		Width:   job.Options.Width,
		Format:  job.Options.Format,
		Quality: job.Options.Quality,
	}
	if params.Width <= 0 {
		params.Width = meta.Width
	}
	if params.Format == "" {
		params.Format = strings.TrimPrefix(filepath.Ext(job.SourcePath), ".")
	}

	outputPath := utils.OutputPath(destDir, job.SourcePath, params.Format)
	if err := transformation.Transform(job.SourcePath, outputPath, params); err != nil {
		return fail(err)
	}
	result.OutputPath = outputPath
	logger.WithField("output", outputPath).Debug("converted")

	if h.uploader != nil {
		if _, err := h.uploader.Upload(ctx, outputPath); err != nil {
			return fail(err)
		}
	}

	result.Outcome = types.Converted
	return result
}
