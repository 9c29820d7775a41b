// BYZRA ⸻ internal/convert/convert.go
// per-file conversion: sniff, classify, then skip, rename, transcode or delegate

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"morphra/internal/formats"
	"morphra/internal/util"
)

type Options struct {
	Tools       Tools
	JPEGQuality int
	AutoOrient  bool
}

func DefaultOptions() Options {
	return Options{
		Tools:       DefaultTools(),
		JPEGQuality: formats.DefaultJPEGQuality,
	}
}

// anything that can take one file to a target format
type FileConverter interface {
	Convert(ctx context.Context, path, target string) Outcome
}

type Converter struct {
	logger   *zap.Logger
	codec    *formats.Codec
	resolver *Resolver
	bridge   *Bridge
}

func NewConverter(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}

	codec := formats.NewCodec(opts.JPEGQuality, opts.AutoOrient)
	resolver := NewResolver(logger)

	return &Converter{
		logger:   logger,
		codec:    codec,
		resolver: resolver,
		bridge:   NewBridge(opts.Tools, codec, resolver, logger),
	}
}

// converts one file, every failure ends up logged and reported as Failed
func (c *Converter) Convert(ctx context.Context, path, target string) Outcome {
	name := filepath.Base(path)

	t, err := formats.ParseTarget(target)
	if err != nil {
		c.logger.Error("Unsupported target format",
			zap.String("file", name),
			zap.Error(err))
		return Failed
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("Error while reading file",
			zap.String("file", name),
			zap.Error(fmt.Errorf("%w: %w", ErrIO, err)))
		return Failed
	}

	detected := formats.Detect(data)

	switch Decide(detected, util.ExtOf(path), t) {
	case ActionSkipNonImage:
		c.logger.Info("File is no image file", zap.String("file", name))
		return SkippedNonImage

	case ActionSkipCorrect:
		c.logger.Info("File is already in the requested format", zap.String("file", name))
		return SkippedAlreadyCorrect

	case ActionRename:
		return c.rename(path, t)

	case ActionDelegate:
		return c.bridge.Delegate(ctx, path, detected, t)

	default:
		return c.transcode(ctx, path, data, detected, t)
	}
}

// right content, wrong extension
func (c *Converter) rename(path string, t formats.Target) Outcome {
	name := filepath.Base(path)
	desired := util.WithExt(path, t.Ext)

	if _, err := c.resolver.Displace(desired, BackupExisting); err != nil {
		c.logger.Error("Error while renaming file",
			zap.String("file", name),
			zap.Error(err))
		return Failed
	}

	if err := os.Rename(path, desired); err != nil {
		c.logger.Error("Error while renaming file",
			zap.String("file", name),
			zap.Error(fmt.Errorf("%w: %w", ErrIO, err)))
		return Failed
	}

	c.logger.Info("File extension corrected",
		zap.String("file", name),
		zap.String("renamed", filepath.Base(desired)))
	return RenamedOnly
}

// decode in process, write to a temp file, then swap it in
func (c *Converter) transcode(ctx context.Context, path string, data []byte, detected formats.FormatTag, t formats.Target) Outcome {
	name := filepath.Base(path)
	desired := util.WithExt(path, t.Ext)

	staged, err := c.render(ctx, path, data, t)
	if err != nil {
		c.logger.Error("Error while converting image",
			zap.String("file", name),
			zap.Error(err))
		return Failed
	}

	if err := c.resolver.Commit(staged, desired, path); err != nil {
		util.RemoveIfExists(staged)
		c.logger.Error("Error while converting image",
			zap.String("file", name),
			zap.Error(err))
		return Failed
	}

	// desired == path means the output already replaced the source
	if desired != path {
		if err := os.Remove(path); err != nil {
			c.logger.Error("Converted, but the source could not be deleted",
				zap.String("file", name),
				zap.Error(fmt.Errorf("%w: %w", ErrIO, err)))
			return Failed
		}
	}

	c.logger.Info("File was converted",
		zap.String("file", name),
		zap.String("from", detected.String()),
		zap.String("to", t.Ext))
	return Converted
}

// encoded copy of data next to path, under a temp name
func (c *Converter) render(ctx context.Context, path string, data []byte, t formats.Target) (string, error) {
	img, err := c.codec.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}

	dir := filepath.Dir(path)

	if !t.External() {
		staged := util.TempPath(dir, t.Ext)
		if err := c.codec.EncodeFile(staged, img, t.Format); err != nil {
			return "", fmt.Errorf("%w: %w", ErrEncode, err)
		}
		return staged, nil
	}

	// external encoders take png in
	png := util.TempPath(dir, "png")
	if err := c.codec.EncodeFile(png, img, formats.PNG); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	defer util.RemoveIfExists(png)

	staged := util.TempPath(dir, t.Ext)
	if err := c.bridge.Encode(ctx, png, staged, t.Format); err != nil {
		return "", err
	}
	return staged, nil
}
