// BYZRA ⸻ internal/convert/bridge.go
// external decoder/encoder processes for webp and avif

package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"morphra/internal/formats"
	"morphra/internal/util"
)

// external binaries, names are looked up in PATH
type Tools struct {
	DWebP   string
	AVIFDec string
	CWebP   string
	AVIFEnc string
}

func DefaultTools() Tools {
	return Tools{
		DWebP:   "dwebp",
		AVIFDec: "avifdec",
		CWebP:   "cwebp",
		AVIFEnc: "avifenc",
	}
}

// launches out-of-process codecs and stitches their output back in place
type Bridge struct {
	tools    Tools
	codec    *formats.Codec
	resolver *Resolver
	logger   *zap.Logger
}

func NewBridge(tools Tools, codec *formats.Codec, resolver *Resolver, logger *zap.Logger) *Bridge {
	return &Bridge{
		tools:    tools,
		codec:    codec,
		resolver: resolver,
		logger:   logger,
	}
}

// decodes a webp or avif file into target, never returns an error
func (b *Bridge) Delegate(ctx context.Context, path string, detected formats.FormatTag, target formats.Target) Outcome {
	name := filepath.Base(path)

	var err error
	switch detected {
	case formats.WebP:
		err = b.decodeWebP(ctx, path, target)
	case formats.AVIF:
		err = b.decodeAVIF(ctx, path, target)
	default:
		err = fmt.Errorf("%w: no external decoder for %s", ErrExternalProcess, detected)
	}

	if err != nil {
		b.logger.Error("Error while converting "+detected.String(),
			zap.String("file", name),
			zap.Error(err))
		return Failed
	}

	b.logger.Info("File was converted",
		zap.String("file", name),
		zap.String("from", detected.String()),
		zap.String("to", target.Ext))
	return Converted
}

// dwebp <src> -o <tmp>.png, re-encode when png is not the target, then move in
// place; nothing next to the source is touched until the output exists
func (b *Bridge) decodeWebP(ctx context.Context, src string, target formats.Target) error {
	dir := filepath.Dir(src)
	final := util.WithExt(src, target.Ext)

	pngOut := util.TempPath(dir, "png")
	if err := b.produce(ctx, pngOut, b.tools.DWebP, src, "-o", pngOut); err != nil {
		return err
	}

	staged := pngOut
	if target.Format != formats.PNG {
		staged = util.TempPath(dir, target.Ext)
		err := b.Render(ctx, pngOut, staged, target)
		util.RemoveIfExists(pngOut)
		if err != nil {
			return err
		}
	}

	if err := b.resolver.Commit(staged, final, src); err != nil {
		util.RemoveIfExists(staged)
		return err
	}

	if final != src {
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("%w: failed to delete source: %v", ErrIO, err)
		}
	}
	return nil
}

// what avifdec can write by itself, everything else goes through png
func avifdecWrites(format formats.FormatTag) bool {
	return format == formats.PNG || format == formats.JPEG
}

// rename to a neutral name, avifdec <tmp> <tmp>.<ext>, move the result in place
func (b *Bridge) decodeAVIF(ctx context.Context, src string, target formats.Target) error {
	dir, _, ext := util.SplitName(src)
	tmpBase := util.TempPath(dir, "")
	tmpSrc := tmpBase
	if ext != "" {
		tmpSrc += "." + ext
	}

	if err := os.Rename(src, tmpSrc); err != nil {
		return fmt.Errorf("%w: failed to stage source: %v", ErrIO, err)
	}

	// put the source back under its own name
	restore := func() {
		if err := os.Rename(tmpSrc, src); err != nil {
			b.logger.Error("Could not restore source name, copy left under temporary name",
				zap.String("file", filepath.Base(src)),
				zap.String("temp", filepath.Base(tmpSrc)),
				zap.Error(err))
		}
	}

	outExt := target.Ext
	if !avifdecWrites(target.Format) {
		outExt = "png"
	}
	decoded := tmpBase + "." + outExt

	if err := b.produce(ctx, decoded, b.tools.AVIFDec, tmpSrc, decoded); err != nil {
		restore()
		return err
	}

	staged := decoded
	if outExt != target.Ext {
		staged = tmpBase + "-out." + target.Ext
		err := b.Render(ctx, decoded, staged, target)
		util.RemoveIfExists(decoded)
		if err != nil {
			restore()
			return err
		}
	}

	// the original name is free now, anything at final is someone else's
	final := util.WithExt(src, target.Ext)
	if err := b.resolver.Commit(staged, final, ""); err != nil {
		util.RemoveIfExists(staged)
		restore()
		return err
	}

	if err := util.RemoveIfExists(tmpSrc); err != nil {
		return fmt.Errorf("%w: failed to delete staged source: %v", ErrIO, err)
	}
	return nil
}

// writes an intermediate png (or jpeg) as dst in target's encoding
func (b *Bridge) Render(ctx context.Context, src, dst string, target formats.Target) error {
	if target.External() {
		return b.Encode(ctx, src, dst, target.Format)
	}
	if err := b.codec.TranscodeFile(src, dst, target.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// cwebp/avifenc from a png or jpeg input
func (b *Bridge) Encode(ctx context.Context, src, dst string, format formats.FormatTag) error {
	switch format {
	case formats.WebP:
		quality := strconv.Itoa(b.codec.JPEGQuality)
		return b.produce(ctx, dst, b.tools.CWebP, "-quiet", "-q", quality, src, "-o", dst)
	case formats.AVIF:
		return b.produce(ctx, dst, b.tools.AVIFEnc, src, dst)
	default:
		return fmt.Errorf("%w: no external encoder for %s", ErrExternalProcess, format)
	}
}

// runs a tool and insists it wrote out
func (b *Bridge) produce(ctx context.Context, out, bin string, args ...string) error {
	if err := b.run(ctx, bin, args...); err != nil {
		util.RemoveIfExists(out)
		return err
	}
	if err := util.NonEmptyFile(out); err != nil {
		util.RemoveIfExists(out)
		return fmt.Errorf("%w: %s: %v", ErrExternalProcess, filepath.Base(bin), err)
	}
	return nil
}

// launch, block until exit
func (b *Bridge) run(ctx context.Context, bin string, args ...string) error {
	if bin == "" {
		return fmt.Errorf("%w: no binary configured", ErrExternalProcess)
	}

	b.logger.Debug("Running external tool",
		zap.String("tool", bin),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return fmt.Errorf("%w: %s: %v: %s", ErrExternalProcess, filepath.Base(bin), err, detail)
		}
		return fmt.Errorf("%w: %s: %v", ErrExternalProcess, filepath.Base(bin), err)
	}
	return nil
}
