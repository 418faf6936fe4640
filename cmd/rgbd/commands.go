package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/rgbd/config"
	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
	"go.viam.com/rgbd/ros"
)

// loadConfig reads the --config file, or the factory config, and applies flag overrides.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, err
		}
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(flagGrid) {
		cfg.Registration.Grid = transform.GridMode(c.String(flagGrid))
	}
	if c.IsSet(flagZBuffer) {
		cfg.Registration.ZBuffer = c.Bool(flagZBuffer)
	}
	if c.IsSet(flagThreshold) {
		cfg.ConfidenceThreshold = c.Float64(flagThreshold)
	}
	if c.IsSet(flagMaxDepth) {
		cfg.MaxDepthMm = c.Int(flagMaxDepth)
	}
	if c.IsSet(flagOrder) {
		cfg.ColorOrder = c.String(flagOrder)
	}
	if c.IsSet(flagUndistort) {
		cfg.UndistortColor = c.Bool(flagUndistort)
	}
}

func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, errors.Errorf("invalid size %q, expected WxH", s)
	}
	return w, h, nil
}

var imageFormats = []string{"png", "ppm", "qoi"}

// outputs writes the results of one command into the output directory.
type outputs struct {
	dir     string
	format  string
	preview string
	logger  logging.Logger
}

func newOutputs(c *cli.Context, logger logging.Logger) (*outputs, error) {
	o := &outputs{
		dir:     c.String(flagOutDir),
		format:  strings.TrimPrefix(strings.ToLower(c.String(flagFormat)), "."),
		preview: c.String(flagPreview),
		logger:  logger,
	}
	if !lo.Contains(imageFormats, o.format) {
		return nil, errors.Errorf("unsupported image format %q, expected one of %v", o.format, imageFormats)
	}
	if o.preview != "" {
		if _, _, err := parseSize(o.preview); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(o.dir, 0o750); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *outputs) path(name string) string {
	return filepath.Join(o.dir, name)
}

func (o *outputs) writeBytes(name string, data []byte) error {
	fn := o.path(name)
	if err := os.WriteFile(fn, data, 0o600); err != nil {
		return err
	}
	o.logger.Debugw("wrote file", "path", fn, "bytes", len(data))
	return nil
}

// writeImage writes img, and its preview when one was asked for, in the configured format.
func (o *outputs) writeImage(name string, img image.Image, rotate bool) error {
	fn := o.path(name + "." + o.format)
	if err := rimage.WriteImageToFile(fn, img); err != nil {
		return err
	}
	o.logger.Debugw("wrote image", "path", fn)
	if o.preview == "" {
		return nil
	}
	w, h, err := parseSize(o.preview)
	if err != nil {
		return err
	}
	if rotate {
		img = rimage.RotateLandscape(img)
	}
	return rimage.WriteImageToFile(o.path(name+"_preview."+o.format), rimage.ScalePreview(img, w, h))
}

// writeDepthFrame writes the wire bytes and visualizations of a processed depth frame.
func writeDepthFrame(o *outputs, prefix string, frame *transform.DepthFrame, maxDepth rimage.Depth) error {
	if err := o.writeBytes(prefix+"undistorted.bin", rimage.DepthToUint16LE(frame.Undistorted.Data())); err != nil {
		return err
	}
	if err := o.writeBytes(prefix+"registered.bin", rimage.DepthToUint16LE(frame.Registered.Data())); err != nil {
		return err
	}
	gray, err := rimage.DepthToGrayImage(frame.Registered, maxDepth)
	if err != nil {
		return err
	}
	if err := o.writeImage(prefix+"registered_gray", gray, false); err != nil {
		return err
	}
	falseColor, err := rimage.DepthToFalseColorImage(frame.Undistorted, maxDepth)
	if err != nil {
		return err
	}
	return o.writeImage(prefix+"undistorted_false_color", falseColor, false)
}

func depthAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	o, err := newOutputs(c, logger)
	if err != nil {
		return err
	}
	dp, _, err := cfg.Pipelines(logger)
	if err != nil {
		return err
	}
	raw, err := rimage.ReadBytesFromFile(c.String(flagInput))
	if err != nil {
		return err
	}
	words, err := rimage.Uint16LEToWords(raw)
	if err != nil {
		return err
	}
	frame, err := dp.Process(c.Context, words)
	if err != nil {
		return err
	}
	if err := writeDepthFrame(o, "", frame, rimage.Depth(cfg.MaxDepthMm)); err != nil {
		return err
	}
	logger.Infow("depth frame written",
		"out_dir", o.dir,
		"valid_decoded", frame.Decoded.ValidCount(),
		"valid_registered", frame.Registered.ValidCount())
	return nil
}

func colorAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	o, err := newOutputs(c, logger)
	if err != nil {
		return err
	}
	_, cp, err := cfg.Pipelines(logger)
	if err != nil {
		return err
	}
	planes := &rimage.YUVPlanes{
		Width:         cfg.ColorCamera.Width,
		Height:        cfg.ColorCamera.Height,
		YRowStride:    c.Int(flagYRowStride),
		UVRowStride:   c.Int(flagUVRowStride),
		UVPixelStride: c.Int(flagUVPixelStride),
	}
	if planes.YRowStride == 0 {
		planes.YRowStride = planes.Width
	}
	if planes.UVRowStride == 0 {
		planes.UVRowStride = planes.Width
	}
	for _, p := range []struct {
		flag string
		dst  *[]byte
	}{{flagYPlane, &planes.Y}, {flagUPlane, &planes.U}, {flagVPlane, &planes.V}} {
		if *p.dst, err = rimage.ReadBytesFromFile(c.String(p.flag)); err != nil {
			return err
		}
	}
	packed, err := cp.Process(c.Context, planes)
	if err != nil {
		return err
	}
	if err := o.writeBytes("color_"+cp.Order().String()+".bin", rimage.PackedToBytes(packed)); err != nil {
		return err
	}
	img, err := rimage.PackedToImage(packed, planes.Width, planes.Height, cp.Order())
	if err != nil {
		return err
	}
	if err := o.writeImage("color", img, true); err != nil {
		return err
	}
	logger.Infow("color frame written", "out_dir", o.dir, "order", cp.Order().String())
	return nil
}

func cameraInfoAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	var rec transform.CalibrationRecord
	var sizes []config.OutputSize
	var frameID string
	switch c.String(flagSensor) {
	case sensorDepth:
		rec, sizes, frameID = cfg.DepthCamera, config.DepthOutputSizes, ros.DepthFrameID
	case sensorColor:
		rec, sizes, frameID = cfg.ColorCamera, config.ColorOutputSizes, ros.ColorFrameID
	default:
		return errors.Errorf("unknown sensor %q, expected %q or %q", c.String(flagSensor), sensorDepth, sensorColor)
	}
	if c.IsSet(flagWidth) || c.IsSet(flagHeight) {
		if rec, err = config.WithSize(rec, sizes, c.Int(flagWidth), c.Int(flagHeight)); err != nil {
			return err
		}
	}
	cm, err := transform.NewCameraModel(rec)
	if err != nil {
		return err
	}
	var opts []ros.CameraInfoOption
	if c.Bool(flagDeviceFrame) {
		opts = append(opts, ros.WithDeviceFrame())
	}
	info := ros.NewCameraInfo(ros.Header{FrameID: frameID}, cm, opts...)
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

func bagAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	o, err := newOutputs(c, logger)
	if err != nil {
		return err
	}
	dp, _, err := cfg.Pipelines(logger)
	if err != nil {
		return err
	}
	rb, err := ros.ReadBag(c.String(flagInput))
	if err != nil {
		return err
	}
	msgs, err := ros.DepthImagesForTopic(rb, c.String(flagTopic), ros.TimeFilter(c.Int64(flagStart), c.Int64(flagEnd)))
	if err != nil {
		return err
	}
	for i, msg := range msgs {
		words, err := msg.Data.DepthWords()
		if err != nil {
			return errors.Wrapf(err, "message %d", i)
		}
		frame, err := dp.Process(c.Context, words)
		if err != nil {
			return errors.Wrapf(err, "message %d", i)
		}
		if err := writeDepthFrame(o, fmt.Sprintf("frame_%05d_", i), frame, rimage.Depth(cfg.MaxDepthMm)); err != nil {
			return err
		}
	}
	logger.Infow("bag replayed", "topic", c.String(flagTopic), "frames", len(msgs), "out_dir", o.dir)
	return nil
}

// processRawFile runs one raw DEPTH16 file through the pipeline, naming outputs after it.
func processRawFile(ctx context.Context, dp *transform.DepthPipeline, o *outputs, maxDepth rimage.Depth, fn string) error {
	raw, err := rimage.ReadBytesFromFile(fn)
	if err != nil {
		return err
	}
	words, err := rimage.Uint16LEToWords(raw)
	if err != nil {
		return err
	}
	frame, err := dp.Process(ctx, words)
	if err != nil {
		return err
	}
	prefix := strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)) + "_"
	return writeDepthFrame(o, prefix, frame, maxDepth)
}

func watchAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	o, err := newOutputs(c, logger)
	if err != nil {
		return err
	}
	dp, _, err := cfg.Pipelines(logger)
	if err != nil {
		return err
	}

	var reloads <-chan *config.Config
	if path := c.String(flagConfig); path != "" {
		cw, err := config.NewWatcher(path, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := cw.Close(); err != nil {
				logger.Warnw("failed to close config watcher", "error", err)
			}
		}()
		reloads = cw.Updates()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			logger.Warnw("failed to close directory watcher", "error", err)
		}
	}()
	if err := fsw.Add(c.String(flagDir)); err != nil {
		return err
	}
	logger.Infow("watching for raw depth frames", "dir", c.String(flagDir))

	for {
		select {
		case <-c.Context.Done():
			return nil
		case next, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			applyFlags(c, next)
			newDP, _, err := next.Pipelines(logger)
			if err != nil {
				logger.Errorw("keeping previous pipeline", "error", err)
				continue
			}
			dp, cfg = newDP, next
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("directory watcher error", "error", err)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".raw" || !event.Has(fsnotify.Write) {
				continue
			}
			if err := processRawFile(c.Context, dp, o, rimage.Depth(cfg.MaxDepthMm), event.Name); err != nil {
				logger.Errorw("failed to process frame", "path", event.Name, "error", err)
				continue
			}
			logger.Infow("frame processed", "path", event.Name)
		}
	}
}

func schemaAction(c *cli.Context) error {
	out, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
