package transform

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/utils"
)

// DepthPipelineConfig holds the tunables of the depth path.
type DepthPipelineConfig struct {
	ConfidenceThreshold float64
	MaxDepth            rimage.Depth
	Registration        RegistrationConfig
}

// DepthFrame is every stage of one processed depth frame.
type DepthFrame struct {
	Decoded     *rimage.DepthMap
	Undistorted *rimage.DepthMap
	Registered  *rimage.DepthMap
}

// DepthPipeline decodes, undistorts and registers raw DEPTH16 frames.
type DepthPipeline struct {
	depth     *CameraModel
	registrar *DepthRegistrar
	cfg       DepthPipelineConfig
	logger    logging.Logger
}

// NewDepthPipeline returns a depth pipeline for the given sensor pair.
func NewDepthPipeline(depth, color *CameraModel, cfg DepthPipelineConfig, logger logging.Logger) (*DepthPipeline, error) {
	if cfg.MaxDepth < 0 {
		return nil, errors.Errorf("max depth must be non-negative, got %d", cfg.MaxDepth)
	}
	registrar, err := NewDepthRegistrar(depth, color, cfg.Registration)
	if err != nil {
		return nil, err
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		logger.Warnw("confidence threshold outside [0, 1]", "threshold", cfg.ConfidenceThreshold)
	}
	w, h := registrar.TargetSize()
	logger.Debugw("depth pipeline ready",
		"depth_size", []int{depth.Width(), depth.Height()},
		"registered_size", []int{w, h},
		"z_buffer", cfg.Registration.ZBuffer)
	return &DepthPipeline{depth: depth, registrar: registrar, cfg: cfg, logger: logger}, nil
}

// Registrar returns the registrar used by the pipeline.
func (p *DepthPipeline) Registrar() *DepthRegistrar {
	return p.registrar
}

// Process runs one raw frame through every depth stage.
func (p *DepthPipeline) Process(ctx context.Context, words []uint16) (*DepthFrame, error) {
	start := time.Now()
	decoded, err := rimage.ParseDepth16(words, p.depth.Width(), p.depth.Height(), p.cfg.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}
	frame, err := p.ProcessDecoded(ctx, decoded)
	if err != nil {
		return nil, err
	}
	registered := rimage.ComputeDepthStats(frame.Registered)
	p.logger.Debugw("depth frame processed",
		"valid_decoded", decoded.ValidCount(),
		"valid_registered", registered.Valid,
		"median_registered_mm", registered.Median,
		"elapsed", time.Since(start))
	return frame, nil
}

// ProcessDecoded undistorts and registers an already decoded frame.
func (p *DepthPipeline) ProcessDecoded(ctx context.Context, decoded *rimage.DepthMap) (*DepthFrame, error) {
	undistorted, err := p.depth.UndistortDepthMap(ctx, decoded)
	if err != nil {
		return nil, errors.Wrap(err, "undistorting depth")
	}
	registered, err := p.registrar.Register(ctx, undistorted)
	if err != nil {
		return nil, errors.Wrap(err, "registering depth")
	}
	return &DepthFrame{Decoded: decoded, Undistorted: undistorted, Registered: registered}, nil
}

// Gray returns the 8-bit visualization of dm scaled by the configured max depth.
func (p *DepthPipeline) Gray(dm *rimage.DepthMap) ([]byte, error) {
	return rimage.DepthToGray(dm, p.cfg.MaxDepth)
}

// FalseColor returns the packed inverted-gray visualization of dm.
func (p *DepthPipeline) FalseColor(dm *rimage.DepthMap, order rimage.ChannelOrder) ([]uint32, error) {
	return rimage.DepthToFalseColor(dm, p.cfg.MaxDepth, order)
}

// ColorPipeline converts raw YUV frames of the color sensor to packed color.
type ColorPipeline struct {
	color     *CameraModel
	order     rimage.ChannelOrder
	undistort bool
	logger    logging.Logger
}

// NewColorPipeline returns a color pipeline. When undistort is set the packed frame is also
// corrected for lens distortion.
func NewColorPipeline(color *CameraModel, order rimage.ChannelOrder, undistort bool, logger logging.Logger) (*ColorPipeline, error) {
	if color == nil {
		return nil, errors.New("color pipeline needs a camera model")
	}
	return &ColorPipeline{color: color, order: order, undistort: undistort, logger: logger}, nil
}

// Order returns the channel order of produced frames.
func (p *ColorPipeline) Order() rimage.ChannelOrder {
	return p.order
}

// Process converts one YUV frame.
func (p *ColorPipeline) Process(ctx context.Context, planes *rimage.YUVPlanes) ([]uint32, error) {
	if planes == nil {
		return nil, errors.New("input YUV planes are nil")
	}
	if planes.Width != p.color.Width() || planes.Height != p.color.Height() {
		return nil, errors.Errorf("frame dimension and color intrinsics don't match Frame(%d,%d) != Intrinsics(%d,%d)",
			planes.Width, planes.Height, p.color.Width(), p.color.Height())
	}
	start := time.Now()
	packed, err := rimage.ConvertYUVToPacked(planes, p.order)
	if err != nil {
		return nil, err
	}
	if p.undistort {
		if packed, err = p.color.UndistortPacked(ctx, packed); err != nil {
			return nil, errors.Wrap(err, "undistorting color")
		}
	}
	p.logger.Debugw("color frame processed", "order", p.order.String(), "elapsed", time.Since(start))
	return packed, nil
}

// ProcessPair runs a depth and a color frame concurrently.
func ProcessPair(
	ctx context.Context,
	depth *DepthPipeline, words []uint16,
	color *ColorPipeline, planes *rimage.YUVPlanes,
) (*DepthFrame, []uint32, error) {
	var frame *DepthFrame
	var packed []uint32
	elapsed, err := utils.RunInParallel(ctx, []utils.SimpleFunc{
		func(ctx context.Context) error {
			var err error
			frame, err = depth.Process(ctx, words)
			return err
		},
		func(ctx context.Context) error {
			var err error
			packed, err = color.Process(ctx, planes)
			return err
		},
	})
	if err != nil {
		return nil, nil, err
	}
	depth.logger.Debugw("frame pair processed", "elapsed", elapsed)
	return frame, packed, nil
}
