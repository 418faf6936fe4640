package ros

import (
	"github.com/pkg/errors"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// NewDepthImage wraps a depth map as a little-endian 16UC1 image.
func NewDepthImage(header Header, dm *rimage.DepthMap) *Image {
	return &Image{
		Header:   header,
		Height:   uint32(dm.Height()),
		Width:    uint32(dm.Width()),
		Encoding: EncodingDepth16,
		Step:     uint32(dm.Width() * 2),
		Data:     rimage.DepthToUint16LE(dm.Data()),
	}
}

// NewColorImage wraps packed color pixels. Only RGBA and BGRA have a ROS encoding.
func NewColorImage(header Header, packed []uint32, width, height int, order rimage.ChannelOrder) (*Image, error) {
	var encoding string
	switch order {
	case rimage.RGBA:
		encoding = EncodingRGBA8
	case rimage.BGRA:
		encoding = EncodingBGRA8
	default:
		return nil, errors.Errorf("channel order %s has no ROS image encoding", order)
	}
	if len(packed) != width*height {
		return nil, errors.Wrapf(rimage.ErrBufferSize, "got %d pixels for a %dx%d image", len(packed), width, height)
	}
	return &Image{
		Header:   header,
		Height:   uint32(height),
		Width:    uint32(width),
		Encoding: encoding,
		Step:     uint32(width * 4),
		Data:     rimage.PackedToBytes(packed),
	}, nil
}

// NewGrayImage wraps an 8-bit visualization as a mono8 image.
func NewGrayImage(header Header, gray []byte, width, height int) (*Image, error) {
	if len(gray) != width*height {
		return nil, errors.Wrapf(rimage.ErrBufferSize, "got %d pixels for a %dx%d image", len(gray), width, height)
	}
	data := make([]byte, len(gray))
	copy(data, gray)
	return &Image{
		Header:   header,
		Height:   uint32(height),
		Width:    uint32(width),
		Encoding: EncodingMono8,
		Step:     uint32(width),
		Data:     data,
	}, nil
}

func (img *Image) checkDepth() error {
	if img.Encoding != EncodingDepth16 && img.Encoding != EncodingMono16 {
		return errors.Errorf("expected a 16-bit depth image, got encoding %q", img.Encoding)
	}
	if img.IsBigendian != 0 {
		return errors.New("big endian depth images are not supported")
	}
	if img.Step != img.Width*2 {
		return errors.Errorf("unexpected row step %d for width %d", img.Step, img.Width)
	}
	return nil
}

// DepthWords returns the raw 16-bit words of a depth image.
func (img *Image) DepthWords() ([]uint16, error) {
	if err := img.checkDepth(); err != nil {
		return nil, err
	}
	return rimage.Uint16LEToWords(img.Data)
}

// DepthMap decodes a depth image holding millimeters.
func (img *Image) DepthMap() (*rimage.DepthMap, error) {
	if err := img.checkDepth(); err != nil {
		return nil, err
	}
	return rimage.DepthMapFromUint16LE(int(img.Width), int(img.Height), img.Data)
}

type cameraInfoOptions struct {
	deviceFrame bool
}

// CameraInfoOption configures NewCameraInfo.
type CameraInfoOption func(*cameraInfoOptions)

// WithDeviceFrame fills R with the sensor rotation and P with the projection of device-frame
// points, instead of the monocular R = I and P = [K | 0].
func WithDeviceFrame() CameraInfoOption {
	return func(o *cameraInfoOptions) {
		o.deviceFrame = true
	}
}

// NewCameraInfo describes a camera model as sensor_msgs/CameraInfo with the plumb_bob model.
func NewCameraInfo(header Header, cm *transform.CameraModel, opts ...CameraInfoOption) *CameraInfo {
	var o cameraInfoOptions
	for _, opt := range opts {
		opt(&o)
	}
	dist := cm.Distortion()
	info := &CameraInfo{
		Header:          header,
		Height:          uint32(cm.Height()),
		Width:           uint32(cm.Width()),
		DistortionModel: DistortionModelPlumbBob,
		D:               dist.PlumbBob(),
	}
	k := cm.IntrinsicMatrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			info.K[3*i+j] = k.At(i, j)
		}
	}
	if o.deviceFrame {
		r := cm.RotationMatrix()
		p := cm.ProjectionMatrix()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				info.R[3*i+j] = r.At(i, j)
			}
			for j := 0; j < 4; j++ {
				info.P[4*i+j] = p.At(i, j)
			}
		}
		return info
	}
	info.R = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			info.P[4*i+j] = info.K[3*i+j]
		}
	}
	return info
}
