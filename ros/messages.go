package ros

import "time"

// Image encodings and frames used by the rgbd publishers.
const (
	EncodingDepth16 = "16UC1"
	EncodingMono16  = "mono16"
	EncodingMono8   = "mono8"
	EncodingRGBA8   = "rgba8"
	EncodingBGRA8   = "bgra8"

	DistortionModelPlumbBob = "plumb_bob"

	DepthFrameID = "depth_camera_optical_frame"
	ColorFrameID = "color_camera_optical_frame"

	DepthTopic           = "/rgbd/depth/image_raw"
	RegisteredDepthTopic = "/rgbd/depth_registered/image_raw"
	ColorTopic           = "/rgbd/color/image_raw"
	DepthInfoTopic       = "/rgbd/depth/camera_info"
	ColorInfoTopic       = "/rgbd/color/camera_info"
)

// Time is a ROS time stamp.
type Time struct {
	Secs  uint32 `json:"secs"`
	Nsecs uint32 `json:"nsecs"`
}

// TimeFromGo converts t to a ROS time stamp.
func TimeFromGo(t time.Time) Time {
	return Time{Secs: uint32(t.Unix()), Nsecs: uint32(t.Nanosecond())}
}

// Time converts the stamp back to a Go time.
func (t Time) Time() time.Time {
	return time.Unix(int64(t.Secs), int64(t.Nsecs))
}

// Header is std_msgs/Header.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Image is sensor_msgs/Image.
type Image struct {
	Header      Header `json:"header"`
	Height      uint32 `json:"height"`
	Width       uint32 `json:"width"`
	Encoding    string `json:"encoding"`
	IsBigendian uint8  `json:"is_bigendian"`
	Step        uint32 `json:"step"`
	Data        []byte `json:"data"`
}

// RegionOfInterest is sensor_msgs/RegionOfInterest.
type RegionOfInterest struct {
	XOffset   uint32 `json:"x_offset"`
	YOffset   uint32 `json:"y_offset"`
	Height    uint32 `json:"height"`
	Width     uint32 `json:"width"`
	DoRectify bool   `json:"do_rectify"`
}

// CameraInfo is sensor_msgs/CameraInfo. K and R are row-major 3x3, P is row-major 3x4.
type CameraInfo struct {
	Header          Header           `json:"header"`
	Height          uint32           `json:"height"`
	Width           uint32           `json:"width"`
	DistortionModel string           `json:"distortion_model"`
	D               []float64        `json:"D"`
	K               [9]float64       `json:"K"`
	R               [9]float64       `json:"R"`
	P               [12]float64      `json:"P"`
	BinningX        uint32           `json:"binning_x"`
	BinningY        uint32           `json:"binning_y"`
	ROI             RegionOfInterest `json:"roi"`
}

// BagMessage is one message of a rosbag topic as gobag renders it to JSON.
type BagMessage[T any] struct {
	Meta struct {
		Secs  int
		Nsecs int
	}
	Data T
}
