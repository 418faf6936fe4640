package ros

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

func depthModel(t *testing.T) *transform.CameraModel {
	t.Helper()
	cm, err := transform.NewCameraModel(transform.CalibrationRecord{
		Width: 320, Height: 240, ScaleFactor: 0.5,
		Fx: 536.9581, Fy: 536.7106, Cx: 312.9077, Cy: 233.22255,
		Tx: -0.011234,
		Qx: 0.70304, Qy: -0.71113, Qz: 0.00172,
		K1: 0.32826, K2: -0.56677, K3: 0.12383, P1: 0.001, P2: 0.002,
	})
	test.That(t, err, test.ShouldBeNil)
	return cm
}

func TestDepthImage(t *testing.T) {
	dm := rimage.NewEmptyDepthMap(4, 3)
	dm.Set(0, 0, 1)
	dm.Set(3, 2, 8191)
	header := Header{Seq: 7, Stamp: TimeFromGo(time.Unix(12, 500)), FrameID: DepthFrameID}
	img := NewDepthImage(header, dm)
	test.That(t, img.Encoding, test.ShouldEqual, EncodingDepth16)
	test.That(t, img.Width, test.ShouldEqual, uint32(4))
	test.That(t, img.Height, test.ShouldEqual, uint32(3))
	test.That(t, img.Step, test.ShouldEqual, uint32(8))
	test.That(t, len(img.Data), test.ShouldEqual, 24)
	test.That(t, img.Data[:2], test.ShouldResemble, []byte{1, 0})
	test.That(t, img.Header.Stamp.Time(), test.ShouldResemble, time.Unix(12, 500))

	back, err := img.DepthMap()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Data(), test.ShouldResemble, dm.Data())

	words, err := img.DepthWords()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, words[11], test.ShouldEqual, uint16(8191))

	img.Encoding = EncodingMono8
	_, err = img.DepthMap()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColorAndGrayImages(t *testing.T) {
	packed := []uint32{rimage.RGBA.Pack(1, 2, 3, 255), rimage.RGBA.Pack(4, 5, 6, 255)}
	img, err := NewColorImage(Header{FrameID: ColorFrameID}, packed, 2, 1, rimage.RGBA)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Encoding, test.ShouldEqual, EncodingRGBA8)
	test.That(t, img.Step, test.ShouldEqual, uint32(8))
	test.That(t, img.Data, test.ShouldResemble, []byte{1, 2, 3, 255, 4, 5, 6, 255})

	bgra := []uint32{rimage.BGRA.Pack(1, 2, 3, 255)}
	img, err = NewColorImage(Header{}, bgra, 1, 1, rimage.BGRA)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Encoding, test.ShouldEqual, EncodingBGRA8)
	test.That(t, img.Data, test.ShouldResemble, []byte{3, 2, 1, 255})

	_, err = NewColorImage(Header{}, packed, 2, 1, rimage.ARGB)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewColorImage(Header{}, packed, 3, 1, rimage.RGBA)
	test.That(t, err, test.ShouldNotBeNil)

	gray, err := NewGrayImage(Header{}, []byte{0, 128, 255, 7}, 2, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gray.Encoding, test.ShouldEqual, EncodingMono8)
	test.That(t, gray.Step, test.ShouldEqual, uint32(2))
	_, err = NewGrayImage(Header{}, []byte{0}, 2, 2)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewCameraInfo(t *testing.T) {
	cm := depthModel(t)
	info := NewCameraInfo(Header{FrameID: DepthFrameID}, cm)
	test.That(t, info.Width, test.ShouldEqual, uint32(320))
	test.That(t, info.Height, test.ShouldEqual, uint32(240))
	test.That(t, info.DistortionModel, test.ShouldEqual, DistortionModelPlumbBob)
	test.That(t, info.D, test.ShouldResemble, []float64{0.32826, -0.56677, 0.001, 0.002, 0.12383})
	test.That(t, info.K[0], test.ShouldAlmostEqual, 536.9581*0.5)
	test.That(t, info.K[2], test.ShouldAlmostEqual, 312.9077*0.5)
	test.That(t, info.K[8], test.ShouldEqual, 1.0)
	test.That(t, info.R, test.ShouldResemble, [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, info.P[0], test.ShouldEqual, info.K[0])
	test.That(t, info.P[3], test.ShouldEqual, 0.0)
	test.That(t, info.P[6], test.ShouldEqual, info.K[5])
	test.That(t, info.P[10], test.ShouldEqual, 1.0)

	device := NewCameraInfo(Header{}, cm, WithDeviceFrame())
	expected := cm.ProjectionMatrix()
	test.That(t, mat.EqualApprox(mat.NewDense(3, 4, device.P[:]), expected, 1e-12), test.ShouldBeTrue)
	test.That(t, mat.EqualApprox(mat.NewDense(3, 3, device.R[:]), cm.RotationMatrix(), 1e-12), test.ShouldBeTrue)

	out, err := json.Marshal(info)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bytes.Contains(out, []byte(`"distortion_model":"plumb_bob"`)), test.ShouldBeTrue)
}
