package transform

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/rgbd/rimage"
)

func TestSourceIndex(t *testing.T) {
	test.That(t, sourceIndex(r2.Point{X: 0, Y: 0}, 320, 240), test.ShouldEqual, 0)
	test.That(t, sourceIndex(r2.Point{X: 319.9, Y: 10.5}, 320, 240), test.ShouldEqual, 10*320+319)
	test.That(t, sourceIndex(r2.Point{X: -0.1, Y: 0}, 320, 240), test.ShouldEqual, -1)
	test.That(t, sourceIndex(r2.Point{X: 3, Y: 240.5}, 320, 240), test.ShouldEqual, -1)
	// the inclusive edge is accepted by the bounds test but has no sample behind it
	test.That(t, sourceIndex(r2.Point{X: 320, Y: 10}, 320, 240), test.ShouldEqual, -1)
	test.That(t, sourceIndex(r2.Point{X: 10, Y: 240}, 320, 240), test.ShouldEqual, -1)
}

func TestUndistortZeroCoefficientsIsIdentity(t *testing.T) {
	rec := factoryDepthRecord
	rec.K1, rec.K2, rec.K3 = 0, 0, 0
	cm := newModel(t, rec)

	src := rimage.NewEmptyDepthMap(320, 240)
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			src.Set(x, y, rimage.Depth((y*320+x)%8000))
		}
	}
	out, err := cm.UndistortDepthMap(context.Background(), src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Data(), test.ShouldResemble, src.Data())

	gray := make([]uint8, 320*240)
	for i := range gray {
		gray[i] = uint8(i)
	}
	grayOut, err := UndistortSamples(context.Background(), cm, gray)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, grayOut, test.ShouldResemble, gray)
}

func TestUndistortNearIdentityMapping(t *testing.T) {
	// with p1 == p2 == p the tangential shift is p*(2x²+(x+y)²) in x and p*(2y²+(x+y)²) in y:
	// never negative and under 0.05 px on this camera, so truncation lands on the same pixel
	rec := simpleRecord()
	rec.P1, rec.P2 = 5e-5, 5e-5
	cm := newModel(t, rec)
	dist := cm.Distortion()
	test.That(t, dist.IsZero(), test.ShouldBeFalse)

	in := cm.Intrinsics()
	distortionMap := cm.DistortionMap()
	src := make([]int32, 320*240)
	for i := range src {
		src[i] = int32(i) + 1
	}
	out, err := UndistortSamples(context.Background(), cm, src)
	test.That(t, err, test.ShouldBeNil)

	var minShift, maxShift float64
	checked, misplaced, mismatched := 0, 0, 0
	for v := 0; v < 240; v++ {
		for u := 0; u < 320; u++ {
			x, y := distortionMap(float64(u), float64(v))
			minShift = math.Min(minShift, math.Min(x-float64(u), y-float64(v)))
			maxShift = math.Max(maxShift, math.Max(x-float64(u), y-float64(v)))

			// at the principal point the shift vanishes; keep away from its row and column
			if math.Abs(float64(u)-in.Ppx) < 10 || math.Abs(float64(v)-in.Ppy) < 10 {
				continue
			}
			checked++
			idx := v*320 + u
			if sourceIndex(r2.Point{X: x, Y: y}, 320, 240) != idx {
				misplaced++
			}
			if out[idx] != src[idx] {
				mismatched++
			}
		}
	}
	test.That(t, minShift, test.ShouldEqual, 0.0)
	test.That(t, maxShift, test.ShouldBeLessThan, 0.05)
	test.That(t, misplaced, test.ShouldEqual, 0)
	test.That(t, checked, test.ShouldBeGreaterThan, 320*240/2)
	test.That(t, mismatched, test.ShouldEqual, 0)
}

func TestUndistortDepthMap(t *testing.T) {
	cm := newModel(t, factoryDepthRecord)

	t.Run("all zero frame stays zero", func(t *testing.T) {
		out, err := cm.UndistortDepthMap(context.Background(), rimage.NewEmptyDepthMap(320, 240))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.Width(), test.ShouldEqual, 320)
		test.That(t, out.Height(), test.ShouldEqual, 240)
		test.That(t, out.ValidCount(), test.ShouldEqual, 0)
	})

	t.Run("corners fall outside the lens", func(t *testing.T) {
		src := rimage.NewEmptyDepthMap(320, 240)
		for i := range src.Data() {
			src.Data()[i] = 1000
		}
		out, err := cm.UndistortDepthMap(context.Background(), src)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.GetDepth(0, 0), test.ShouldEqual, rimage.Depth(0))
		test.That(t, out.GetDepth(160, 120), test.ShouldEqual, rimage.Depth(1000))
		test.That(t, out.ValidCount(), test.ShouldBeGreaterThan, 320*240*3/4)
		test.That(t, out.ValidCount(), test.ShouldBeLessThan, 320*240)
	})

	t.Run("matches the distortion map", func(t *testing.T) {
		src := rimage.NewEmptyDepthMap(320, 240)
		for i := range src.Data() {
			src.Data()[i] = rimage.Depth(i % 8000)
		}
		out, err := cm.UndistortDepthMap(context.Background(), src)
		test.That(t, err, test.ShouldBeNil)
		distortionMap := cm.DistortionMap()
		for _, px := range [][2]int{{10, 10}, {160, 120}, {300, 200}, {57, 231}} {
			x, y := distortionMap(float64(px[0]), float64(px[1]))
			test.That(t, out.GetDepth(px[0], px[1]), test.ShouldEqual, src.GetDepth(int(x), int(y)))
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := cm.UndistortDepthMap(context.Background(), rimage.NewEmptyDepthMap(640, 480))
		test.That(t, err, test.ShouldNotBeNil)
		_, err = cm.UndistortDepthMap(context.Background(), nil)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = UndistortSamples(context.Background(), cm, make([]int16, 10))
		test.That(t, errors.Is(err, rimage.ErrBufferSize), test.ShouldBeTrue)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := cm.UndistortDepthMap(ctx, rimage.NewEmptyDepthMap(320, 240))
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	})
}

func TestUndistortPacked(t *testing.T) {
	cm := newModel(t, factoryDepthRecord)
	white := rimage.ARGB.Pack(255, 255, 255, 255)
	packed := make([]uint32, 320*240)
	for i := range packed {
		packed[i] = white
	}
	out, err := cm.UndistortPacked(context.Background(), packed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0], test.ShouldEqual, uint32(0))
	test.That(t, out[120*320+160], test.ShouldEqual, white)
}

func TestUndistortPoint(t *testing.T) {
	cm := newModel(t, factoryDepthRecord)
	distortionMap := cm.DistortionMap()
	for _, pt := range []r2.Point{{X: 20, Y: 30}, {X: 156, Y: 116}, {X: 290, Y: 210}} {
		x, y := distortionMap(pt.X, pt.Y)
		back := cm.UndistortPoint(r2.Point{X: x, Y: y})
		test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-4)
		test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-4)
	}
}
