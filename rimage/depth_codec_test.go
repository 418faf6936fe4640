package rimage

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestDepthToGray(t *testing.T) {
	dm, err := NewDepthMapFromData(5, 1, []Depth{0, 2500, 5000, 5001, 1})
	test.That(t, err, test.ShouldBeNil)

	gray, err := DepthToGray(dm, 5000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gray, test.ShouldResemble, []byte{0, 127, 255, 0, 0})

	// max threshold of zero sends everything to black without dividing
	gray, err = DepthToGray(dm, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gray, test.ShouldResemble, []byte{0, 0, 0, 0, 0})

	_, err = DepthToGray(dm, -1)
	test.That(t, err, test.ShouldNotBeNil)

	img, err := DepthToGrayImage(dm, 5000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.GrayAt(2, 0).Y, test.ShouldEqual, uint8(255))
}

func TestDepthToFalseColor(t *testing.T) {
	dm, err := NewDepthMapFromData(4, 1, []Depth{0, 1, 5000, 6000})
	test.That(t, err, test.ShouldBeNil)

	argb, err := DepthToFalseColor(dm, 5000, ARGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, argb[0], test.ShouldEqual, uint32(0xFF000000))
	test.That(t, argb[1], test.ShouldEqual, uint32(0xFFFFFFFF))
	test.That(t, argb[2], test.ShouldEqual, uint32(0xFF000000))
	test.That(t, argb[3], test.ShouldEqual, uint32(0xFF000000))

	rgba, err := DepthToFalseColor(dm, 5000, RGBA)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rgba[0], test.ShouldEqual, uint32(0x000000FF))

	img, err := DepthToFalseColorImage(dm, 5000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.NRGBAAt(1, 0).R, test.ShouldEqual, uint8(255))
	test.That(t, img.NRGBAAt(0, 0).A, test.ShouldEqual, uint8(255))
}

func TestDepthWireRoundTrip(t *testing.T) {
	data := []Depth{0, 1, 8191, -1, math.MaxInt16, math.MinInt16, 0x1234}
	b := DepthToUint16LE(data)
	test.That(t, b, test.ShouldHaveLength, 2*len(data))
	test.That(t, b[len(b)-2:], test.ShouldResemble, []byte{0x34, 0x12})

	back, err := DepthFromUint16LE(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, data)

	all := make([]Depth, 1<<16)
	for i := range all {
		all[i] = Depth(int16(uint16(i)))
	}
	back, err = DepthFromUint16LE(DepthToUint16LE(all))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, all)

	_, err = DepthFromUint16LE([]byte{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)

	dm, err := DepthMapFromUint16LE(2, 2, DepthToUint16LE([]Depth{1, 2, 3, 4}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.GetDepth(1, 1), test.ShouldEqual, Depth(4))
	_, err = DepthMapFromUint16LE(3, 2, DepthToUint16LE([]Depth{1, 2, 3, 4}))
	test.That(t, err, test.ShouldNotBeNil)

	words, err := Uint16LEToWords([]byte{0x00, 0x20, 0xff, 0xff})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, words, test.ShouldResemble, []uint16{0x2000, 0xffff})
}

func TestDepthMap(t *testing.T) {
	dm := NewEmptyDepthMap(3, 2)
	test.That(t, dm.Contains(2, 1), test.ShouldBeTrue)
	test.That(t, dm.Contains(3, 1), test.ShouldBeFalse)
	dm.Set(2, 1, 42)
	dm.Set(0, 0, 7)
	test.That(t, dm.Data()[5], test.ShouldEqual, Depth(42))
	test.That(t, dm.ValidCount(), test.ShouldEqual, 2)
	lo, hi := dm.MinMax()
	test.That(t, lo, test.ShouldEqual, Depth(7))
	test.That(t, hi, test.ShouldEqual, Depth(42))

	clone := dm.Clone()
	clone.Set(0, 0, 1)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, Depth(7))
	test.That(t, dm.Int16s(), test.ShouldResemble, []int16{7, 0, 0, 0, 0, 42})

	_, err := NewDepthMapFromInt16(2, 2, []int16{1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewDepthMapFromData(0, 2, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestComputeDepthStats(t *testing.T) {
	empty := ComputeDepthStats(NewEmptyDepthMap(4, 2))
	test.That(t, empty, test.ShouldResemble, DepthStats{})

	dm, err := NewDepthMapFromData(3, 2, []Depth{0, 100, 300, 0, 200, 1000})
	test.That(t, err, test.ShouldBeNil)
	s := ComputeDepthStats(dm)
	test.That(t, s.Valid, test.ShouldEqual, 4)
	test.That(t, s.Min, test.ShouldEqual, Depth(100))
	test.That(t, s.Max, test.ShouldEqual, Depth(1000))
	test.That(t, s.Mean, test.ShouldAlmostEqual, 400.0)
	test.That(t, s.Median, test.ShouldAlmostEqual, 250.0)
}
