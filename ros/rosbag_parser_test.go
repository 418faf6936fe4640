package ros

import (
	"bytes"
	"testing"

	"go.viam.com/test"
)

func TestDecodeMessages(t *testing.T) {
	lines := `{"meta":{"secs":10,"nsecs":20},"data":{"header":{"seq":1,"stamp":{"secs":10,"nsecs":20},"frame_id":"depth"},` +
		`"height":1,"width":2,"encoding":"16UC1","is_bigendian":0,"step":4,"data":[1,0,255,31]}}` + "\n" +
		`{"meta":{"secs":11,"nsecs":0},"data":{"height":1,"width":1,"encoding":"mono8","step":1,"data":"Bw=="}}` + "\n\n"
	msgs, err := decodeMessages[Image](bytes.NewBufferString(lines))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(msgs), test.ShouldEqual, 2)
	test.That(t, msgs[0].Meta.Secs, test.ShouldEqual, 10)
	test.That(t, msgs[0].Data.Header.FrameID, test.ShouldEqual, "depth")

	words, err := msgs[0].Data.DepthWords()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, words, test.ShouldResemble, []uint16{1, 8191})

	test.That(t, msgs[1].Data.Data, test.ShouldResemble, []byte{7})
	_, err = msgs[1].Data.DepthWords()
	test.That(t, err, test.ShouldNotBeNil)

	_, err = decodeMessages[Image](bytes.NewBufferString("{not json}\n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTimeFilter(t *testing.T) {
	all := TimeFilter(0, 0)
	test.That(t, all(-5), test.ShouldBeTrue)
	test.That(t, all(1<<60), test.ShouldBeTrue)

	window := TimeFilter(100, 200)
	test.That(t, window(99), test.ShouldBeFalse)
	test.That(t, window(100), test.ShouldBeTrue)
	test.That(t, window(200), test.ShouldBeTrue)
	test.That(t, window(201), test.ShouldBeFalse)

	from := TimeFilter(100, 0)
	test.That(t, from(1<<60), test.ShouldBeTrue)
	test.That(t, from(50), test.ShouldBeFalse)
}

func TestReadBagMissingFile(t *testing.T) {
	_, err := ReadBag("/nonexistent/file.bag")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unable to open input file")
}

func TestTopicKey(t *testing.T) {
	test.That(t, topicKey(DepthTopic), test.ShouldEqual, "rgbd_depth_image_raw")
	test.That(t, topicKey("Camera/Depth"), test.ShouldEqual, "camera_depth")
}
