// Package ros builds ROS sensor messages for the rgbd streams and replays recorded rosbags.
package ros

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag")
	}
	return rb, nil
}

// TimeFilter keeps messages recorded in [start, end] unix seconds. A zero bound is open.
func TimeFilter(start, end int64) func(int64) bool {
	return func(timestamp int64) bool {
		return (start == 0 || timestamp >= start) && (end == 0 || timestamp <= end)
	}
}

// topicKey is the name gobag files the JSON lines of a topic under: no leading slash,
// lower case, with the remaining slashes replaced by underscores.
func topicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

type lineReader interface {
	ReadBytes(delim byte) ([]byte, error)
}

// MessagesForTopic decodes every message of a topic in the bag into T.
func MessagesForTopic[T any](rb *rosbag.RosBag, topic string, timeFilter func(int64) bool) ([]BagMessage[T], error) {
	if timeFilter == nil {
		timeFilter = TimeFilter(0, 0)
	}
	if err := rb.ParseTopicsToJSON(
		"",
		timeFilter,
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[topicKey(topic)]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}
	return decodeMessages[T](msgs)
}

func decodeMessages[T any](r lineReader) ([]BagMessage[T], error) {
	all := []BagMessage[T]{}
	for {
		data, err := r.ReadBytes('\n')
		if len(data) > 0 && !isBlank(data) {
			var message BagMessage[T]
			if jsonErr := json.Unmarshal(data, &message); jsonErr != nil {
				return nil, errors.Wrapf(jsonErr, "message %d", len(all))
			}
			all = append(all, message)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return all, nil
			}
			return nil, err
		}
	}
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\n' && c != '\r' && c != '\t' {
			return false
		}
	}
	return true
}

// DepthImagesForTopic returns the 16-bit depth images recorded on a topic, skipping messages
// with any other encoding.
func DepthImagesForTopic(rb *rosbag.RosBag, topic string, timeFilter func(int64) bool) ([]BagMessage[Image], error) {
	msgs, err := MessagesForTopic[Image](rb, topic, timeFilter)
	if err != nil {
		return nil, err
	}
	return lo.Filter(msgs, func(m BagMessage[Image], _ int) bool {
		return m.Data.checkDepth() == nil
	}), nil
}
