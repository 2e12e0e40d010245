package audioinfo

import (
	"fmt"

	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

type SinkState struct {
	Name  string `json:"name"`
	Muted bool   `json:"muted"`
	Level int    `json:"level"` // percent of VolumeNorm, may exceed 100
	// LevelKnown is false when the sink reported no channel volumes.
	LevelKnown bool `json:"level_known"`
}

func (s SinkState) Icon() iconsinfo.Icon {
	return iconsinfo.Volume(s.Muted, s.Level, s.LevelKnown)
}

// channelVolumesToPercent averages the channels relative to VolumeNorm.
func channelVolumesToPercent(cv proto.ChannelVolumes) (int, bool) {
	if len(cv) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range cv {
		sum += float64(v) / float64(proto.VolumeNorm) * 100.0
	}
	pct := int(sum/float64(len(cv)) + 0.5)
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// FromSink converts a sink reply. The name is copied so the state does not
// alias the reply it came from.
func FromSink(reply *proto.GetSinkInfoReply) SinkState {
	if reply == nil {
		return SinkState{}
	}
	level, known := channelVolumesToPercent(reply.ChannelVolumes)
	return SinkState{
		Name:       string([]byte(reply.SinkName)),
		Muted:      reply.Mute,
		Level:      level,
		LevelKnown: known,
	}
}

// Probe reads the default sink once over a fresh client connection.
func Probe() (SinkState, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return SinkState{}, fmt.Errorf("failed to create pulse client: %w", err)
	}
	defer c.Close()

	s, err := c.DefaultSink()
	if err != nil {
		return SinkState{}, fmt.Errorf("failed to get default sink: %w", err)
	}

	var reply proto.GetSinkInfoReply
	req := proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: s.ID()}
	if err := c.RawRequest(&req, &reply); err != nil {
		return SinkState{}, fmt.Errorf("failed to request sink info: %w", err)
	}
	return FromSink(&reply), nil
}
