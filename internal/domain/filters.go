package domain

import "encoding/json"

// FilterOptions is forwarded to the node as is. The core never interprets it.
type FilterOptions struct {
	Volume        *float64                   `json:"volume,omitempty"`
	Equalizer     []Band                     `json:"equalizer,omitempty"`
	Karaoke       *KaraokeSettings           `json:"karaoke,omitempty"`
	Timescale     *TimescaleSettings         `json:"timescale,omitempty"`
	Tremolo       *FreqSettings              `json:"tremolo,omitempty"`
	Vibrato       *FreqSettings              `json:"vibrato,omitempty"`
	Rotation      *RotationSettings          `json:"rotation,omitempty"`
	Distortion    *DistortionSettings        `json:"distortion,omitempty"`
	ChannelMix    *ChannelMixSettings        `json:"channelMix,omitempty"`
	LowPass       *LowPassSettings           `json:"lowPass,omitempty"`
	PluginFilters map[string]json.RawMessage `json:"pluginFilters,omitempty"`
}

type Band struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

type KaraokeSettings struct {
	Level       *float64 `json:"level,omitempty"`
	MonoLevel   *float64 `json:"monoLevel,omitempty"`
	FilterBand  *float64 `json:"filterBand,omitempty"`
	FilterWidth *float64 `json:"filterWidth,omitempty"`
}

type TimescaleSettings struct {
	Speed *float64 `json:"speed,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
	Rate  *float64 `json:"rate,omitempty"`
}

type FreqSettings struct {
	Frequency *float64 `json:"frequency,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`
}

type RotationSettings struct {
	RotationHz *float64 `json:"rotationHz,omitempty"`
}

type DistortionSettings struct {
	SinOffset *float64 `json:"sinOffset,omitempty"`
	SinScale  *float64 `json:"sinScale,omitempty"`
	CosOffset *float64 `json:"cosOffset,omitempty"`
	CosScale  *float64 `json:"cosScale,omitempty"`
	TanOffset *float64 `json:"tanOffset,omitempty"`
	TanScale  *float64 `json:"tanScale,omitempty"`
	Offset    *float64 `json:"offset,omitempty"`
	Scale     *float64 `json:"scale,omitempty"`
}

type ChannelMixSettings struct {
	LeftToLeft   *float64 `json:"leftToLeft,omitempty"`
	LeftToRight  *float64 `json:"leftToRight,omitempty"`
	RightToLeft  *float64 `json:"rightToLeft,omitempty"`
	RightToRight *float64 `json:"rightToRight,omitempty"`
}

type LowPassSettings struct {
	Smoothing *float64 `json:"smoothing,omitempty"`
}

// Clone returns a deep enough copy for snapshots: slices and maps are not
// shared with the receiver.
func (f FilterOptions) Clone() FilterOptions {
	out := f
	if f.Equalizer != nil {
		out.Equalizer = append([]Band(nil), f.Equalizer...)
	}
	if f.PluginFilters != nil {
		out.PluginFilters = make(map[string]json.RawMessage, len(f.PluginFilters))
		for k, v := range f.PluginFilters {
			out.PluginFilters[k] = v
		}
	}
	return out
}
