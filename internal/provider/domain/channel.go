// Package domain defines the channel and provider types shared by the
// routing, resilience, and signature modules.
package domain

// Channel is an out-of-band delivery channel for signature challenges.
type Channel string

const (
	ChannelSMS       Channel = "SMS"
	ChannelPush      Channel = "PUSH"
	ChannelVoice     Channel = "VOICE"
	ChannelBiometric Channel = "BIOMETRIC"
)

// ProviderType is the abstract provider serving a channel.
type ProviderType string

const (
	ProviderSMS       ProviderType = "SMS_PROVIDER"
	ProviderPush      ProviderType = "PUSH_PROVIDER"
	ProviderVoice     ProviderType = "VOICE_PROVIDER"
	ProviderBiometric ProviderType = "BIOMETRIC_PROVIDER"
)

// channelProviders is the fixed bijection between channels and providers.
var channelProviders = map[Channel]ProviderType{
	ChannelSMS:       ProviderSMS,
	ChannelPush:      ProviderPush,
	ChannelVoice:     ProviderVoice,
	ChannelBiometric: ProviderBiometric,
}

// providerChannels is the inverse of channelProviders.
var providerChannels = map[ProviderType]Channel{
	ProviderSMS:       ChannelSMS,
	ProviderPush:      ChannelPush,
	ProviderVoice:     ChannelVoice,
	ProviderBiometric: ChannelBiometric,
}

// fallbackOrder is the circular channel order used when a provider call fails.
var fallbackOrder = []Channel{ChannelSMS, ChannelPush, ChannelVoice, ChannelBiometric}

// ParseChannel validates a channel name. Returns false for unknown names.
func ParseChannel(name string) (Channel, bool) {
	ch := Channel(name)
	_, ok := channelProviders[ch]
	return ch, ok
}

// ParseProviderType validates a provider name. Returns false for unknown names.
func ParseProviderType(name string) (ProviderType, bool) {
	p := ProviderType(name)
	_, ok := providerChannels[p]
	return p, ok
}

// ProviderFor maps a channel to its abstract provider type.
func ProviderFor(channel Channel) (ProviderType, bool) {
	p, ok := channelProviders[channel]
	return p, ok
}

// ChannelFor maps a provider type back to its channel.
func ChannelFor(provider ProviderType) (Channel, bool) {
	ch, ok := providerChannels[provider]
	return ch, ok
}

// AllChannels returns every known channel in fallback order.
func AllChannels() []Channel {
	out := make([]Channel, len(fallbackOrder))
	copy(out, fallbackOrder)
	return out
}

// AllProviders returns every known provider type in fallback order.
func AllProviders() []ProviderType {
	out := make([]ProviderType, 0, len(fallbackOrder))
	for _, ch := range fallbackOrder {
		out = append(out, channelProviders[ch])
	}
	return out
}

// NextFallbackChannel returns the channel tried after the given one in the
// circular fallback order.
func NextFallbackChannel(channel Channel) Channel {
	for i, ch := range fallbackOrder {
		if ch == channel {
			return fallbackOrder[(i+1)%len(fallbackOrder)]
		}
	}
	return fallbackOrder[0]
}
