// Package metadata models the headers carried alongside every queue message.
// The map doubles as an OpenTelemetry TextMapCarrier so trace context can be
// injected into and extracted from message headers without copying.
package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// Metadata represents the headers attached to a published or consumed message.
type Metadata map[string]string

// Get returns the value for key, or the empty string when absent. Part of the
// propagation.TextMapCarrier contract.
func (m Metadata) Get(key string) string {
	return m[key]
}

// Set stores the value under key. Part of the propagation.TextMapCarrier
// contract; existing unrelated keys are left untouched.
func (m Metadata) Set(key, value string) {
	m[key] = value
}

// Keys lists all header names currently present.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	cloned := make(Metadata, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// With returns a cloned metadata map containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.Clone()
	cloned[key] = value
	return cloned
}

// FromWatermill converts Watermill message metadata into worker metadata.
// Absent metadata on an inbound message is valid and yields an empty map.
func FromWatermill(md message.Metadata) Metadata {
	result := make(Metadata, len(md))
	for k, v := range md {
		result[k] = v
	}
	return result
}

// ToWatermill converts worker metadata into a Watermill metadata map.
func ToWatermill(md Metadata) message.Metadata {
	wm := make(message.Metadata, len(md))
	for k, v := range md {
		wm[k] = v
	}
	return wm
}
