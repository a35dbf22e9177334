package metadata

import (
	"sort"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestGetAbsentKeyReturnsEmpty(t *testing.T) {
	md := Metadata{"a": "1"}
	if md.Get("missing") != "" {
		t.Fatalf("expected empty string for absent key, got %q", md.Get("missing"))
	}
}

func TestSetAndKeys(t *testing.T) {
	md := Metadata{}
	md.Set("traceparent", "00-abc-def-01")
	md.Set("content-type", "application/json")

	keys := md.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "content-type" || keys[1] != "traceparent" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if md.Get("traceparent") != "00-abc-def-01" {
		t.Fatalf("unexpected value: %q", md.Get("traceparent"))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := Metadata{"a": "1"}
	cloned := original.Clone()
	cloned.Set("a", "2")
	cloned.Set("b", "3")

	if original.Get("a") != "1" {
		t.Errorf("clone mutation leaked into original: %v", original)
	}
	if original.Get("b") != "" {
		t.Errorf("clone addition leaked into original: %v", original)
	}
}

func TestWithReturnsCopy(t *testing.T) {
	original := Metadata{"a": "1"}
	extended := original.With("b", "2")

	if extended.Get("a") != "1" || extended.Get("b") != "2" {
		t.Fatalf("unexpected extended metadata: %v", extended)
	}
	if original.Get("b") != "" {
		t.Fatalf("With must not mutate the receiver: %v", original)
	}
}

func TestWatermillRoundTrip(t *testing.T) {
	wm := message.Metadata{"traceparent": "00-abc-def-01", "x": "y"}

	md := FromWatermill(wm)
	back := ToWatermill(md)

	if len(back) != len(wm) {
		t.Fatalf("round trip changed size: %v vs %v", back, wm)
	}
	for k, v := range wm {
		if back[k] != v {
			t.Errorf("round trip lost %s=%s, got %s", k, v, back[k])
		}
	}
}

func TestFromWatermillNilYieldsEmptyMap(t *testing.T) {
	md := FromWatermill(nil)
	if md == nil {
		t.Fatal("expected a usable empty map, got nil")
	}
	md.Set("a", "1")
	if md.Get("a") != "1" {
		t.Fatalf("map returned for nil input is not writable: %v", md)
	}
}
