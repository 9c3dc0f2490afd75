package mqtt

import "testing"

func TestParseSighting(t *testing.T) {
	s, err := ParseSighting("presence/sightings/door-rx", []byte(`{"tag_id":"tag-1","rssi":-62}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.TagID != "tag-1" {
		t.Errorf("tag id: got %q, want tag-1", s.TagID)
	}
	if s.ReceiverID != "door-rx" {
		t.Errorf("receiver id: got %q, want door-rx", s.ReceiverID)
	}
	if s.Strength != -62 {
		t.Errorf("strength: got %d, want -62", s.Strength)
	}
}

func TestParseSightingZeroRSSI(t *testing.T) {
	s, err := ParseSighting("presence/sightings/rx", []byte(`{"tag_id":"t","rssi":0}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Strength != 0 {
		t.Errorf("strength: got %d, want 0", s.Strength)
	}
}

func TestParseSightingRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		payload string
	}{
		{"wrong topic", "other/topic", `{"tag_id":"t","rssi":-60}`},
		{"empty receiver", "presence/sightings/", `{"tag_id":"t","rssi":-60}`},
		{"nested receiver", "presence/sightings/a/b", `{"tag_id":"t","rssi":-60}`},
		{"bad json", "presence/sightings/rx", `{`},
		{"missing tag", "presence/sightings/rx", `{"rssi":-60}`},
		{"missing rssi", "presence/sightings/rx", `{"tag_id":"t"}`},
		{"non-integer rssi", "presence/sightings/rx", `{"tag_id":"t","rssi":"weak"}`},
	}

	for _, c := range cases {
		if _, err := ParseSighting(c.topic, []byte(c.payload)); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestFakeListenerInject(t *testing.T) {
	var got []Sighting
	f := NewFakeListener(func(s Sighting) {
		got = append(got, s)
	})

	if err := f.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !f.Started {
		t.Error("expected started")
	}

	f.Inject(Sighting{TagID: "tag-1", ReceiverID: "rx", Strength: -60})
	if len(got) != 1 || got[0].TagID != "tag-1" {
		t.Errorf("expected injected sighting delivered, got %+v", got)
	}

	f.Close()
	if !f.Closed {
		t.Error("expected closed")
	}
}
