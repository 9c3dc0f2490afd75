package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/presence-engine/internal/logic"
	"github.com/sweeney/presence-engine/internal/pipeline"
	"github.com/sweeney/presence-engine/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *pipeline.FakeStore, *status.Tracker) {
	t.Helper()

	store := pipeline.NewFakeStore()
	store.Tags["tag-1"] = &pipeline.Tag{ID: "tag-1", Identity: "alice"}
	store.Zones["rx-door"] = "lounge"

	pl := pipeline.New(store, store, pipeline.NewFakeIdentityService(), pipeline.NewFakeSink(),
		pipeline.NewProfiles(logic.DefaultProfile(), nil))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{
		HTTPAddr: ":8080",
		Broker:   "tcp://192.168.1.200:1883",
		Endpoint: "http://hub:8123/api/webhook/presence",
	})

	srv := New(":0", tr, pl, logic.CertaintyConstants{
		BestExpected:     -40,
		WorstExpected:    -90,
		MaxAbsenceWindow: 2 * time.Minute,
	})
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, store, tr
}

func postSighting(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sightings", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/sightings: %v", err)
	}
	return resp
}

func TestSightingChecksInOnBaseline(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postSighting(t, ts, `{"tag_id":"tag-1","receiver_id":"rx-door","rssi":-50}`)
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var sr sightingResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sr.Processed {
		t.Error("expected processed=true")
	}
	if !sr.ShouldCheckIn {
		t.Error("expected check_in=true for a strong first reading")
	}
	if sr.State != "INSIDE" {
		t.Errorf("state: got %q, want INSIDE", sr.State)
	}
}

func TestSightingUnknownTag(t *testing.T) {
	ts, store, _ := newTestServer(t)

	resp := postSighting(t, ts, `{"tag_id":"ghost","receiver_id":"rx-door","rssi":-50}`)
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
	var sr sightingResponse
	json.NewDecoder(resp.Body).Decode(&sr)
	if sr.Processed {
		t.Error("expected processed=false")
	}
	if sr.Reason != pipeline.ReasonUnknownTag {
		t.Errorf("reason: got %q, want %q", sr.Reason, pipeline.ReasonUnknownTag)
	}
	if len(store.Sightings) != 0 {
		t.Errorf("unknown tag audited: %d sightings recorded", len(store.Sightings))
	}
}

func TestSightingMalformedBody(t *testing.T) {
	ts, _, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{tag_id:`},
		{"missing rssi", `{"tag_id":"tag-1","receiver_id":"rx-door"}`},
		{"missing tag", `{"receiver_id":"rx-door","rssi":-50}`},
		{"missing receiver", `{"tag_id":"tag-1","rssi":-50}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postSighting(t, ts, tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != 400 {
				t.Errorf("status: got %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestTagsListAfterSighting(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postSighting(t, ts, `{"tag_id":"tag-1","receiver_id":"rx-door","rssi":-50}`)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/tags")
	if err != nil {
		t.Fatalf("GET /api/tags: %v", err)
	}
	defer resp.Body.Close()

	var list tagListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Tags) != 1 {
		t.Fatalf("tags: got %d, want 1", len(list.Tags))
	}
	tag := list.Tags[0]
	if tag.TagID != "tag-1" || tag.Identity != "alice" {
		t.Errorf("tag = %+v", tag)
	}
	if tag.State != "INSIDE" {
		t.Errorf("state: got %q, want INSIDE", tag.State)
	}
	if tag.Certainty <= 0 {
		t.Errorf("certainty: got %v, want > 0 for a fresh reading", tag.Certainty)
	}
}

func TestTagDetail(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postSighting(t, ts, `{"tag_id":"tag-1","receiver_id":"rx-door","rssi":-80}`)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/tags/tag-1")
	if err != nil {
		t.Fatalf("GET /api/tags/tag-1: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var tag tagView
	json.NewDecoder(resp.Body).Decode(&tag)
	if tag.State != "OUTSIDE" {
		t.Errorf("state: got %q, want OUTSIDE", tag.State)
	}
	if tag.LastStrength != -80 {
		t.Errorf("last strength: got %d, want -80", tag.LastStrength)
	}
	if tag.LastReceiver != "rx-door" {
		t.Errorf("last receiver: got %q, want rx-door", tag.LastReceiver)
	}
}

func TestTagDetailNotTracked(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/tags/never-seen")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.UpdateTags(2, 1)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sj.Status.TagsTracked != 2 {
		t.Errorf("tags_tracked: got %d, want 2", sj.Status.TagsTracked)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("broker: got %q", sj.Status.MQTT.Broker)
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postSighting(t, ts, `{"tag_id":"tag-1","receiver_id":"rx-door","rssi":-50}`)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sightings")
	if err != nil {
		t.Fatalf("GET /api/sightings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 405 {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
