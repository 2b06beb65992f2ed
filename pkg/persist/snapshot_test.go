package persist

import "testing"

func TestSummarizeCountsAliveAndMeans(t *testing.T) {
	s := buildState(t)
	s.Init(4, 0.02, 0.05, 0.01)
	s.Nutrient[0] = 1.0
	s.Nutrient[1] = 0.5
	s.Mood[0*s.C+0] = 0.2

	sum := Summarize(s)
	if sum.TCap != s.TCap || sum.Channels != s.C || sum.Neighbors != s.K {
		t.Fatalf("shape mismatch: %+v", sum)
	}
	if sum.ActiveCount != s.AliveCount() {
		t.Fatalf("ActiveCount = %d, want %d", sum.ActiveCount, s.AliveCount())
	}
}

func TestEncodeDecodeSummaryRoundTrip(t *testing.T) {
	s := buildState(t)
	b, err := EncodeSummary(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSummary(b)
	if err != nil {
		t.Fatal(err)
	}
	want := Summarize(s)
	if got.TCap != want.TCap || got.Channels != want.Channels || got.ActiveCount != want.ActiveCount {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeSummaryRejectsGarbage(t *testing.T) {
	if _, err := DecodeSummary([]byte{0xff, 0x00, 0x01}); err == nil {
		t.Fatal("expected decode error on garbage input")
	}
}
