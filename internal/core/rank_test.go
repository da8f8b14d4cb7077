package core

import "testing"

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func equalIDs(got []Record, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].ID != want[i] {
			return false
		}
	}
	return true
}

func TestTopN(t *testing.T) {
	recs := []Record{
		{ID: "1", Amount: amt("10")},
		{ID: "2", Amount: amt("10")},
		{ID: "3", Amount: amt("99")},
		{ID: "4", Amount: amt("0.5")},
	}
	cases := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{-1, nil},
		{1, []string{"3"}},
		{3, []string{"3", "1", "2"}},
		{10, []string{"3", "1", "2", "4"}},
	}
	for _, tc := range cases {
		got := TopN(recs, tc.n)
		if !equalIDs(got, tc.want...) {
			t.Fatalf("TopN(n=%d) = %v, want %v", tc.n, ids(got), tc.want)
		}
	}
	if !equalIDs(recs, "1", "2", "3", "4") {
		t.Fatalf("input was mutated: %v", ids(recs))
	}
}

func TestTopNStableOnTies(t *testing.T) {
	recs := []Record{{ID: "1", Amount: amt("10")}, {ID: "2", Amount: amt("10")}}
	if got := TopN(recs, 2); !equalIDs(got, "1", "2") {
		t.Fatalf("expected [1 2], got %v", ids(got))
	}
}

func TestMostRecent(t *testing.T) {
	recs := []Record{
		{ID: "undated"},
		{ID: "jan", Date: day(2025, 1, 1)},
		{ID: "mar", Date: day(2025, 3, 1)},
		{ID: "feb", Date: day(2025, 2, 1)},
	}
	if got := MostRecent(recs, 3); !equalIDs(got, "mar", "feb", "jan") {
		t.Fatalf("unexpected order: %v", ids(got))
	}
	if got := MostRecent(recs, 10); !equalIDs(got, "mar", "feb", "jan", "undated") {
		t.Fatalf("unexpected order: %v", ids(got))
	}
}
