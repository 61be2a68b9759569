package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ResolveOutcomesTotal.WithLabelValues("exact_match").Inc()
	m.ResolveOutcomesTotal.WithLabelValues("exact_match").Inc()
	m.EntriesSavedTotal.WithLabelValues("created").Inc()
	m.EntriesStored.Set(7)

	if got := testutil.ToFloat64(m.ResolveOutcomesTotal.WithLabelValues("exact_match")); got != 2 {
		t.Errorf("exact_match outcomes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EntriesStored); got != 7 {
		t.Errorf("entries stored = %v, want 7", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "wiki_entries_saved_total" {
			found = true
		}
	}
	if !found {
		t.Error("wiki_entries_saved_total not gathered")
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
