package sqlite

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/accraft8/blimsey/internal/profile"
	"github.com/accraft8/blimsey/internal/store"
)

func newTestStores(t *testing.T) *store.Stores {
	t.Helper()
	stores, err := NewSQLiteStores(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	return stores
}

func TestSQLiteProfileRoundTrip(t *testing.T) {
	stores := newTestStores(t)

	p := profile.New()
	profile.Merge(p, profile.ExtractedFacts{
		PersonalInfo: map[string]any{"nombre": "Ana"},
		Preferences:  map[string]any{"le_gusta": []any{"café", "té"}},
	}, nil, time.Now())

	if err := stores.Profiles.Save("u1", p); err != nil {
		t.Fatal(err)
	}

	loaded, err := stores.Profiles.Load("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.PersonalInfo["nombre"]; !reflect.DeepEqual([]string(got), []string{"Ana"}) {
		t.Errorf("nombre = %v", got)
	}
	if got := loaded.Preferences["le_gusta"]; !reflect.DeepEqual([]string(got), []string{"café", "té"}) {
		t.Errorf("le_gusta = %v", got)
	}

	// Upsert: saving again replaces, not duplicates.
	profile.Merge(p, profile.ExtractedFacts{
		PersonalInfo: map[string]any{"edad": "25"},
	}, nil, time.Now())
	if err := stores.Profiles.Save("u1", p); err != nil {
		t.Fatal(err)
	}
	loaded, _ = stores.Profiles.Load("u1")
	if got := loaded.PersonalInfo["edad"]; !reflect.DeepEqual([]string(got), []string{"25"}) {
		t.Errorf("edad after upsert = %v", got)
	}
}

func TestSQLiteLoadMissingProfileIsEmpty(t *testing.T) {
	stores := newTestStores(t)
	p, err := stores.Profiles.Load("nadie")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.PersonalInfo) != 0 || len(p.Preferences) != 0 {
		t.Errorf("missing profile not empty: %+v", p)
	}
}

func TestSQLiteInteractionsRecentOrder(t *testing.T) {
	stores := newTestStores(t)

	for i, msg := range []string{"uno", "dos", "tres", "cuatro"} {
		err := stores.Interactions.Append("u1", store.InteractionRecord{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Message:   msg,
			Response:  "r-" + msg,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recent, err := stores.Interactions.Recent("u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Message != "tres" || recent[1].Message != "cuatro" {
		t.Errorf("recent window = %+v, want [tres cuatro] oldest first", recent)
	}

	// Users are isolated.
	other, err := stores.Interactions.Recent("u2", 5)
	if err != nil || len(other) != 0 {
		t.Errorf("u2 recent = %v (err %v), want empty", other, err)
	}

	// n <= 0 returns everything, matching the file backend.
	all, err := stores.Interactions.Recent("u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[0].Message != "uno" || all[3].Message != "cuatro" {
		t.Errorf("recent with n=0 = %+v, want all 4 oldest first", all)
	}
}
