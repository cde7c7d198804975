package triage

import "testing"

func TestStore_AppendListOrder(t *testing.T) {
	s := NewStore()
	s.Append(Row{StudyID: "a"}, Row{StudyID: "b"})
	s.Append(Row{StudyID: "c"})

	rows := s.List()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"a", "b", "c"} {
		if rows[i].StudyID != want {
			t.Errorf("row %d: got %s, want %s", i, rows[i].StudyID, want)
		}
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append(Row{StudyID: "a"})

	rows := s.List()
	rows[0].StudyID = "mutated"

	if got, _ := s.Get("a"); got.StudyID != "a" {
		t.Error("mutating a listed row should not affect the store")
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore()
	s.Append(Row{StudyID: "a", File: "one.png"})

	row, ok := s.Get("a")
	if !ok || row.File != "one.png" {
		t.Errorf("Get(a) = %+v, %v", row, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("expected miss for unknown study id")
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Append(Row{StudyID: "a"})
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}
