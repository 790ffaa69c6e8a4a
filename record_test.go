package xrec

import (
	"testing"
)

// player is the canonical rowid-keyed test record.
type player struct {
	Tracking
	ID    *int64 `db:"id"`
	Name  string `db:"name"`
	Score int64  `db:"score"`
}

func (p *player) Table() string                     { return "player" }
func (p *player) PrimaryKey() []string              { return []string{"id"} }
func (p *player) PersistedValues() map[string]Value { return Values(p) }
func (p *player) SetValue(c string, v Value) error  { return SetField(p, c, v) }

func id(n int64) *int64 { return &n }

func TestEdited_FreshRecord(t *testing.T) {
	p := &player{Name: "alice", Score: 10}
	if !Edited(p) {
		t.Fatal("a record with no reference row must report edited")
	}
}

func TestEdited_PopulatedWithoutSync(t *testing.T) {
	// Filling a record from a row without loading it (no reference row)
	// leaves it edited: nothing proves the database holds these values.
	p := &player{}
	if err := Apply(p, NewRow("id", 1, "name", "alice", "score", 10)); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if !Edited(p) {
		t.Fatal("a populated but never-synchronized record must report edited")
	}
}

func TestEdited_LoadedFromRow(t *testing.T) {
	// A row not originating from storage still only covers what it covers;
	// here it covers everything, with matching values, so the record is
	// clean. A record built from a row missing columns stays edited.
	p := &player{}
	if err := Load(p, NewRow("id", 1, "name", "alice", "score", 10)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if Edited(p) {
		t.Fatal("full matching row must yield not edited")
	}

	partial := &player{Score: 5}
	if err := Load(partial, NewRow("id", 2, "name", "bob")); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !Edited(partial) {
		t.Fatal("partial fetch must yield edited")
	}
}

func TestEdited_ExtraReferenceColumnsIgnored(t *testing.T) {
	p := &player{}
	row := NewRow("id", 1, "name", "alice", "score", 10, "team_id", 7, "bonus", 2.5)
	if err := Load(p, row); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if Edited(p) {
		t.Fatal("columns beyond the persisted set must never mark edited")
	}
}

func TestEdited_MutationDirties(t *testing.T) {
	p := &player{}
	if err := Load(p, NewRow("id", 1, "name", "alice", "score", 10)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	p.Score = 11
	if !Edited(p) {
		t.Fatal("mutated persisted property must mark edited")
	}
	p.Score = 10
	if Edited(p) {
		t.Fatal("restoring the value must mark clean again")
	}
}

func TestEdited_PlainEqualityNotDatabaseEquality(t *testing.T) {
	// The reference holds REAL 10.0; the record persists INTEGER 10. The
	// engine's = would match them, but the next write would still change
	// the stored storage class, so this counts as edited.
	p := &player{}
	if err := Load(p, NewRow("id", 1, "name", "alice", "score", 10.0)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	p.Score = 10
	if !Edited(p) {
		t.Fatal("INTEGER vs REAL must count as a change under plain equality")
	}
}

func TestChangedColumns(t *testing.T) {
	p := &player{}
	if err := Load(p, NewRow("id", 1, "name", "alice", "score", 10)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cols := ChangedColumns(p); len(cols) != 0 {
		t.Fatalf("clean record reports changes: %v", cols)
	}
	p.Name = "bob"
	p.Score = 11
	cols := ChangedColumns(p)
	if len(cols) != 2 || cols[0] != "name" || cols[1] != "score" {
		t.Fatalf("ChangedColumns = %v, want [name score]", cols)
	}

	fresh := &player{Name: "x"}
	if cols := ChangedColumns(fresh); len(cols) != 3 {
		t.Fatalf("unsynced record must report every column, got %v", cols)
	}
}

func TestCopyValuesFrom_PrimaryKeyChangeDirties(t *testing.T) {
	a := &player{}
	if err := Load(a, NewRow("id", 1, "name", "alice", "score", 10)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	b := &player{ID: id(2), Name: "alice", Score: 10}

	if err := CopyValuesFrom(a, b); err != nil {
		t.Fatalf("CopyValuesFrom error: %v", err)
	}
	if *a.ID != 2 {
		t.Fatalf("ID = %d, want 2", *a.ID)
	}
	if !Edited(a) {
		t.Fatal("a changed primary key must mark edited even when all other values match")
	}
	cols := ChangedColumns(a)
	if len(cols) != 1 || cols[0] != "id" {
		t.Fatalf("ChangedColumns = %v, want [id]", cols)
	}
}

func TestCopyValuesFrom_IdenticalValuesStayClean(t *testing.T) {
	a := &player{}
	if err := Load(a, NewRow("id", 1, "name", "alice", "score", 10)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	b := &player{ID: id(1), Name: "alice", Score: 10}
	if err := CopyValuesFrom(a, b); err != nil {
		t.Fatalf("CopyValuesFrom error: %v", err)
	}
	if Edited(a) {
		t.Fatal("copying identical values must not dirty the record")
	}
}

func TestLoad_DuplicateColumnsFirstWins(t *testing.T) {
	p := &player{}
	row := NewRow("id", 1, "name", "alice", "name", "shadow", "score", 10)
	if err := Load(p, row); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if p.Name != "alice" {
		t.Fatalf("Name = %q, want the first duplicate", p.Name)
	}
}

func TestLoad_CaseInsensitiveColumns(t *testing.T) {
	p := &player{}
	if err := Load(p, NewRow("ID", 3, "NAME", "carol", "Score", 7)); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if *p.ID != 3 || p.Name != "carol" || p.Score != 7 {
		t.Fatalf("loaded %+v", p)
	}
	if Edited(p) {
		t.Fatal("case differences between row and model must not dirty")
	}
}

func TestEdited_NonTrackingRecord(t *testing.T) {
	if !Edited(bareRecord{}) {
		t.Fatal("a record without Tracking has no reference row and is always edited")
	}
}

type bareRecord struct{}

func (bareRecord) Table() string                     { return "bare" }
func (bareRecord) PrimaryKey() []string              { return []string{"id"} }
func (bareRecord) PersistedValues() map[string]Value { return map[string]Value{"id": Integer(1)} }
func (bareRecord) SetValue(string, Value) error      { return nil }
