package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id", "name").From("tournaments").
		Where(Eq("owner_id", "user-1"), IsNull("deleted_at")).
		OrderBy("created_at DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}

	want := "SELECT id, name FROM tournaments WHERE owner_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 10"
	if query != want {
		t.Fatalf("query mismatch:\n got %q\nwant %q", query, want)
	}
	if len(args) != 1 || args[0] != "user-1" {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestInsertBuilderWithSuffix(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("kv_entries").
		Columns("scope", "owner_id", "key", "value").
		Values("session", "v-1", "pending_team_link", []byte(`{}`)).
		Suffix("ON CONFLICT (scope, owner_id, key) DO UPDATE SET value = EXCLUDED.value").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO kv_entries (scope, owner_id, key, value) VALUES ($1, $2, $3, $4) ON CONFLICT (scope, owner_id, key) DO UPDATE SET value = EXCLUDED.value"
	if query != want {
		t.Fatalf("query mismatch:\n got %q\nwant %q", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}

func TestInsertBuilderColumnValueMismatch(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("kv_entries").Columns("scope", "key").Values("session").ToSQL()
	if err == nil {
		t.Fatal("expected error for column/value mismatch")
	}
}

func TestDeleteBuilderRequiresConditions(t *testing.T) {
	t.Parallel()

	_, _, err := DeleteFrom("kv_entries").ToSQL()
	if err == nil {
		t.Fatal("expected error for unconditional delete")
	}

	query, args, err := DeleteFrom("kv_entries").
		Where(Eq("scope", "session"), Eq("owner_id", "v-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	if query != "DELETE FROM kv_entries WHERE scope = $1 AND owner_id = $2" {
		t.Fatalf("unexpected query: %q", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}
