package postgresql

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	names := map[string]bool{}
	for _, f := range files {
		names[f] = true
	}
	if len(files) == 0 {
		t.Fatal("no migrations embedded")
	}
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			if !names[strings.TrimSuffix(f, ".up.sql")+".down.sql"] {
				t.Errorf("%s has no down migration", f)
			}
		case strings.HasSuffix(f, ".down.sql"):
			if !names[strings.TrimSuffix(f, ".down.sql")+".up.sql"] {
				t.Errorf("%s has no up migration", f)
			}
		default:
			t.Errorf("unexpected migration file %s", f)
		}
	}
}

// Session costs are minutes times rate_per_min, so their columns must be
// wider than the rate column.
func TestMigrationsWidenSessionCost(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, "migrations/000002_unbounded_session_cost.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sql := string(raw)
	for _, col := range []string{"cost TYPE NUMERIC(20, 2)", "cost_total TYPE NUMERIC(20, 2)"} {
		if !strings.Contains(sql, col) {
			t.Errorf("migration does not set %q", col)
		}
	}
}
