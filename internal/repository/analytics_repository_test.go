package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var (
	createTableRe = regexp.MustCompile(`(?is)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)
	aliasColumnRe = regexp.MustCompile(`\b([ust])\.(\w+)`)
)

// schemaColumns collects the columns of every table declared in the migrations.
func schemaColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no migrations found: %v", err)
	}
	tables := map[string]map[string]bool{}
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		for _, m := range createTableRe.FindAllStringSubmatch(string(raw), -1) {
			cols := map[string]bool{}
			for _, line := range strings.Split(m[2], "\n") {
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				switch strings.ToUpper(fields[0]) {
				case "PRIMARY", "UNIQUE", "CONSTRAINT", "CHECK", "FOREIGN":
					continue
				}
				cols[strings.ToLower(fields[0])] = true
			}
			tables[m[1]] = cols
		}
	}
	return tables
}

func TestAnalyticsQueriesMatchSchema(t *testing.T) {
	tables := schemaColumns(t)
	aliases := map[string]string{"u": "users", "t": "tickets", "s": "sla_log"}

	queries := map[string]string{
		"agent workload": agentWorkloadQuery,
		"sla summary":    slaSummaryQuery,
	}
	for name, query := range queries {
		for _, m := range aliasColumnRe.FindAllStringSubmatch(query, -1) {
			table := aliases[m[1]]
			if !tables[table][m[2]] {
				t.Fatalf("%s: %s.%s is not a column of %s", name, m[1], m[2], table)
			}
		}
	}
	if !strings.Contains(agentWorkloadQuery, "u.active_flag") {
		t.Fatalf("agent workload must only count active staff")
	}

	for _, col := range groupableColumns {
		if !tables["tickets"][col] {
			t.Fatalf("group column %s is not a tickets column", col)
		}
	}
	if !tables["tickets"]["created_at"] || !strings.Contains(dailyVolumeQuery, "created_at") {
		t.Fatalf("daily volume must bucket on tickets.created_at")
	}
}
