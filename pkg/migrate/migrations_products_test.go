package migrate_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/angelmondragon/petfood-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	fsys := migrate.Migrations()
	matches, err := fs.Glob(fsys, pattern)
	if err != nil || len(matches) == 0 {
		t.Fatalf("no embedded migration matching %q (err=%v)", pattern, err)
	}
	data, err := fs.ReadFile(fsys, matches[0])
	if err != nil {
		t.Fatalf("read %s: %v", matches[0], err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")

	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS product_images",
		"CONSTRAINT products_stock_check CHECK (stock >= 0)",
		"ingredients jsonb NOT NULL DEFAULT '{}'::jsonb",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_product_images_product_position",
		"DROP TABLE IF EXISTS products",
	})
}

func TestCartMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_cart_items_table.sql")

	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS cart_items",
		"PRIMARY KEY (user_id, product_id)",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS cart_items",
	})
}
