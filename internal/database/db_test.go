package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/practitioner-marketplace/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{DBUser: "app", DBPass: "pw", DBHost: "db", DBPort: "3306", DBName: "marketplace"})
	assert.Contains(t, dsn, "app:pw@tcp(db:3306)/marketplace?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	noPass := DSN(config.Config{DBUser: "app", DBHost: "db", DBPort: "3306", DBName: "marketplace"})
	assert.Contains(t, noPass, "app@tcp(db:3306)/marketplace")
}
