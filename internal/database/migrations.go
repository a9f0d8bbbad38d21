package database

type migration struct {
	name string
	sql  string
}

// migrations are applied in version order, each exactly once.
var migrations = map[int]migration{
	1: {"event_tables", migrationV1EventTables},
	2: {"year_source", migrationV2YearSource},
}

// migrationV1EventTables stores events by their instant in Unix
// milliseconds. event_years lists the UTC years whose events are complete;
// a year is only listed after all of its events were written.
const migrationV1EventTables = `
-- ============================================================================
-- Table: event_years
-- ============================================================================
CREATE TABLE IF NOT EXISTS event_years (
    year INTEGER PRIMARY KEY,
    computed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- ============================================================================
-- Table: new_moons
-- ============================================================================
CREATE TABLE IF NOT EXISTS new_moons (
    instant_ms INTEGER PRIMARY KEY
);

-- ============================================================================
-- Table: solar_terms
-- ============================================================================
CREATE TABLE IF NOT EXISTS solar_terms (
    instant_ms INTEGER PRIMARY KEY,
    term_index INTEGER NOT NULL CHECK (term_index BETWEEN 0 AND 23)
);

-- Winter solstice lookups
CREATE INDEX IF NOT EXISTS idx_solar_terms_index
    ON solar_terms(term_index);
`

// migrationV2YearSource records where each year's events came from: the
// built-in ephemeris or an import.
const migrationV2YearSource = `
ALTER TABLE event_years ADD COLUMN source TEXT NOT NULL DEFAULT 'meeus';
`
