package database

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin'
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meters (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE CHECK (char_length(name) >= 1),
		ipaddress TEXT,
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		displayable BOOLEAN NOT NULL DEFAULT FALSE,
		meter_type TEXT,
		default_timezone_meter TEXT,
		gps_latitude DOUBLE PRECISION,
		gps_longitude DOUBLE PRECISION,
		identifier TEXT,
		note TEXT,
		area DOUBLE PRECISION,
		cumulative BOOLEAN NOT NULL DEFAULT FALSE,
		cumulative_reset BOOLEAN NOT NULL DEFAULT FALSE,
		cumulative_reset_start TEXT,
		cumulative_reset_end TEXT,
		previous_day BOOLEAN NOT NULL DEFAULT FALSE,
		reading_length TEXT,
		reading_variation TEXT,
		reading_gap DOUBLE PRECISION,
		reading DOUBLE PRECISION NOT NULL DEFAULT 0,
		start_timestamp TEXT,
		end_timestamp TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS meter_groups (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		displayable BOOLEAN NOT NULL DEFAULT TRUE,
		gps_latitude DOUBLE PRECISION,
		gps_longitude DOUBLE PRECISION,
		note TEXT,
		area DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS groups_immediate_meters (
		group_id INTEGER NOT NULL REFERENCES meter_groups(id) ON DELETE CASCADE,
		meter_id INTEGER NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		PRIMARY KEY (group_id, meter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS groups_immediate_children (
		parent_id INTEGER NOT NULL REFERENCES meter_groups(id) ON DELETE CASCADE,
		child_id INTEGER NOT NULL REFERENCES meter_groups(id) ON DELETE CASCADE,
		PRIMARY KEY (parent_id, child_id),
		CHECK (parent_id <> child_id)
	)`,
	`CREATE TABLE IF NOT EXISTS maps (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		displayable BOOLEAN NOT NULL DEFAULT FALSE,
		note TEXT,
		filename TEXT NOT NULL,
		modified_date TEXT NOT NULL,
		origin_latitude DOUBLE PRECISION,
		origin_longitude DOUBLE PRECISION,
		opposite_latitude DOUBLE PRECISION,
		opposite_longitude DOUBLE PRECISION,
		map_source TEXT NOT NULL,
		north_angle INTEGER,
		max_circle_size_fraction INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		meter_id INTEGER NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		reading DOUBLE PRECISION NOT NULL,
		start_timestamp BIGINT NOT NULL,
		end_timestamp BIGINT NOT NULL,
		PRIMARY KEY (meter_id, start_timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_start ON readings(start_timestamp)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin'
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE CHECK (length(name) >= 1),
		ipaddress TEXT,
		enabled BOOLEAN NOT NULL DEFAULT 0,
		displayable BOOLEAN NOT NULL DEFAULT 0,
		meter_type TEXT,
		default_timezone_meter TEXT,
		gps_latitude REAL,
		gps_longitude REAL,
		identifier TEXT,
		note TEXT,
		area REAL,
		cumulative BOOLEAN NOT NULL DEFAULT 0,
		cumulative_reset BOOLEAN NOT NULL DEFAULT 0,
		cumulative_reset_start TEXT,
		cumulative_reset_end TEXT,
		previous_day BOOLEAN NOT NULL DEFAULT 0,
		reading_length TEXT,
		reading_variation TEXT,
		reading_gap REAL,
		reading REAL NOT NULL DEFAULT 0,
		start_timestamp TEXT,
		end_timestamp TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS meter_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		displayable BOOLEAN NOT NULL DEFAULT 1,
		gps_latitude REAL,
		gps_longitude REAL,
		note TEXT,
		area REAL
	)`,
	`CREATE TABLE IF NOT EXISTS groups_immediate_meters (
		group_id INTEGER NOT NULL REFERENCES meter_groups(id) ON DELETE CASCADE,
		meter_id INTEGER NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		PRIMARY KEY (group_id, meter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS groups_immediate_children (
		parent_id INTEGER NOT NULL REFERENCES meter_groups(id) ON DELETE CASCADE,
		child_id INTEGER NOT NULL REFERENCES meter_groups(id) ON DELETE CASCADE,
		PRIMARY KEY (parent_id, child_id),
		CHECK (parent_id <> child_id)
	)`,
	`CREATE TABLE IF NOT EXISTS maps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		displayable BOOLEAN NOT NULL DEFAULT 0,
		note TEXT,
		filename TEXT NOT NULL,
		modified_date TEXT NOT NULL,
		origin_latitude REAL,
		origin_longitude REAL,
		opposite_latitude REAL,
		opposite_longitude REAL,
		map_source TEXT NOT NULL,
		north_angle INTEGER,
		max_circle_size_fraction INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		meter_id INTEGER NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		reading REAL NOT NULL,
		start_timestamp INTEGER NOT NULL,
		end_timestamp INTEGER NOT NULL,
		PRIMARY KEY (meter_id, start_timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_start ON readings(start_timestamp)`,
}
