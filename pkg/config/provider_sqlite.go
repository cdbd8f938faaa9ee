package config

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/cornealfit/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrationTable tracks the configuration schema version. The reference
// table keeps its own so both can live in one database.
const migrationTable = "config_migrations"

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, migrationTable))
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	query := `
		SELECT workers, side_arc_position, presentation, special,
		       reference_source, reference_path, log_debug, log_file
		FROM fitting_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var (
		workers               sql.NullInt64
		sideArc               sql.NullFloat64
		presentation, special bool
		source, path, logFile sql.NullString
		logDebug              bool
	)
	err := s.db.QueryRow(query).Scan(&workers, &sideArc, &presentation, &special,
		&source, &path, &logDebug, &logFile)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no configuration found")
		}
		return nil, fmt.Errorf("failed to query configuration: %w", err)
	}

	config := &ConfigData{
		Fitting: FittingData{
			Presentation: presentation,
			Special:      special,
		},
		Logging: LoggingData{Debug: logDebug},
	}

	// Convert nullable fields to zero values if NULL
	if workers.Valid {
		config.Fitting.Workers = int(workers.Int64)
	}
	if sideArc.Valid {
		config.Fitting.SideArcPosition = sideArc.Float64
	}
	if source.Valid {
		config.ReferenceTable.Source = source.String
	}
	if path.Valid {
		config.ReferenceTable.Path = path.String
	}
	if logFile.Valid {
		config.Logging.File = logFile.String
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetFitting returns the fitting section
func (s *SQLiteProvider) GetFitting() (*FittingData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Fitting, nil
}

// GetReferenceTable returns the reference table section
func (s *SQLiteProvider) GetReferenceTable() (*ReferenceTableData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.ReferenceTable, nil
}

// IsReadOnly returns false since the database can be written
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig saves complete configuration to the database
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM fitting_configs WHERE config_id = ?", configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO fitting_configs (config_id, workers, side_arc_position, presentation, special,
		                             reference_source, reference_path, log_debug, log_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		configID,
		configData.Fitting.Workers,
		nullFloat64(configData.Fitting.SideArcPosition),
		configData.Fitting.Presentation,
		configData.Fitting.Special,
		nullString(configData.ReferenceTable.Source),
		nullString(configData.ReferenceTable.Path),
		configData.Logging.Debug,
		nullString(configData.Logging.File),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fitting config: %w", err)
	}

	if _, err := tx.Exec("UPDATE configs SET updated_at = datetime('now') WHERE id = ?", configID); err != nil {
		return fmt.Errorf("failed to touch config: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteProvider) getConfigID(tx *sql.Tx) (int64, error) {
	var configID int64
	err := tx.QueryRow("SELECT id FROM configs WHERE name = 'default'").Scan(&configID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("no configuration found")
		}
		return 0, err
	}
	return configID, nil
}

// getOrCreateConfigID gets existing config ID or creates a new one
func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	configID, err := s.getConfigID(tx)
	if err != nil {
		// Create default config if it doesn't exist
		result, err := tx.Exec(`INSERT INTO configs (name, created_at, updated_at) VALUES ('default', datetime('now'), datetime('now'))`)
		if err != nil {
			return 0, fmt.Errorf("failed to create default config: %w", err)
		}
		return result.LastInsertId()
	}
	return configID, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
