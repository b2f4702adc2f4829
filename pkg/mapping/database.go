package mapping

import (
	"fmt"

	"github.com/fendo/catmlib/pkg/config"
	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ConnectToDatabase opens the run database. For mysql the server listens on
// port 3306; for sqlite dbname is the file name or ":memory:".
func ConnectToDatabase(driver, user, pass, host, dbname string) (*sqlx.DB, error) {
	switch driver {
	case "mysql", "":
		port := "3306"
		dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		db, err := sqlx.Connect("sqlite", dbname)
		if err != nil {
			return nil, err
		}
		// an in-memory database lives as long as its single connection
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

const schema = `CREATE TABLE IF NOT EXISTS ChannelMap (
	Detector VARCHAR(32) NOT NULL,
	PadID INT NOT NULL,
	Cobo INT NOT NULL,
	AsAd INT NOT NULL,
	Aget INT NOT NULL,
	Channel INT NOT NULL,
	MinRun INT NOT NULL,
	MaxRun INT NOT NULL
)`

func CreateSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("error creating ChannelMap table: %w", err)
	}
	return nil
}

type channelRow struct {
	Entry
	Detector string `db:"Detector"`
	MinRun   int    `db:"MinRun"`
	MaxRun   int    `db:"MaxRun"`
}

// StoreChannelMap writes a map valid for runs minRun..maxRun in one
// transaction.
func StoreChannelMap(db *sqlx.DB, detector string, entries []Entry, minRun, maxRun int) error {
	if minRun > maxRun {
		return fmt.Errorf("invalid run range %d-%d", minRun, maxRun)
	}
	if config.GetConfiguration().Verbosity > 0 {
		logger.Info(fmt.Sprintf("Storing %d channels of %s for runs %d-%d", len(entries), detector, minRun, maxRun), "database")
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	query := `INSERT INTO ChannelMap (Detector, PadID, Cobo, AsAd, Aget, Channel, MinRun, MaxRun)
		VALUES (:Detector, :PadID, :Cobo, :AsAd, :Aget, :Channel, :MinRun, :MaxRun)`
	for _, e := range entries {
		row := channelRow{Entry: e, Detector: detector, MinRun: minRun, MaxRun: maxRun}
		if _, err := tx.NamedExec(query, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting pad %d: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing channel map: %w", err)
	}
	return nil
}

// LoadChannelMap reads the map of detector valid for run, ordered by pad id.
func LoadChannelMap(db *sqlx.DB, detector string, run int) ([]Entry, error) {
	query := "SELECT PadID, Cobo, AsAd, Aget, Channel FROM ChannelMap WHERE Detector = ? AND MinRun <= ? AND MaxRun >= ? ORDER BY PadID"
	cfg := config.GetConfiguration()
	if cfg.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Channel mapping of %s read from DB", detector), "database")
	}
	if cfg.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s [%s %d]", query, detector, run), "database")
	}

	rows, err := db.Queryx(db.Rebind(query), detector, run, run)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.StructScan(&e); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return entries, nil
}
