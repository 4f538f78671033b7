/*****************************************************************************************************************/

package metastore

/*****************************************************************************************************************/

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

/*****************************************************************************************************************/

// plateRow is the gorm model backing a local, offline mirror of the
// plates table. Astrometry and mosaic sub-structures are stored as
// opaque JSON blobs rather than normalized into their own tables: the
// offline store exists to let daschctl and tests run against a
// pre-seeded SQLite file without standing up DynamoDB, not to serve as
// a second source of truth for the schema.
type plateRow struct {
	PlateID      string `gorm:"primaryKey;column:plate_id"`
	Series       string `gorm:"column:series"`
	PlateNumber  int    `gorm:"column:plate_number"`
	AstrometryJS []byte `gorm:"column:astrometry_json"`
	MosaicJS     []byte `gorm:"column:mosaic_json"`
}

func (plateRow) TableName() string { return "plates" }

/*****************************************************************************************************************/

// refcatRow is the gorm model backing a local mirror of one reference
// catalog's rows, indexed by its 1/64-degree sky bin.
type refcatRow struct {
	RefNumber   uint64   `gorm:"primaryKey;column:ref_number"`
	Refcat      string   `gorm:"primaryKey;column:refcat"`
	GscBinIndex int64    `gorm:"column:gsc_bin_index;index"`
	RADeg       float64  `gorm:"column:ra_deg"`
	DecDeg      float64  `gorm:"column:dec_deg"`
	PMRaMasyr   *float64 `gorm:"column:pm_ra_masyr"`
	PMDecMasyr  *float64 `gorm:"column:pm_dec_masyr"`
	UPMRaMasyr  *float64 `gorm:"column:upm_ra_masyr"`
	UPMDecMasyr *float64 `gorm:"column:upm_dec_masyr"`
	StdMag      *float64 `gorm:"column:stdmag"`
	Color       *float64 `gorm:"column:color"`
	VFlag       string   `gorm:"column:v_flag"`
	MagFlag     string   `gorm:"column:mag_flag"`
	Class       string   `gorm:"column:class"`
}

func (refcatRow) TableName() string { return "refcat_rows" }

/*****************************************************************************************************************/

// coverageRow is the gorm model backing a local mirror of one line of a
// coverage-bin CSV.
type coverageRow struct {
	TotalBin int    `gorm:"primaryKey;column:total_bin;index"`
	PlateID  string `gorm:"primaryKey;column:plate_id"`
	SolNum   int    `gorm:"primaryKey;column:sol_num"`
	ExpNum   int    `gorm:"primaryKey;column:exp_num"`
}

func (coverageRow) TableName() string { return "coverage_rows" }

/*****************************************************************************************************************/

// SQLiteStore is an offline Store implementation for daschctl and
// tests, backed by a local SQLite file instead of DynamoDB and S3.
type SQLiteStore struct {
	db *gorm.DB
}

/*****************************************************************************************************************/

// OpenSQLiteStore opens (creating if necessary) a SQLite database at
// path and ensures its schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("metastore: opening sqlite store %s: %w", path, err)
	}

	if err := db.AutoMigrate(&plateRow{}, &refcatRow{}, &coverageRow{}); err != nil {
		return nil, fmt.Errorf("metastore: migrating sqlite store %s: %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

/*****************************************************************************************************************/

// SeedPlate inserts or replaces one plate row, for test fixtures and
// offline snapshots built by daschctl.
func (s *SQLiteStore) SeedPlate(plate *Plate) error {
	row, err := encodePlateRow(plate)
	if err != nil {
		return err
	}

	return s.db.Save(row).Error
}

/*****************************************************************************************************************/

// SeedRefcatRow inserts or replaces one refcat row under the named
// catalog.
func (s *SQLiteStore) SeedRefcatRow(refcat string, row RefcatRow) error {
	r := refcatRow{
		RefNumber:   row.RefNumber,
		Refcat:      refcat,
		GscBinIndex: row.GscBinIndex,
		RADeg:       row.RADeg,
		DecDeg:      row.DecDeg,
		PMRaMasyr:   row.PMRaMasyr,
		PMDecMasyr:  row.PMDecMasyr,
		UPMRaMasyr:  row.UPMRaMasyr,
		UPMDecMasyr: row.UPMDecMasyr,
		StdMag:      row.StdMag,
		Color:       row.Color,
		VFlag:       row.VFlag,
		MagFlag:     row.MagFlag,
		Class:       row.Class,
	}

	return s.db.Save(&r).Error
}

/*****************************************************************************************************************/

// SeedCoverageRow inserts or replaces one coverage-bin entry.
func (s *SQLiteStore) SeedCoverageRow(totalBin int, plateID string, se SolExp) error {
	row := coverageRow{TotalBin: totalBin, PlateID: plateID, SolNum: se.SolNum, ExpNum: se.ExpNum}
	return s.db.Save(&row).Error
}

/*****************************************************************************************************************/

// GetPlate performs a point lookup by primary key. Projection is
// ignored: SQLite rows are small enough that there is no bandwidth
// reason to project a subset of columns, unlike the DynamoDB-backed
// store this mirrors.
func (s *SQLiteStore) GetPlate(_ context.Context, plateID string, _ Projection) (*Plate, error) {
	var row plateRow

	err := s.db.First(&row, "plate_id = ?", plateID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("metastore: sqlite GetPlate %s: %w", plateID, err)
	}

	return decodePlateRow(&row)
}

/*****************************************************************************************************************/

// BatchGetPlates performs one IN-list query; SQLite has no analogue of
// DynamoDB's unprocessed-keys continuation since there is no per-item
// request size limit to contend with.
func (s *SQLiteStore) BatchGetPlates(_ context.Context, plateIDs []string, _ Projection) ([]*Plate, error) {
	var rows []plateRow

	if err := s.db.Where("plate_id IN ?", plateIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("metastore: sqlite BatchGetPlates: %w", err)
	}

	out := make([]*Plate, 0, len(rows))
	for i := range rows {
		plate, err := decodePlateRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, plate)
	}

	return out, nil
}

/*****************************************************************************************************************/

// QueryRefcatBin streams every row of the named catalog matching bin,
// in arbitrary order, via gorm's row cursor so that callers can bail
// out early without reading the whole result set.
func (s *SQLiteStore) QueryRefcatBin(_ context.Context, refcat string, bin int64, yield func(RefcatRow) bool) error {
	rowsCursor, err := s.db.Model(&refcatRow{}).
		Where("refcat = ? AND gsc_bin_index = ?", refcat, bin).
		Rows()
	if err != nil {
		return fmt.Errorf("metastore: sqlite QueryRefcatBin %s/%d: %w", refcat, bin, err)
	}
	defer rowsCursor.Close()

	for rowsCursor.Next() {
		var r refcatRow
		if err := s.db.ScanRows(rowsCursor, &r); err != nil {
			return fmt.Errorf("metastore: sqlite scanning refcat row: %w", err)
		}

		row := RefcatRow{
			RefNumber:   r.RefNumber,
			RADeg:       r.RADeg,
			DecDeg:      r.DecDeg,
			GscBinIndex: r.GscBinIndex,
			PMRaMasyr:   r.PMRaMasyr,
			PMDecMasyr:  r.PMDecMasyr,
			UPMRaMasyr:  r.UPMRaMasyr,
			UPMDecMasyr: r.UPMDecMasyr,
			StdMag:      r.StdMag,
			Color:       r.Color,
			VFlag:       r.VFlag,
			MagFlag:     r.MagFlag,
			Class:       r.Class,
		}

		if !yield(row) {
			return nil
		}
	}

	return rowsCursor.Err()
}

/*****************************************************************************************************************/

// FetchCoverageCSV streams every coverage row for totalBin in insertion
// order, playing the part of the sharded coverage CSVs held in object
// storage in the production store.
func (s *SQLiteStore) FetchCoverageCSV(_ context.Context, totalBin int, yield func(plateID string, se SolExp) error) error {
	var rows []coverageRow

	if err := s.db.Where("total_bin = ?", totalBin).Find(&rows).Error; err != nil {
		return fmt.Errorf("metastore: sqlite FetchCoverageCSV %d: %w", totalBin, err)
	}

	for _, r := range rows {
		if err := yield(r.PlateID, SolExp{SolNum: r.SolNum, ExpNum: r.ExpNum}); err != nil {
			return err
		}
	}

	return nil
}

/*****************************************************************************************************************/

func encodePlateRow(plate *Plate) (*plateRow, error) {
	row := &plateRow{
		PlateID:     plate.PlateID,
		Series:      plate.Series,
		PlateNumber: plate.PlateNumber,
	}

	if plate.Astrometry != nil {
		js, err := json.Marshal(plate.Astrometry)
		if err != nil {
			return nil, fmt.Errorf("metastore: encoding astrometry for %s: %w", plate.PlateID, err)
		}
		row.AstrometryJS = js
	}

	if plate.Mosaic != nil {
		js, err := json.Marshal(plate.Mosaic)
		if err != nil {
			return nil, fmt.Errorf("metastore: encoding mosaic for %s: %w", plate.PlateID, err)
		}
		row.MosaicJS = js
	}

	return row, nil
}

/*****************************************************************************************************************/

func decodePlateRow(row *plateRow) (*Plate, error) {
	plate := &Plate{
		PlateID:     row.PlateID,
		Series:      row.Series,
		PlateNumber: row.PlateNumber,
	}

	if len(row.AstrometryJS) > 0 {
		var a Astrometry
		if err := json.Unmarshal(row.AstrometryJS, &a); err != nil {
			return nil, fmt.Errorf("%w: decoding astrometry for %s: %v", errSchema, row.PlateID, err)
		}
		plate.Astrometry = &a
	}

	if len(row.MosaicJS) > 0 {
		var m Mosaic
		if err := json.Unmarshal(row.MosaicJS, &m); err != nil {
			return nil, fmt.Errorf("%w: decoding mosaic for %s: %v", errSchema, row.PlateID, err)
		}
		plate.Mosaic = &m
	}

	return plate, nil
}

/*****************************************************************************************************************/

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*DynamoStore)(nil)

/*****************************************************************************************************************/
