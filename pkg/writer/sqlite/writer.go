// Package sqlite writes computed isotope patterns as an SQLite spectral library
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/formula"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for MaintenanceTable (space-separated, as mzVault expects)
	maintenanceDateFormat = "2006 01 02"
)

// Writer handles writing isotope patterns to SQLite database files
type Writer struct {
	db           *sql.DB
	outputPath   string
	compoundStmt *sql.Stmt
	spectrumStmt *sql.Stmt
	compoundID   int
	finalized    bool
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		compoundID: 1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS CompoundTable (
		CompoundId INTEGER PRIMARY KEY,
		Formula TEXT,
		Name TEXT,
		Synonyms BLOB_TEXT,
		Tag TEXT,
		Sequence TEXT,
		CASId TEXT,
		ChemSpiderId TEXT,
		HMDBId TEXT,
		KEGGId TEXT,
		PubChemId TEXT,
		Structure BLOB_TEXT,
		mzCloudId INTEGER,
		CompoundClass TEXT,
		SmilesDescription TEXT,
		InChiKey TEXT
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		CompoundId INTEGER REFERENCES CompoundTable(CompoundId),
		mzCloudURL TEXT,
		ScanFilter TEXT,
		RetentionTime DOUBLE,
		ScanNumber INTEGER,
		PrecursorMass DOUBLE,
		NeutralMass DOUBLE,
		CollisionEnergy DOUBLE,
		Polarity TEXT,
		FragmentationMode TEXT,
		IonizationMode TEXT,
		MassAnalyzer TEXT,
		InstrumentName TEXT,
		InstrumentOperator TEXT,
		RawFileURL TEXT,
		blobMass BLOB,
		blobIntensity BLOB,
		blobAccuracy BLOB,
		blobResolution BLOB,
		blobNoises BLOB,
		blobFlags BLOB,
		blobTopPeaks BLOB,
		Version INTEGER,
		CreationDate TEXT,
		Curator TEXT,
		CurationType TEXT,
		PrecursorIonType TEXT,
		Accession TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT,
		Company TEXT,
		ReadOnly BOOL,
		UserAccess TEXT,
		PartialEdits BOOL
	);

	CREATE TABLE IF NOT EXISTS MaintenanceTable (
		CreationDate TEXT,
		NoofCompoundsModified INTEGER,
		Description TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.compoundStmt, err = w.db.Prepare(`
		INSERT INTO CompoundTable (
			CompoundId, Formula, Name, Synonyms, Tag, Sequence,
			CASId, ChemSpiderId, HMDBId, KEGGId, PubChemId,
			Structure, mzCloudId, CompoundClass, SmilesDescription, InChiKey
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare compound statement: %w", err)
	}

	w.spectrumStmt, err = w.db.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, CompoundId, mzCloudURL, ScanFilter, RetentionTime,
			ScanNumber, PrecursorMass, NeutralMass, CollisionEnergy, Polarity,
			FragmentationMode, IonizationMode, MassAnalyzer, InstrumentName,
			InstrumentOperator, RawFileURL, blobMass, blobIntensity,
			blobAccuracy, blobResolution, blobNoises, blobFlags,
			blobTopPeaks, Version, CreationDate, Curator, CurationType,
			PrecursorIonType, Accession
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	return nil
}

// WritePattern writes a single isotope pattern to the database
func (w *Writer) WritePattern(p *core.Pattern) error {
	if p.Distribution == nil || p.Distribution.Len() == 0 {
		return fmt.Errorf("pattern %s has no peaks", p.Name)
	}
	if err := p.Distribution.Validate(); err != nil {
		return fmt.Errorf("pattern %s: %w", p.Name, err)
	}

	hill := formula.Hill(p.Formula)
	tag := fmt.Sprintf("charge:%d minIsotope:%g minFormula:%g decimals:%d monoisotopic:%t",
		p.Distribution.Charge, p.Options.MinimumIsotopeAbundance, p.Options.MinimumFormulaAbundance,
		p.Options.Decimals, p.Options.Monoisotopic)

	// Insert into CompoundTable
	_, err := w.compoundStmt.Exec(
		w.compoundID, // CompoundId
		hill,         // Formula
		p.Name,       // Name
		"",           // Synonyms
		tag,          // Tag
		"",           // Sequence
		"",           // CASId
		"",           // ChemSpiderId
		"",           // HMDBId
		"",           // KEGGId
		"",           // PubChemId
		"",           // Structure
		nil,          // mzCloudId
		"",           // CompoundClass
		"",           // SmilesDescription
		"",           // InChiKey
	)
	if err != nil {
		return fmt.Errorf("failed to insert compound: %w", err)
	}

	// Peaks are stored in mass order regardless of the computed order
	peaks := &core.MassDistribution{
		Masses:     append([]float64(nil), p.Distribution.Masses...),
		Abundances: append([]float64(nil), p.Distribution.Abundances...),
		Charge:     p.Distribution.Charge,
	}
	peaks.SortByMass()

	massBlob := encodeFloat64(peaks.Masses)
	intBlob := encodeFloat64(peaks.Abundances)

	base, _ := p.Distribution.BasePeak()

	// Insert into SpectrumTable
	_, err = w.spectrumStmt.Exec(
		w.compoundID,       // SpectrumId (same as CompoundId for 1:1 mapping)
		w.compoundID,       // CompoundId
		"",                 // mzCloudURL
		"",                 // ScanFilter
		nil,                // RetentionTime
		0,                  // ScanNumber
		base.Mass,          // PrecursorMass
		p.MonoisotopicMass, // NeutralMass
		nil,                // CollisionEnergy
		p.Polarity(),       // Polarity
		"",                 // FragmentationMode
		"",                 // IonizationMode
		"",                 // MassAnalyzer
		"",                 // InstrumentName
		"",                 // InstrumentOperator
		"",                 // RawFileURL
		massBlob,           // blobMass
		intBlob,            // blobIntensity
		nil,                // blobAccuracy
		nil,                // blobResolution
		nil,                // blobNoises
		nil,                // blobFlags
		nil,                // blobTopPeaks
		nil,                // Version
		nil,                // CreationDate
		"",                 // Curator
		"",                 // CurationType
		p.Adduct,           // PrecursorIonType
		"",                 // Accession
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}

	w.compoundID++
	return nil
}

// Count returns the number of patterns written so far.
func (w *Writer) Count() int {
	return w.compoundID - 1
}

// encodeFloat64 encodes values as a little-endian float64 blob
func encodeFloat64(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64 decodes a blob written by the writer.
func DecodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out, nil
}

// Finalize writes the header and maintenance tables and closes the database.
// The database is closed even when writing the tables fails.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	err := w.writeMetadata()

	// Close prepared statements
	if w.compoundStmt != nil {
		w.compoundStmt.Close()
	}
	if w.spectrumStmt != nil {
		w.spectrumStmt.Close()
	}

	// Close database
	if closeErr := w.db.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close database: %w", closeErr)
	}

	return err
}

// writeMetadata fills HeaderTable and MaintenanceTable
func (w *Writer) writeMetadata() error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description, Company, ReadOnly, UserAccess, PartialEdits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, 5, time.Now().Format(headerDateFormat), time.Now().Format(headerDateFormat), "Isotope patterns", "", false, "", false)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	_, err = w.db.Exec(`
		INSERT INTO MaintenanceTable (CreationDate, NoofCompoundsModified, Description)
		VALUES (?, ?, ?)
	`, time.Now().Format(maintenanceDateFormat), w.Count(), "masscalc export")
	if err != nil {
		return fmt.Errorf("failed to insert maintenance: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize). It is a no-op
// after Finalize.
func (w *Writer) Close() error {
	return w.Finalize()
}
