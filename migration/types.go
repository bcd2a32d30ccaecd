package migration

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

type Migration struct {
	Version   string
	Name      string
	CreatedAt time.Time
	Up        func(*gorm.DB) error
	Down      func(*gorm.DB) error
}

type MigrationRecord struct {
	Version   string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// Status pairs a known migration with whether it has been applied.
type Status struct {
	Migration *Migration
	Applied   bool
}

var (
	globalMigrations = make([]*Migration, 0)
	registryMutex    sync.RWMutex
)

func RegisterMigration(migration *Migration) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = append(globalMigrations, migration)
}

// GetRegisteredMigrations returns a copy of the registry sorted by version.
func GetRegisteredMigrations() []*Migration {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	migrations := make([]*Migration, len(globalMigrations))
	copy(migrations, globalMigrations)
	sortByVersion(migrations)
	return migrations
}

func ResetMigrations() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = make([]*Migration, 0)
}

type Migrator struct {
	db         *gorm.DB
	migrations []*Migration
}

// NewMigrator returns a migrator seeded with every registered migration.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetRegisteredMigrations(),
	}
}

// NewEmptyMigrator returns a migrator that only knows what is passed to Register.
func NewEmptyMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db}
}

func (m *Migrator) Register(migration *Migration) {
	m.migrations = append(m.migrations, migration)
	sortByVersion(m.migrations)
}

func (m *Migrator) Migrations() []*Migration {
	return m.migrations
}

func (m *Migrator) ensureVersionTable() error {
	return m.db.AutoMigrate(&MigrationRecord{})
}

func (m *Migrator) GetAppliedVersions() (map[string]bool, error) {
	if err := m.ensureVersionTable(); err != nil {
		return nil, err
	}

	var records []MigrationRecord
	if err := m.db.Find(&records).Error; err != nil {
		return nil, err
	}

	versions := make(map[string]bool)
	for _, record := range records {
		versions[record.Version] = true
	}
	return versions, nil
}

// Pending lists migrations not yet applied, oldest first.
func (m *Migrator) Pending() ([]*Migration, error) {
	applied, err := m.GetAppliedVersions()
	if err != nil {
		return nil, err
	}

	var pending []*Migration
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

func (m *Migrator) Status() ([]Status, error) {
	applied, err := m.GetAppliedVersions()
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(m.migrations))
	for _, migration := range m.migrations {
		statuses = append(statuses, Status{Migration: migration, Applied: applied[migration.Version]})
	}
	return statuses, nil
}

// History returns applied records, most recent first.
func (m *Migrator) History() ([]MigrationRecord, error) {
	if err := m.ensureVersionTable(); err != nil {
		return nil, err
	}

	var records []MigrationRecord
	if err := m.db.Order("applied_at DESC").Order("version DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns the ones it applied.
func (m *Migrator) Up() ([]*Migration, error) {
	pending, err := m.Pending()
	if err != nil {
		return nil, err
	}

	var done []*Migration
	for _, mr := range pending {
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mr.Up(tx); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", mr.Name, err)
			}

			record := MigrationRecord{
				Version:   mr.Version,
				Name:      mr.Name,
				AppliedAt: time.Now(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", mr.Name, err)
			}
			return nil
		})
		if err != nil {
			return done, err
		}
		done = append(done, mr)
	}
	return done, nil
}

// Down rolls back the most recently applied migration. It returns nil, nil
// when nothing has been applied.
func (m *Migrator) Down() (*Migration, error) {
	records, err := m.History()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	lastRecord := records[0]

	var targetMigration *Migration
	for _, migration := range m.migrations {
		if migration.Version == lastRecord.Version {
			targetMigration = migration
			break
		}
	}

	if targetMigration == nil {
		return nil, fmt.Errorf("migration for version %s not found", lastRecord.Version)
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := targetMigration.Down(tx); err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", targetMigration.Name, err)
		}
		return tx.Delete(&lastRecord).Error
	})
	if err != nil {
		return nil, err
	}
	return targetMigration, nil
}

func sortByVersion(migrations []*Migration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
}

// ModelRegistry - users must implement this
type ModelRegistry interface {
	GetModels() map[string]interface{}
}

// Global registry - set in main.go
var GlobalModelRegistry ModelRegistry

// Validate that registry is provided
func ValidateRegistry() error {
	if GlobalModelRegistry == nil {
		return fmt.Errorf("no model registry provided. Please implement migration.ModelRegistry and set it in your main.go")
	}
	return nil
}

// MissingTables returns the names of registered models whose table does not
// exist in db.
func MissingTables(db *gorm.DB) ([]string, error) {
	if err := ValidateRegistry(); err != nil {
		return nil, err
	}

	var missing []string
	for name, model := range GlobalModelRegistry.GetModels() {
		if !db.Migrator().HasTable(model) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Validate checks a migration list before anything is run: every entry
// needs a version, a name and both directions, and versions must be unique.
func Validate(migrations []*Migration) error {
	seen := make(map[string]string, len(migrations))
	for _, m := range migrations {
		switch {
		case m.Version == "":
			return fmt.Errorf("migration %q has no version", m.Name)
		case m.Name == "":
			return fmt.Errorf("migration %s has no name", m.Version)
		case m.Up == nil || m.Down == nil:
			return fmt.Errorf("migration %s (%s) must define Up and Down", m.Name, m.Version)
		}
		if other, ok := seen[m.Version]; ok {
			return fmt.Errorf("migrations %s and %s share version %s", other, m.Name, m.Version)
		}
		seen[m.Version] = m.Name
	}
	return nil
}
