// Package migrate upgrades versioned on-disk documents one schema version at
// a time.
package migrate

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Migration upgrades a document from the previous schema version to Version.
type Migration struct {
	// Version is the schema version this migration produces.
	Version int
	// Description is a short human-readable label for log output.
	Description string
	// Upgrade transforms data from the prior version to [Migration.Version].
	Upgrade func(data []byte) ([]byte, error)
}

// Registry holds the current version and migrations for one document kind.
type Registry struct {
	// CurrentVersion is the schema version written by this build.
	CurrentVersion int
	// Migrations is the list of versioned upgrades, in any order.
	Migrations []Migration
}

// ///////////////////////////////////////////////
// Registry
// ///////////////////////////////////////////////

// Register adds m to the registry. It panics on a duplicate version or a
// version beyond CurrentVersion, both of which are programming errors.
func (r *Registry) Register(m Migration) {
	if m.Version > r.CurrentVersion {
		panic(fmt.Sprintf("migrate: migration v%d is newer than current version v%d", m.Version, r.CurrentVersion))
	}
	for _, existing := range r.Migrations {
		if existing.Version == m.Version {
			panic(fmt.Sprintf("migrate: duplicate migration version %d (description: %q)", m.Version, m.Description))
		}
	}
	r.Migrations = append(r.Migrations, m)
}

// NeedsMigration reports whether a document at fileVersion is out of date.
func (r *Registry) NeedsMigration(fileVersion int) bool {
	return fileVersion != r.CurrentVersion
}

// Run applies every registered migration newer than fromVersion in version
// order. It returns the transformed data and the version reached; on error
// the version is the last one successfully applied.
func (r *Registry) Run(data []byte, fromVersion int) ([]byte, int, error) {
	if fromVersion > r.CurrentVersion {
		return nil, fromVersion, fmt.Errorf("version %d is newer than supported version %d", fromVersion, r.CurrentVersion)
	}

	sorted := slices.Clone(r.Migrations)
	slices.SortFunc(sorted, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })

	version := fromVersion
	for _, m := range sorted {
		if m.Version <= version {
			continue
		}
		slog.Debug("applying migration", "version", m.Version, "description", m.Description)
		out, err := m.Upgrade(data)
		if err != nil {
			return nil, version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		data = out
		version = m.Version
	}
	return data, version, nil
}
