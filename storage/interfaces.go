package storage

import "github.com/reiniercriel/menapiai-data-pipeline/models"

// CanonicalSink is the interface any secondary canonical-table sink must
// satisfy. The Parquet dataset is the primary output and is used directly;
// sinks are additive.
type CanonicalSink interface {
	WriteHousing(byType map[string][]models.HousingRecord) error
	WriteEmployment(records []models.EmploymentRecord) error
	Close() error
}
