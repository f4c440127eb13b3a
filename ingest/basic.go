package ingest

import (
	"path/filepath"
	"strconv"

	"github.com/reiniercriel/menapiai-data-pipeline/config"
	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/storage"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

// Placeholder ingestion stubs. These emit fixed sample rows so downstream
// plumbing can be exercised before a real source is wired; they carry no
// algorithmic content.

var sampleHomes = []models.SampleHome{
	{PropertyID: 1, Location: "Location A", Price: 250000, Bedrooms: 3, Bathrooms: 2},
	{PropertyID: 2, Location: "Location B", Price: 350000, Bedrooms: 4, Bathrooms: 3},
	{PropertyID: 3, Location: "Location C", Price: 450000, Bedrooms: 5, Bathrooms: 3},
}

var sampleJobs = []models.SampleJob{
	{JobID: 1, Title: "Electrician - Residential", Company: "Company A", Location: "City A", Salary: 55000},
	{JobID: 2, Title: "Master Electrician", Company: "Company B", Location: "City B", Salary: 75000},
	{JobID: 3, Title: "Apprentice Electrician", Company: "Company C", Location: "City C", Salary: 35000},
}

// IngestBasicHousing writes the fixed housing sample rows to
// <raw>/housing/housing_basic.csv and returns the path.
func IngestBasicHousing(cfg *config.Config, logger *utils.Logger) (string, error) {
	path := filepath.Join(cfg.RawDataDir, "housing", "housing_basic.csv")

	w, err := storage.NewCSVWriter(path, []string{"property_id", "location", "price", "bedrooms", "bathrooms"})
	if err != nil {
		return "", err
	}
	defer w.Close()

	rows := make([][]string, 0, len(sampleHomes))
	for _, h := range sampleHomes {
		rows = append(rows, []string{
			strconv.FormatInt(h.PropertyID, 10),
			h.Location,
			strconv.FormatInt(h.Price, 10),
			strconv.Itoa(h.Bedrooms),
			strconv.Itoa(h.Bathrooms),
		})
	}
	if err := w.WriteRows(rows); err != nil {
		return "", err
	}

	logger.Info("[basic] Saved %d sample housing records to %s", len(rows), path)
	return path, nil
}

// IngestBasicJobs writes the fixed electrician-jobs sample rows to
// <raw>/jobs/jobs_electrician_basic.csv and returns the path.
func IngestBasicJobs(cfg *config.Config, logger *utils.Logger) (string, error) {
	path := filepath.Join(cfg.RawDataDir, "jobs", "jobs_electrician_basic.csv")

	w, err := storage.NewCSVWriter(path, []string{"job_id", "title", "company", "location", "salary"})
	if err != nil {
		return "", err
	}
	defer w.Close()

	rows := make([][]string, 0, len(sampleJobs))
	for _, j := range sampleJobs {
		rows = append(rows, []string{
			strconv.FormatInt(j.JobID, 10),
			j.Title,
			j.Company,
			j.Location,
			strconv.FormatInt(j.Salary, 10),
		})
	}
	if err := w.WriteRows(rows); err != nil {
		return "", err
	}

	logger.Info("[basic] Saved %d sample job records to %s", len(rows), path)
	return path, nil
}
