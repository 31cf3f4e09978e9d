package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stefanbaur/errsight/internal/api/response"
	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/internal/config"
	"github.com/stefanbaur/errsight/internal/logparse"
	"github.com/stefanbaur/errsight/internal/store"
	"github.com/stefanbaur/errsight/pkg/models"
)

// multipartMemory caps the in-memory portion of multipart parsing; larger
// parts spill to temp files.
const multipartMemory = 32 << 20

const criticalAlertLimit = 10
const topErrorTypes = 5

// uploadedFileInfo is the per-file echo in the upload response.
type uploadedFileInfo struct {
	Filename       string `json:"filename"`
	Size           int64  `json:"size"`
	DetectedFormat string `json:"detected_format"`
	ErrorsFound    int    `json:"errors_found"`
}

type uploadResponse struct {
	BatchID     uuid.UUID           `json:"batch_id"`
	Message     string              `json:"message"`
	Files       []uploadedFileInfo  `json:"files"`
	TotalFiles  int                 `json:"total_files"`
	TotalErrors int                 `json:"total_errors"`
	Summary     models.ErrorSummary `json:"summary"`
	Warnings    []string            `json:"warnings"`
}

// criticalPayload is the cached shape of the critical-errors alert list.
type criticalPayload struct {
	CriticalErrors []models.ErrorRecord `json:"critical_errors"`
}

// NewUploadHandler returns the handler for POST /api/v1/upload. It validates
// the multipart files, parses every valid one into error records with
// globally sequential IDs, caches the record set and its dashboard
// aggregates, and archives the batch in the store.
func NewUploadHandler(c cache.Cache, s store.Store, cfg config.UploadConfig, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Request must be multipart/form-data", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["files"]
		valid, validationErrs, warnings := validateFiles(headers, cfg)
		if len(validationErrs) > 0 || len(valid) == 0 {
			if len(validationErrs) == 0 {
				validationErrs = append(validationErrs, "No files provided")
			}
			response.Error(w, http.StatusBadRequest, "VALIDATION_FAILED",
				"File validation failed", map[string][]string{
					"errors":   validationErrs,
					"warnings": warnings,
				})
			return
		}

		allRecords := []models.ErrorRecord{}
		fileInfos := make([]uploadedFileInfo, 0, len(valid))
		batchFiles := make([]*models.UploadFile, 0, len(valid))
		batchID := uuid.New()
		now := time.Now().UTC()

		for _, fh := range valid {
			content, err := readFile(fh)
			if err != nil {
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					fmt.Sprintf("Failed to read file '%s'", fh.Filename), nil)
				return
			}

			fileRecords := logparse.Parse(content, fh.Filename)
			for i := range fileRecords {
				fileRecords[i].ID = len(allRecords) + 1
				allRecords = append(allRecords, fileRecords[i])
			}

			format := string(logparse.Detect(content, fh.Filename))
			fileInfos = append(fileInfos, uploadedFileInfo{
				Filename:       fh.Filename,
				Size:           fh.Size,
				DetectedFormat: format,
				ErrorsFound:    len(fileRecords),
			})
			batchFiles = append(batchFiles, &models.UploadFile{
				ID:             uuid.New(),
				BatchID:        batchID,
				Filename:       fh.Filename,
				SizeBytes:      fh.Size,
				DetectedFormat: format,
				ErrorsFound:    len(fileRecords),
				CreatedAt:      now,
			})
		}

		summary, types, users, critical, timeline := buildAggregates(allRecords, len(fileInfos))

		if err := cacheAggregates(r, c, ttl, allRecords, summary, types, users, critical, timeline); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to store analysis results", nil)
			return
		}

		batch := &models.UploadBatch{
			ID:             batchID,
			FilesAnalyzed:  summary.FilesAnalyzed,
			TotalErrors:    summary.TotalErrors,
			CriticalErrors: summary.CriticalErrors,
			ActiveUsers:    summary.ActiveUsers,
			CreatedAt:      now,
		}
		if err := s.CreateUploadBatch(r.Context(), batch, batchFiles); err != nil {
			// The analysis is already cached and usable; losing the archive
			// row degrades history, not the dashboard.
			slog.Error("archive upload batch", "batch_id", batchID, "error", err)
		}

		if warnings == nil {
			warnings = []string{}
		}
		response.Created(w, uploadResponse{
			BatchID:     batchID,
			Message:     "Files analyzed successfully",
			Files:       fileInfos,
			TotalFiles:  len(fileInfos),
			TotalErrors: len(allRecords),
			Summary:     summary,
			Warnings:    warnings,
		})
	}
}

// validateFiles applies the extension allowlist and size caps. Files failing
// a check produce an error and are skipped; undetectable formats produce a
// warning and pass through.
func validateFiles(headers []*multipart.FileHeader, cfg config.UploadConfig) (valid []*multipart.FileHeader, errs, warnings []string) {
	if len(headers) == 0 {
		return nil, []string{"No files provided"}, nil
	}

	var totalSize int64
	for _, fh := range headers {
		if !allowedExtension(fh.Filename, cfg.AllowedExtensions) {
			errs = append(errs, fmt.Sprintf("File '%s' has invalid extension. Allowed: %s",
				fh.Filename, strings.Join(cfg.AllowedExtensions, ", ")))
			continue
		}
		if fh.Size > cfg.MaxFileBytes {
			errs = append(errs, fmt.Sprintf("File '%s' is too large (%d bytes)", fh.Filename, fh.Size))
			continue
		}
		totalSize += fh.Size

		if detectFromFilename(fh.Filename) == logparse.FormatUnknown {
			warnings = append(warnings, fmt.Sprintf("Could not detect log type for '%s'", fh.Filename))
		}
		valid = append(valid, fh)
	}

	if totalSize > cfg.MaxFileBytes {
		errs = append(errs, fmt.Sprintf("Total file size (%d bytes) exceeds limit (%d bytes)",
			totalSize, cfg.MaxFileBytes))
	}
	return valid, errs, warnings
}

func allowedExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// detectFromFilename checks the filename prefix only; content sniffing
// happens later during parsing.
func detectFromFilename(filename string) logparse.Format {
	return logparse.Detect("", filename)
}

func readFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// buildAggregates derives the dashboard data sets from the full record set.
func buildAggregates(records []models.ErrorRecord, filesAnalyzed int) (models.ErrorSummary, models.ChartData, models.ChartData, criticalPayload, models.ChartData) {
	userCounts := map[string]int{}
	typeCounts := map[string]int{}
	critical := []models.ErrorRecord{}

	for _, rec := range records {
		userCounts[rec.User]++
		typeCounts[rec.Type]++
		if rec.Severity == models.SeverityCritical && len(critical) < criticalAlertLimit {
			critical = append(critical, rec)
		}
	}

	criticalTotal := 0
	for _, rec := range records {
		if rec.Severity == models.SeverityCritical {
			criticalTotal++
		}
	}

	summary := models.ErrorSummary{
		TotalErrors:    len(records),
		CriticalErrors: criticalTotal,
		ActiveUsers:    len(userCounts),
		FilesAnalyzed:  filesAnalyzed,
	}

	types := countsToChart(typeCounts, topErrorTypes)
	users := countsToChart(userCounts, 0)
	timeline := timelineChart(records)

	return summary, types, users, criticalPayload{CriticalErrors: critical}, timeline
}

// countsToChart sorts by count descending (ties lexicographic) and
// optionally truncates to the top N labels.
func countsToChart(counts map[string]int, topN int) models.ChartData {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if topN > 0 && len(labels) > topN {
		labels = labels[:topN]
	}

	data := make([]int, len(labels))
	for i, label := range labels {
		data[i] = counts[label]
	}
	return models.ChartData{Labels: labels, Data: data}
}

// timelineChart buckets records per day, sorted chronologically. Records
// with unparseable timestamps count toward today.
func timelineChart(records []models.ErrorRecord) models.ChartData {
	daily := map[string]int{}
	for _, rec := range records {
		ts, err := time.ParseInLocation(models.TimestampLayout, rec.Timestamp, time.Local)
		if err != nil {
			daily[time.Now().Format("2006-01-02")]++
			continue
		}
		daily[ts.Format("2006-01-02")]++
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	data := make([]int, len(dates))
	for i, d := range dates {
		data[i] = daily[d]
	}
	return models.ChartData{Labels: dates, Data: data}
}

func cacheAggregates(r *http.Request, c cache.Cache, ttl time.Duration,
	records []models.ErrorRecord, summary models.ErrorSummary,
	types, users models.ChartData, critical criticalPayload, timeline models.ChartData) error {

	entries := []struct {
		key   string
		value any
	}{
		{cache.RecordsKey, records},
		{cache.SummaryKey, summary},
		{cache.TypesKey, types},
		{cache.UserActivityKey, users},
		{cache.CriticalKey, critical},
		{cache.TimelineKey, timeline},
	}
	for _, e := range entries {
		b, err := json.Marshal(e.value)
		if err != nil {
			return err
		}
		if err := c.Set(r.Context(), e.key, b, ttl); err != nil {
			return err
		}
	}
	return nil
}
