package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/render"
)

// WriteDifferencesReport writes the differences report of a comparison to a file
// Format can be "human", "json" or "html"
func WriteDifferencesReport(result *models.ComparisonResult, filepath string, format string, mode render.Mode) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create differences file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeDifferencesJSON(result, file)
	case "html":
		err = render.NewHTML().Page(file, result, mode)
	default: // "human"
		err = writeDifferencesHuman(result, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write differences report: %w", err)
	}
	return file.Close()
}

// writeDifferencesHuman writes differences in human-readable format
func writeDifferencesHuman(result *models.ComparisonResult, w io.Writer) error {
	summary := result.Summary()

	fmt.Fprintf(w, "Differences Report\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Original: %s (version %s)\n", result.LeftFile.FileName, orDash(result.LeftFile.Version))
	fmt.Fprintf(w, "Modified: %s (version %s)\n", result.RightFile.FileName, orDash(result.RightFile.Version))
	fmt.Fprintf(w, "Similarity: %.2f%%\n\n", result.SimilarityPercentage)

	fmt.Fprintf(w, "Total Differences: %d\n", len(result.Differences))
	fmt.Fprintf(w, "  Added:    %d\n", summary.AddedLines)
	fmt.Fprintf(w, "  Deleted:  %d\n", summary.DeletedLines)
	fmt.Fprintf(w, "  Modified: %d\n\n", summary.ModifiedLines)

	if render.ShowIdentical(result) {
		fmt.Fprintf(w, "%s\n", render.IdenticalMessage)
		return nil
	}

	typeOrder := []models.DifferenceType{models.DiffDeleted, models.DiffAdded, models.DiffModified}
	typeLabels := map[models.DifferenceType]string{
		models.DiffDeleted:  "Deleted Lines",
		models.DiffAdded:    "Added Lines",
		models.DiffModified: "Modified Lines",
	}

	byType := make(map[models.DifferenceType][]render.Block)
	for _, b := range render.Blocks(result.Differences) {
		byType[b.Type] = append(byType[b.Type], b)
	}

	for _, t := range typeOrder {
		blocks := byType[t]
		if len(blocks) == 0 {
			continue
		}

		label := fmt.Sprintf("%s (%d)", typeLabels[t], len(blocks))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

		for _, b := range blocks {
			fmt.Fprintf(w, "  Lines %s\n", b.Lines)
			fmt.Fprintf(w, "    Original: %s\n", b.Original.Text)
			fmt.Fprintf(w, "    Modified: %s\n", b.Modified.Text)
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

// writeDifferencesJSON writes differences in JSON format
func writeDifferencesJSON(result *models.ComparisonResult, w io.Writer) error {
	differences := result.Differences
	if differences == nil {
		differences = []models.DifferenceEntry{}
	}

	output := struct {
		Generated            string                   `json:"generated"`
		LeftFile             models.FileDescriptor    `json:"leftFile"`
		RightFile            models.FileDescriptor    `json:"rightFile"`
		Identical            bool                     `json:"identical"`
		SimilarityPercentage float64                  `json:"similarityPercentage"`
		Summary              models.Summary           `json:"summary"`
		TotalCount           int                      `json:"totalCount"`
		Differences          []models.DifferenceEntry `json:"differences"`
	}{
		Generated:            time.Now().Format(time.RFC3339),
		LeftFile:             result.LeftFile,
		RightFile:            result.RightFile,
		Identical:            result.Identical,
		SimilarityPercentage: result.SimilarityPercentage,
		Summary:              result.Summary(),
		TotalCount:           len(result.Differences),
		Differences:          differences,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
