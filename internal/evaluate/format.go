package evaluate

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sjwhitworth/golearn/evaluation"
)

// className is the display name of a class, unique even for duplicate or empty labels.
func (r *Result) className(c int) string {
	return fmt.Sprintf("%d:%s", c, r.Labels[c])
}

// ConfusionMatrix converts the confusion matrix into the keyed form used for the precision and recall summary.
func (r *Result) ConfusionMatrix() evaluation.ConfusionMatrix {
	cm := make(evaluation.ConfusionMatrix)
	for actual := 1; actual < len(r.Confusion); actual++ {
		row := make(map[string]int)
		for predicted := 1; predicted < len(r.Confusion[actual]); predicted++ {
			row[r.className(predicted)] = r.Confusion[actual][predicted]
		}
		cm[r.className(actual)] = row
	}
	return cm
}

// Summary returns the per-class precision, recall and f1 score of the result.
func (r *Result) Summary() string {
	return evaluation.GetSummary(r.ConfusionMatrix())
}

// WriteConfusion renders the confusion matrix as a table.
func (r *Result) WriteConfusion(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(r.header())
	for actual := 1; actual < len(r.Confusion); actual++ {
		row := []string{r.className(actual)}
		for predicted := 1; predicted < len(r.Confusion[actual]); predicted++ {
			row = append(row, strconv.Itoa(r.Confusion[actual][predicted]))
		}
		row = append(row, strconv.FormatFloat(r.ClassAccuracy[actual], 'f', 3, 64))
		table.Append(row)
	}
	table.Render()
}

// WriteSimilarity renders the similarity matrix as a table.
func (r *Result) WriteSimilarity(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(r.header()[:len(r.Labels)])
	for actual := 1; actual < len(r.Similarity); actual++ {
		row := []string{r.className(actual)}
		for c := 1; c < len(r.Similarity[actual]); c++ {
			row = append(row, strconv.FormatFloat(r.Similarity[actual][c], 'f', 2, 64))
		}
		table.Append(row)
	}
	table.Render()
}

func (r *Result) header() []string {
	header := []string{"class"}
	for c := 1; c < len(r.Labels); c++ {
		header = append(header, r.className(c))
	}
	return append(header, "accuracy")
}

// WriteReport renders the per split accuracies and their mean.
func (r *Report) WriteReport(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"split", "id", "images", "accuracy", "pearson"})
	for i, result := range r.Results {
		pearson := "-"
		if result.HasPearson {
			pearson = strconv.FormatFloat(result.Pearson, 'f', 3, 64)
		}
		table.Append([]string{
			strconv.Itoa(i),
			result.ID,
			strconv.Itoa(result.Images),
			strconv.FormatFloat(result.Accuracy, 'f', 3, 64),
			pearson,
		})
	}
	table.SetFooter([]string{"", "", "mean", fmt.Sprintf("%.3f ± %.3f", r.Mean, r.StdDev), ""})
	table.Render()
}
