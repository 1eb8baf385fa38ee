// Package classify decides whether table content is purely numeric and
// derives the numeric structure of validated tables.
//
// # Cell Classification
//
// [IsPurelyNumeric] applies to any sequence of cell text, a column (one
// value per row) or a row (one value per column). [Explain] returns the
// same decision together with the stage that made it:
//
//	v := classify.Explain(cfg, []string{"¥1,200", "800", "合計"})
//	fmt.Println(v.Stage, v.NumericRatio) // accepted 1
//
// The thresholds tolerate mixed formatting such as currency glyphs or a
// stray unit suffix, while rejecting descriptive text and times of day.
//
// # Structure Analysis
//
// [Analyze] runs the classifier over every non-metadata column and row and
// labels the table a data table or a text table.
package classify
