// Package tableio converts long-format CSV and Excel sources into tables and
// writes tables back as CSV.
//
// A long-format source has one row per observation. Layout names the columns
// that form the index (time, asset or both); the remaining columns are
// numeric indicators. Blank cells read as NaN.
package tableio
