// Package feature builds and loads named feature blocks. A block is a group
// of columns computed together by a Producer and persisted through the cache
// package, so expensive feature engineering runs once per directory. Load
// concatenates blocks column-wise back into a core.Dataset. LabelEncoder
// maps string categories to stable integer codes for trainers that expect
// numeric input.
package feature
