package main

// Default limits for CLI commands.
const (
	DefaultHistoryLimit = 50
	DefaultSearchLimit  = 20
)

// Valid output formats per command family.
var (
	exportFormats    = []string{"json", "csv"}
	diffFormats      = []string{"text", "json", "markdown"}
	relationsFormats = []string{"tree", "list", "json"}
	resultFormats    = []string{"text", "json"}
)

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
