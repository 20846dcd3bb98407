package meta

const (
	// CLIName is the name of the executable and of its configuration directory.
	CLIName = "tablemodel"
	// EnvPrefix prefixes every environment variable the CLI reads.
	EnvPrefix = "TABLEMODEL"
)
