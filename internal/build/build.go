package build

// Info describes the binary being executed. Values are injected by the linker
// for release builds.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// Empty type to represent the _type_ Info. Genesis is to support a key in a Context
type Key struct{}

// InfoKey is a global instance of the Key type
var InfoKey = Key{}
