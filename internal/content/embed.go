package content

import (
	"embed"
	"io/fs"
)

//go:embed data/chapters.yaml data/*.txt
var embedded embed.FS

// DefaultFS returns the content pack compiled into the binary
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		// The embed pattern guarantees the directory exists
		panic(err)
	}
	return sub
}
