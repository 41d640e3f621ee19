package mail

import (
	"embed"
)

//go:embed templates
var templatesFS embed.FS

// GetTemplatesFS returns the embedded mail templates
func GetTemplatesFS() embed.FS {
	return templatesFS
}
