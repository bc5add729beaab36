package session

// Messages is the user-facing text of one locale.
type Messages struct {
	Prompt      string // shown before any file is chosen
	SelectFile  string // file picker closed without a file
	InvalidFile string // content is not a workflow
	NoFile      string // filename placeholder
}

var catalog = map[string]Messages{
	"vi": {
		Prompt:      "Tải file JSON",
		SelectFile:  "Chọn file JSON",
		InvalidFile: "Lỗi: File JSON không hợp lệ",
		NoFile:      "No file selected",
	},
	"en": {
		Prompt:      "Upload a JSON file",
		SelectFile:  "Choose a JSON file",
		InvalidFile: "Error: invalid JSON file",
		NoFile:      "No file selected",
	},
}

// DefaultLocale is used for unknown locale names.
const DefaultLocale = "vi"

// MessagesFor returns the catalog entry for locale, falling back to
// DefaultLocale.
func MessagesFor(locale string) Messages {
	if m, ok := catalog[locale]; ok {
		return m
	}
	return catalog[DefaultLocale]
}
