package hfit

// Version information for hfit.
// Override at build time with ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/hfit.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "hfit"

	// Description is a short description of the application.
	Description = "bilingual HTML translation: source paragraphs kept, translations inserted beneath"

	// Version is the semantic version of the application.
	Version = "0.1.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/hfit"
)

// Build information set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion returns the version string with the short commit appended
// when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
