package version

// Value is replaced at release build time via -ldflags "-X ytbatch/internal/version.Value=...".
var Value = "dev"
